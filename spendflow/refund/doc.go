// Package refund enforces the refund ceiling: a refund against an original
// expense must not exceed the original amount minus what has already been
// refunded.
//
// The refund state of a transaction is never a stored running total; it is
// recomputed from the sum of the refund records linked to the original, which
// keeps two concurrently committed refunds from double-counting. Status moves
// monotonically: none → partially_refunded → fully_refunded.
package refund
