// Package ledger orchestrates validated balance mutations.
//
// Service is the application core behind the HTTP surface: every commit
// re-fetches the current card snapshot, runs the commit-time validator over
// it, and hands the computed balances to the store's atomic commit. Business
// denials travel as validation results, never as errors; the error return is
// reserved for infrastructure faults.
package ledger
