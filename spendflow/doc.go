// Package spendflow provides the shared primitives used across the
// spendflow-core packages.
//
// The package holds the business error Response schema returned by the HTTP
// boundary and the mapping from validation failures to it. Domain logic lives
// in subpackages:
//
//   - money: monetary parsing, formatting, and currency context
//   - validation: transaction and transfer admission rules
//   - refund: refund-ceiling bookkeeping
//   - store: persistence boundary (in-memory and Postgres)
//   - ledger: the commit service tying validation to the store
//
// This package is intentionally dependency-light; integrations live in
// subpackages such as net/http, notifications, and zap.
package spendflow
