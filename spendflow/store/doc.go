// Package store defines the persistence boundary for cards, transactions,
// and savings goals.
//
// Store is the CRUD-plus-commit interface: commit operations persist a
// validated balance mutation and its transaction record atomically. Watcher
// is the subscription interface the mobile client relies on; every change
// pushes a full replacement slice to subscribers.
//
// Two implementations ship with the package: Memory, the reference
// implementation used by tests and local development, and Postgres on
// pgx/v5, which serializes concurrent commits to the same cards with
// row locks taken in deterministic ID order.
package store
