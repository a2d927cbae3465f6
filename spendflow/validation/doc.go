// Package validation provides the admission rules for card transactions and
// transfers.
//
// Core flow:
//   - CheckTransaction / CheckTransfer answer admit-or-deny before submit.
//   - ApplyTransaction / ApplyTransfer additionally compute the balance
//     mutation the caller persists at commit time.
//
// Both layers share the same underlying shortfall rules, so the admit/deny
// boundary can never disagree between the pre-submit check and the commit.
//
// Every function is pure and synchronous, operating on the card snapshot the
// caller supplies. Business-rule violations are returned as structured
// Failure results carrying a display-ready title and message; they are never
// errors or panics. Callers must re-fetch the card snapshot immediately
// before validating and are responsible for serializing concurrent mutations
// to the same card.
package validation
