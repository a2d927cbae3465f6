// Package http exposes the ledger over a Fiber REST surface.
//
// Business denials are mapped to 4xx responses carrying the failure's code,
// title, and display-ready message; the validate endpoints return the full
// validation result with a 200 regardless of outcome, since a denial is a
// successful validation.
package http
