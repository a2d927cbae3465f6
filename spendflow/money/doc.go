// Package money provides monetary parsing, formatting, and currency context.
//
// Core flow:
//   - Parse normalizes legacy representations (symbol-laden strings, raw
//     numbers) into decimal values at the ingestion boundary.
//   - Format renders a decimal with a currency symbol and grouping; formatted
//     strings are presentation-only and are never parsed back except through
//     Parse at the legacy boundary.
//   - Currency is an explicit value threaded by callers instead of a mutable
//     session singleton.
//
// Amounts are shopspring decimals throughout; floating point never leaks into
// balance arithmetic.
package money
