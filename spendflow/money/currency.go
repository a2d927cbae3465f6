package money

import "strings"

// Currency carries the display context for an amount. Callers thread it
// explicitly from session setup to whichever function needs it; there is no
// hidden current-currency state.
type Currency struct {
	Code   string
	Symbol string
	Locale string
}

// DefaultCurrency is used when no session currency has been resolved.
var DefaultCurrency = Currency{Code: "GBP", Symbol: "£", Locale: "en-GB"}

var currencies = map[string]Currency{
	"GBP": DefaultCurrency,
	"USD": {Code: "USD", Symbol: "$", Locale: "en-US"},
	"EUR": {Code: "EUR", Symbol: "€", Locale: "de-DE"},
	"JPY": {Code: "JPY", Symbol: "¥", Locale: "ja-JP"},
	"NGN": {Code: "NGN", Symbol: "₦", Locale: "en-NG"},
	"INR": {Code: "INR", Symbol: "₹", Locale: "en-IN"},
	"TZS": {Code: "TZS", Symbol: "TSh", Locale: "sw-TZ"},
}

// CurrencyFor resolves a currency by ISO code, falling back to
// DefaultCurrency for unknown or empty codes.
func CurrencyFor(code string) Currency {
	if cur, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return cur
	}

	return DefaultCurrency
}
