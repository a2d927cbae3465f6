package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxTransactionAmount is the global ceiling for a single transaction amount,
// in currency units. It is a fixed constant, not currency-aware.
var MaxTransactionAmount = decimal.NewFromInt(1_000_000)

// Parse normalizes a heterogeneous monetary representation into a decimal.
//
// Numeric inputs are returned unchanged (Parse is idempotent), strings are
// cleaned and parsed via ParseString, and anything else yields zero. Legacy
// stores hold amounts as symbol-laden strings such as "-£12.50", so this is
// the single ingestion point for that data.
func Parse(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}

		return *n
	case string:
		return ParseString(n)
	case json.Number:
		return ParseString(n.String())
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}

		return decimal.NewFromFloat(n)
	case float32:
		return Parse(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	default:
		return decimal.Zero
	}
}

// ParseString strips every character that is not a digit, '.', or '-' and
// parses the remainder as a decimal. No currency-symbol whitelist is needed;
// "£1,234.56" and "-$12.50" both clean to parseable forms. Unparseable input
// yields zero.
func ParseString(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}

		return -1
	}, s)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}

	return d
}

// Format renders an amount with the currency symbol and thousands grouping,
// always with two fraction digits. Negative amounts place the sign before the
// symbol: Format(-12.5, GBP) == "-£12.50".
func Format(amount decimal.Decimal, cur Currency) string {
	fixed := amount.Abs().StringFixed(2)

	intPart := fixed[:len(fixed)-3]
	fracPart := fixed[len(fixed)-3:]

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}

	b.WriteString(cur.Symbol)

	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}

	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}

	b.WriteString(fracPart)

	return b.String()
}
