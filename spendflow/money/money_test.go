package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Parse / ParseString
// ---------------------------------------------------------------------------

func TestParseString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "12.50", want: "12.5"},
		{name: "pound symbol", input: "£12.50", want: "12.5"},
		{name: "grouped thousands", input: "£1,234.56", want: "1234.56"},
		{name: "negative with symbol", input: "-£12.50", want: "-12.5"},
		{name: "dollar", input: "$99", want: "99"},
		{name: "whitespace", input: "  250.00 ", want: "250"},
		{name: "empty", input: "", want: "0"},
		{name: "letters only", input: "abc", want: "0"},
		{name: "double decimal point", input: "1.2.3", want: "0"},
		{name: "lone minus", input: "-", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseString(tt.input)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"ParseString(%q) = %s, want %s", tt.input, got, tt.want)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("decimal passthrough", func(t *testing.T) {
		t.Parallel()

		d := decimal.RequireFromString("42.42")
		assert.True(t, Parse(d).Equal(d))
	})

	t.Run("nil pointer yields zero", func(t *testing.T) {
		t.Parallel()

		var d *decimal.Decimal
		assert.True(t, Parse(d).IsZero())
	})

	t.Run("float64", func(t *testing.T) {
		t.Parallel()

		assert.True(t, Parse(12.5).Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("NaN and Inf yield zero", func(t *testing.T) {
		t.Parallel()

		assert.True(t, Parse(math.NaN()).IsZero())
		assert.True(t, Parse(math.Inf(1)).IsZero())
	})

	t.Run("json.Number", func(t *testing.T) {
		t.Parallel()

		assert.True(t, Parse(json.Number("1234.56")).Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("int kinds", func(t *testing.T) {
		t.Parallel()

		assert.True(t, Parse(7).Equal(decimal.NewFromInt(7)))
		assert.True(t, Parse(int64(-3)).Equal(decimal.NewFromInt(-3)))
	})

	t.Run("unsupported type yields zero", func(t *testing.T) {
		t.Parallel()

		assert.True(t, Parse(struct{}{}).IsZero())
		assert.True(t, Parse(nil).IsZero())
	})

	t.Run("idempotence", func(t *testing.T) {
		t.Parallel()

		inputs := []any{"£1,234.56", "-£12.50", 99.99, "garbage", ""}
		for _, in := range inputs {
			once := Parse(in)
			twice := Parse(once)
			assert.True(t, once.Equal(twice), "Parse not idempotent for %v", in)
		}
	})
}

// ---------------------------------------------------------------------------
// Format
// ---------------------------------------------------------------------------

func TestFormat(t *testing.T) {
	t.Parallel()

	gbp := CurrencyFor("GBP")
	usd := CurrencyFor("USD")

	tests := []struct {
		name   string
		amount string
		cur    Currency
		want   string
	}{
		{name: "small", amount: "12.5", cur: gbp, want: "£12.50"},
		{name: "grouping", amount: "1234.56", cur: gbp, want: "£1,234.56"},
		{name: "large grouping", amount: "1234567.8", cur: usd, want: "$1,234,567.80"},
		{name: "negative", amount: "-12.5", cur: gbp, want: "-£12.50"},
		{name: "zero", amount: "0", cur: gbp, want: "£0.00"},
		{name: "exactly three digits", amount: "999.99", cur: usd, want: "$999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Format(decimal.RequireFromString(tt.amount), tt.cur)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_RoundTripsThroughParse(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("1234.56")
	formatted := Format(amount, DefaultCurrency)

	require.True(t, Parse(formatted).Equal(amount))
}

// ---------------------------------------------------------------------------
// CurrencyFor
// ---------------------------------------------------------------------------

func TestCurrencyFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$", CurrencyFor("USD").Symbol)
	assert.Equal(t, "$", CurrencyFor(" usd ").Symbol)
	assert.Equal(t, DefaultCurrency, CurrencyFor("XXX"))
	assert.Equal(t, DefaultCurrency, CurrencyFor(""))
}
