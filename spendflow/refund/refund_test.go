package refund

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samson397/spendflow-core/spendflow/money"
	"github.com/Samson397/spendflow-core/spendflow/validation"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func records(amounts ...int64) []Record {
	out := make([]Record, len(amounts))
	for i, a := range amounts {
		out[i] = Record{ID: "r", Amount: dec(a)}
	}

	return out
}

func TestStateOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		original int64
		refunds  []Record
		status   Status
		refunded int64
	}{
		{name: "no refunds", original: 100, refunds: nil, status: StatusNone, refunded: 0},
		{name: "partial", original: 100, refunds: records(60), status: StatusPartial, refunded: 60},
		{name: "several partials", original: 100, refunds: records(30, 30), status: StatusPartial, refunded: 60},
		{name: "exactly full", original: 100, refunds: records(60, 40), status: StatusFull, refunded: 100},
		{name: "over-refunded still full", original: 100, refunds: records(60, 50), status: StatusFull, refunded: 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := StateOf(dec(tt.original), tt.refunds)
			assert.Equal(t, tt.status, st.Status)
			assert.True(t, st.Refunded.Equal(dec(tt.refunded)))
		})
	}
}

func TestMaxRefundable(t *testing.T) {
	t.Parallel()

	assert.True(t, MaxRefundable(dec(100), nil).Equal(dec(100)))
	assert.True(t, MaxRefundable(dec(100), records(60)).Equal(dec(40)))
	assert.True(t, MaxRefundable(dec(100), records(60, 40)).IsZero())
	assert.True(t, MaxRefundable(dec(100), records(60, 50)).IsZero(), "never negative")
}

func TestPlanRefund(t *testing.T) {
	t.Parallel()

	gbp := money.CurrencyFor("GBP")

	t.Run("ceiling rejects one over the remainder", func(t *testing.T) {
		t.Parallel()

		_, f := PlanRefund(dec(100), records(60), dec(41), gbp)
		require.NotNil(t, f)
		assert.Equal(t, validation.KindRefundExceedsRemaining, f.Kind)
		assert.True(t, f.Available.Equal(dec(40)))
		assert.True(t, f.Shortfall.Equal(dec(1)))
	})

	t.Run("exact remainder moves to fully refunded", func(t *testing.T) {
		t.Parallel()

		plan, f := PlanRefund(dec(100), records(60), dec(40), gbp)
		require.Nil(t, f)
		assert.Equal(t, StatusFull, plan.Status)
		assert.True(t, plan.RefundedTotal.Equal(dec(100)))
		assert.True(t, plan.Remaining.IsZero())
	})

	t.Run("partial refund stays partial", func(t *testing.T) {
		t.Parallel()

		plan, f := PlanRefund(dec(100), nil, dec(25), gbp)
		require.Nil(t, f)
		assert.Equal(t, StatusPartial, plan.Status)
		assert.True(t, plan.Remaining.Equal(dec(75)))
	})

	t.Run("status is monotonic across successive plans", func(t *testing.T) {
		t.Parallel()

		refunds := []Record{}
		last := StatusNone

		for _, amount := range []int64{25, 25, 50} {
			plan, f := PlanRefund(dec(100), refunds, dec(amount), gbp)
			require.Nil(t, f)

			switch last {
			case StatusFull:
				t.Fatal("planned past a fully refunded transaction")
			case StatusPartial:
				assert.Contains(t, []Status{StatusPartial, StatusFull}, plan.Status)
			}

			last = plan.Status
			refunds = append(refunds, Record{Amount: dec(amount)})
		}

		assert.Equal(t, StatusFull, last)

		_, f := PlanRefund(dec(100), refunds, dec(1), money.DefaultCurrency)
		require.NotNil(t, f, "fully refunded transactions admit no further refunds")
	})
}
