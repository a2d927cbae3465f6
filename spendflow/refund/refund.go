package refund

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/money"
	"github.com/Samson397/spendflow-core/spendflow/validation"
)

// Status is the refund lifecycle of an original expense. Transitions are
// monotonic and never reversed.
type Status string

const (
	// StatusNone marks a transaction with no refunds against it.
	StatusNone Status = "none"
	// StatusPartial marks a transaction refunded for less than its amount.
	StatusPartial Status = "partially_refunded"
	// StatusFull marks a transaction refunded in full; it must be excluded
	// from refund-target pickers.
	StatusFull Status = "fully_refunded"
)

// Record is one committed refund linked to an original expense.
type Record struct {
	ID     string
	Amount decimal.Decimal
}

// State is the refund position of an original expense, derived from its
// linked refund records.
type State struct {
	Status   Status
	Refunded decimal.Decimal
}

// Full reports whether the original has been refunded in full.
func (s State) Full() bool {
	return s.Status == StatusFull
}

// StateOf derives the refund state of an original amount from its linked
// refund records. A transaction is fully refunded once the refunded sum
// reaches the original amount.
func StateOf(original decimal.Decimal, refunds []Record) State {
	refunded := decimal.Zero
	for _, r := range refunds {
		refunded = refunded.Add(r.Amount)
	}

	switch {
	case refunded.IsZero() || refunded.IsNegative():
		return State{Status: StatusNone, Refunded: decimal.Zero}
	case refunded.GreaterThanOrEqual(original):
		return State{Status: StatusFull, Refunded: refunded}
	default:
		return State{Status: StatusPartial, Refunded: refunded}
	}
}

// MaxRefundable returns the refund ceiling: the original amount minus the sum
// of linked refunds, floored at zero.
func MaxRefundable(original decimal.Decimal, refunds []Record) decimal.Decimal {
	remaining := original.Sub(StateOf(original, refunds).Refunded)
	if remaining.IsNegative() {
		return decimal.Zero
	}

	return remaining
}

// Plan is the bookkeeping outcome of an admissible refund: the total refunded
// after it commits and the status the original transitions to.
type Plan struct {
	Amount        decimal.Decimal
	RefundedTotal decimal.Decimal
	Remaining     decimal.Decimal
	Status        Status
}

// PlanRefund checks a requested refund against the ceiling and, when
// admissible, returns the resulting bookkeeping. Denials follow the
// validation package's structured failure policy.
func PlanRefund(original decimal.Decimal, refunds []Record, requested decimal.Decimal, cur money.Currency) (Plan, *validation.Failure) {
	remaining := MaxRefundable(original, refunds)

	if requested.GreaterThan(remaining) {
		return Plan{}, &validation.Failure{
			Kind:  validation.KindRefundExceedsRemaining,
			Title: "Refund Too Large",
			Message: fmt.Sprintf("Only %s of this transaction can still be refunded.",
				money.Format(remaining, cur)),
			Available: remaining,
			Requested: requested,
			Shortfall: requested.Sub(remaining),
		}
	}

	total := StateOf(original, refunds).Refunded.Add(requested)

	status := StatusPartial
	if total.GreaterThanOrEqual(original) {
		status = StatusFull
	}

	return Plan{
		Amount:        requested,
		RefundedTotal: total,
		Remaining:     original.Sub(total),
		Status:        status,
	}, nil
}
