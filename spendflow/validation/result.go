package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind is a machine-checkable failure kind attached to every denial.
type Kind string

const (
	// KindInvalidAmount indicates the amount was non-positive or unparseable.
	KindInvalidAmount Kind = "INVALID_AMOUNT"
	// KindAmountTooLarge indicates the amount exceeds the fixed ceiling.
	KindAmountTooLarge Kind = "AMOUNT_TOO_LARGE"
	// KindNoCardSelected indicates no card reference was supplied.
	KindNoCardSelected Kind = "NO_CARD_SELECTED"
	// KindCardNotFound indicates the referenced card is not in the snapshot.
	KindCardNotFound Kind = "CARD_NOT_FOUND"
	// KindInsufficientFunds indicates balance plus overdraft cannot cover the
	// amount.
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	// KindCreditLimitExceeded indicates the purchase would push the owed
	// balance past the credit limit.
	KindCreditLimitExceeded Kind = "CREDIT_LIMIT_EXCEEDED"
	// KindSameAccountTransfer indicates transfer source equals destination.
	KindSameAccountTransfer Kind = "SAME_ACCOUNT_TRANSFER"
	// KindUnsupportedCardType indicates a card outside the debit/credit
	// variant reached an expense check.
	KindUnsupportedCardType Kind = "UNSUPPORTED_CARD_TYPE"
	// KindRefundExceedsRemaining indicates a refund past the refund ceiling.
	KindRefundExceedsRemaining Kind = "REFUND_EXCEEDS_REMAINING"
)

// Failure describes a denied request. Title and Message are display-ready;
// the decimal context fields are populated per kind (Available, Requested,
// and Shortfall for funds and credit denials; CurrentBalance and CreditLimit
// for credit denials) and are zero otherwise.
type Failure struct {
	Kind           Kind            `json:"kind"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Available      decimal.Decimal `json:"available,omitempty"`
	Requested      decimal.Decimal `json:"requested,omitempty"`
	Shortfall      decimal.Decimal `json:"shortfall,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance,omitempty"`
	CreditLimit    decimal.Decimal `json:"creditLimit,omitempty"`
}

// Error formats the failure for error plumbing. Business denials are normally
// consumed via Result, not as errors.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// DebitOutcome is the computed mutation for a debit-card spend.
type DebitOutcome struct {
	// NewBalance is the proposed balance, floored at zero once the overdraft
	// is drawn on.
	NewBalance decimal.Decimal `json:"newBalance"`
	// OverdraftUsed is the portion of the amount covered by the overdraft.
	OverdraftUsed decimal.Decimal `json:"overdraftUsed"`
}

// CreditOutcome is the computed mutation for a credit-card movement.
type CreditOutcome struct {
	NewBalance      decimal.Decimal `json:"newBalance"`
	RemainingCredit decimal.Decimal `json:"remainingCredit"`
}

// TransferOutcome is the computed mutation for both legs of a transfer.
type TransferOutcome struct {
	FromNewBalance decimal.Decimal `json:"fromNewBalance"`
	ToNewBalance   decimal.Decimal `json:"toNewBalance"`
	// OverdraftUsed is non-zero when a debit source dips into its overdraft.
	OverdraftUsed decimal.Decimal `json:"overdraftUsed"`
}

// Result is the discriminated outcome of every validator. On success it
// carries the parsed amount and the resolved card(s); mutation-computing
// variants additionally set one of the outcome fields. On denial only
// Failure is set.
type Result struct {
	Valid  bool            `json:"valid"`
	Amount decimal.Decimal `json:"amount"`

	Card     *Card `json:"card,omitempty"`
	FromCard *Card `json:"fromCard,omitempty"`
	ToCard   *Card `json:"toCard,omitempty"`

	// Warning carries a non-fatal advisory, e.g. that an approved spend draws
	// on the overdraft.
	Warning string `json:"warning,omitempty"`

	Debit    *DebitOutcome    `json:"debit,omitempty"`
	Credit   *CreditOutcome   `json:"credit,omitempty"`
	Transfer *TransferOutcome `json:"transfer,omitempty"`

	Failure *Failure `json:"failure,omitempty"`
}

// Err returns the failure as an error, or nil when the result is valid. It
// exists for callers that prefer error plumbing over branching on Valid.
func (r Result) Err() error {
	if r.Valid || r.Failure == nil {
		return nil
	}

	return r.Failure
}

func deny(f Failure) Result {
	return Result{Failure: &f}
}
