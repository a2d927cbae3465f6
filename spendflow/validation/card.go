package validation

import (
	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/money"
)

// CardType classifies a card. Only debit and credit exist; validators treat
// anything else as unsupported.
type CardType string

const (
	// CardTypeDebit identifies an account holding funds, optionally with an
	// overdraft facility.
	CardTypeDebit CardType = "debit"
	// CardTypeCredit identifies an account owing funds against a limit.
	CardTypeCredit CardType = "credit"
)

// Card is the balance snapshot validators operate on. Validators never mutate
// it; mutation-computing variants return the proposed new values and the
// caller performs the write.
type Card struct {
	ID   string   `json:"id"`
	Type CardType `json:"type"`
	// Balance holds funds for debit cards and the amount owed for credit
	// cards.
	Balance decimal.Decimal `json:"balance"`
	// Limit is the maximum permitted balance on a credit card.
	Limit decimal.Decimal `json:"limit"`
	// OverdraftEnabled and OverdraftLimit apply to debit cards only.
	OverdraftEnabled bool            `json:"overdraftEnabled"`
	OverdraftLimit   decimal.Decimal `json:"overdraftLimit"`
}

// SpendableFunds returns the total a debit card can spend: the balance plus
// the overdraft limit when the facility is enabled.
func (c Card) SpendableFunds() decimal.Decimal {
	if c.OverdraftEnabled {
		return c.Balance.Add(c.OverdraftLimit)
	}

	return c.Balance
}

// AvailableCredit returns limit minus balance for a credit card.
func (c Card) AvailableCredit() decimal.Decimal {
	return c.Limit.Sub(c.Balance)
}

// TransactionKind discriminates how a transaction moves money.
type TransactionKind string

const (
	// KindExpense removes funds from (or adds owed balance to) a card.
	KindExpense TransactionKind = "expense"
	// KindIncome adds funds to a card; always admissible at validation time.
	KindIncome TransactionKind = "income"
	// KindRefund returns funds from a previous expense; admissibility against
	// the refund ceiling is enforced separately by the refund package.
	KindRefund TransactionKind = "refund"
)

// TransactionRequest is the ephemeral validator input built by a submit
// handler. Amount accepts any legacy representation money.Parse understands.
type TransactionRequest struct {
	Amount   any
	CardID   string
	Cards    []Card
	Currency money.Currency
	Kind     TransactionKind
}

// TransferRequest is the validator input for a card-to-card transfer.
type TransferRequest struct {
	Amount     any
	FromCardID string
	ToCardID   string
	Cards      []Card
	Currency   money.Currency
}
