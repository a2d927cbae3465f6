package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/refund"
	"github.com/Samson397/spendflow-core/spendflow/validation"
)

var (
	// ErrCardNotFound is returned when a card reference does not resolve.
	ErrCardNotFound = errors.New("card not found")
	// ErrTransactionNotFound is returned when a transaction reference does
	// not resolve.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrGoalNotFound is returned when a savings goal reference does not
	// resolve.
	ErrGoalNotFound = errors.New("savings goal not found")
	// ErrNotRefundable is returned when a refund targets a transaction that
	// is not an expense.
	ErrNotRefundable = errors.New("transaction is not refundable")
	// ErrRefundCeiling is returned when a refund would push the refunded sum
	// past the original amount. The commit enforces the ceiling itself so a
	// stale caller-side pre-check can never over-refund.
	ErrRefundCeiling = errors.New("refund exceeds the refundable remainder")
)

// Card is the persisted card record.
type Card struct {
	ID               string              `json:"id"`
	UserID           string              `json:"userId"`
	Name             string              `json:"name"`
	Type             validation.CardType `json:"type"`
	Balance          decimal.Decimal     `json:"balance"`
	Limit            decimal.Decimal     `json:"limit"`
	OverdraftEnabled bool                `json:"overdraftEnabled"`
	OverdraftLimit   decimal.Decimal     `json:"overdraftLimit"`
	Currency         string              `json:"currency"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Snapshot converts the record into the validator input shape.
func (c Card) Snapshot() validation.Card {
	return validation.Card{
		ID:               c.ID,
		Type:             c.Type,
		Balance:          c.Balance,
		Limit:            c.Limit,
		OverdraftEnabled: c.OverdraftEnabled,
		OverdraftLimit:   c.OverdraftLimit,
	}
}

// TransactionKind discriminates persisted transaction records. It extends
// the validator kinds with the transfer record written by CommitTransfer.
type TransactionKind string

const (
	KindExpense  TransactionKind = "expense"
	KindIncome   TransactionKind = "income"
	KindRefund   TransactionKind = "refund"
	KindTransfer TransactionKind = "transfer"
)

// Transaction is the persisted transaction record. ToCardID is set for
// transfers, OriginalID links a refund to the expense it refunds, and Status
// is the derived refund state of an expense (recomputed from linked refund
// records on every refund commit, never incremented in place).
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	CardID      string          `json:"cardId"`
	ToCardID    string          `json:"toCardId,omitempty"`
	Kind        TransactionKind `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	OriginalID  string          `json:"originalId,omitempty"`
	Status      refund.Status   `json:"status,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SavingsGoal is a savings pot the user pays into.
type SavingsGoal struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Target    decimal.Decimal `json:"target"`
	Saved     decimal.Decimal `json:"saved"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CardPatch is a partial card update. Nil fields are left unchanged.
type CardPatch struct {
	Name             *string
	Balance          *decimal.Decimal
	Limit            *decimal.Decimal
	OverdraftEnabled *bool
	OverdraftLimit   *decimal.Decimal
}

// TransactionPatch is a partial transaction update.
type TransactionPatch struct {
	Description *string
	Status      *refund.Status
}

// GoalPatch is a partial savings goal update.
type GoalPatch struct {
	Name   *string
	Target *decimal.Decimal
	Saved  *decimal.Decimal
}

// Store is the persistence interface consumed by the ledger service. The
// commit operations write the new card balance(s) and the transaction record
// together or not at all.
type Store interface {
	AddCard(ctx context.Context, card Card) (Card, error)
	GetCard(ctx context.Context, userID, cardID string) (Card, error)
	ListCards(ctx context.Context, userID string) ([]Card, error)
	UpdateCard(ctx context.Context, userID, cardID string, patch CardPatch) error

	AddTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) error
	// ListRefundsOf returns the refund records linked to an original expense.
	ListRefundsOf(ctx context.Context, userID, originalID string) ([]Transaction, error)

	// CommitTransaction writes the card's new balance and inserts the record
	// atomically.
	CommitTransaction(ctx context.Context, userID, cardID string, newBalance decimal.Decimal, rec Transaction) (Transaction, error)
	// CommitTransfer writes both legs' new balances and inserts the transfer
	// record atomically.
	CommitTransfer(ctx context.Context, userID, fromCardID string, fromBalance decimal.Decimal, toCardID string, toBalance decimal.Decimal, rec Transaction) (Transaction, error)
	// CommitRefund inserts the refund record, writes the card's new balance,
	// and recomputes the original expense's refund status from the sum of its
	// linked refunds, all in one atomic step. The refund ceiling is re-checked
	// under the same lock that serializes refunds against the original, so two
	// concurrent refunds cannot overshoot it; a refund past the remainder
	// fails with ErrRefundCeiling. It returns the status the original moved
	// to.
	CommitRefund(ctx context.Context, userID, cardID string, newBalance decimal.Decimal, rec Transaction) (Transaction, refund.Status, error)

	AddGoal(ctx context.Context, goal SavingsGoal) (SavingsGoal, error)
	ListGoals(ctx context.Context, userID string) ([]SavingsGoal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, patch GoalPatch) error
}

// Watcher delivers full replacement snapshots to subscribers on every change.
// The returned function unsubscribes.
type Watcher interface {
	SubscribeToCards(userID string, fn func([]Card)) func()
	SubscribeToTransactions(userID string, fn func([]Transaction)) func()
	SubscribeToGoals(userID string, fn func([]SavingsGoal)) func()
}
