package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/log"
	"github.com/Samson397/spendflow-core/spendflow/money"
	"github.com/Samson397/spendflow-core/spendflow/notifications"
	"github.com/Samson397/spendflow-core/spendflow/refund"
	"github.com/Samson397/spendflow-core/spendflow/store"
	"github.com/Samson397/spendflow-core/spendflow/validation"
)

// Service wires the validators to the store. Check methods run the admission
// pipeline against a fresh card snapshot without mutating anything; Commit
// methods run the commit-time pipeline and persist the computed balances
// atomically.
type Service struct {
	store    store.Store
	logger   log.Logger
	notifier notifications.Notifier
	currency money.Currency
}

// New creates a ledger service. A nil notifier disables event delivery.
func New(s store.Store, logger log.Logger, notifier notifications.Notifier, currency money.Currency) *Service {
	if notifier == nil {
		notifier = notifications.Nop{}
	}

	return &Service{store: s, logger: logger, notifier: notifier, currency: currency}
}

// CardInput is the payload for creating a card. Amount-like fields accept any
// of the representations money.Parse understands.
type CardInput struct {
	Name             string
	Type             validation.CardType
	Balance          any
	Limit            any
	OverdraftEnabled bool
	OverdraftLimit   any
}

// TransactionInput is the payload for a single-card transaction.
type TransactionInput struct {
	Amount      any
	CardID      string
	Kind        validation.TransactionKind
	Description string
}

// TransferInput is the payload for a card-to-card transfer.
type TransferInput struct {
	Amount      any
	FromCardID  string
	ToCardID    string
	Description string
}

// RefundInput is the payload for refunding part or all of an expense.
type RefundInput struct {
	Amount      any
	OriginalID  string
	Description string
}

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

// CreateCard persists a new card for the user.
func (s *Service) CreateCard(ctx context.Context, userID string, in CardInput) (store.Card, error) {
	if in.Type != validation.CardTypeDebit && in.Type != validation.CardTypeCredit {
		return store.Card{}, fmt.Errorf("unsupported card type %q", in.Type)
	}

	card := store.Card{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             in.Name,
		Type:             in.Type,
		Balance:          money.Parse(in.Balance),
		Limit:            money.Parse(in.Limit),
		OverdraftEnabled: in.OverdraftEnabled,
		OverdraftLimit:   money.Parse(in.OverdraftLimit),
		Currency:         s.currency.Code,
	}

	out, err := s.store.AddCard(ctx, card)
	if err != nil {
		return store.Card{}, err
	}

	s.logger.Infof("card created: id=%s type=%s", out.ID, out.Type)

	return out, nil
}

// ListCards returns the user's cards.
func (s *Service) ListCards(ctx context.Context, userID string) ([]store.Card, error) {
	return s.store.ListCards(ctx, userID)
}

// ListTransactions returns the user's transaction history.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]store.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// ValidateTransaction runs the admission pipeline without committing.
func (s *Service) ValidateTransaction(ctx context.Context, userID string, in TransactionInput) (validation.Result, error) {
	cards, err := s.cardSnapshots(ctx, userID)
	if err != nil {
		return validation.Result{}, err
	}

	return validation.CheckTransaction(validation.TransactionRequest{
		Amount:   in.Amount,
		CardID:   in.CardID,
		Cards:    cards,
		Currency: s.currency,
		Kind:     in.Kind,
	}), nil
}

// CommitTransaction validates against a fresh snapshot, computes the balance
// mutation, and persists it. A denied request returns the failure inside the
// result with a nil record and a nil error.
func (s *Service) CommitTransaction(ctx context.Context, userID string, in TransactionInput) (*store.Transaction, validation.Result, error) {
	kind := string(in.Kind)
	timer := prometheus.NewTimer(commitDuration.WithLabelValues(kind))
	defer timer.ObserveDuration()

	cards, err := s.cardSnapshots(ctx, userID)
	if err != nil {
		observeCommit(kind, outcomeError)
		return nil, validation.Result{}, err
	}

	res := validation.ApplyTransaction(validation.TransactionRequest{
		Amount:   in.Amount,
		CardID:   in.CardID,
		Cards:    cards,
		Currency: s.currency,
		Kind:     in.Kind,
	})
	if res.Failure != nil {
		observeCommit(kind, outcomeDenied)
		s.logger.Infof("transaction denied: kind=%s reason=%s", in.Kind, res.Failure.Kind)

		return nil, res, nil
	}

	rec := store.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CardID:      res.Card.ID,
		Kind:        store.TransactionKind(in.Kind),
		Amount:      res.Amount,
		Description: in.Description,
	}

	committed, err := s.store.CommitTransaction(ctx, userID, res.Card.ID, newBalanceOf(res), rec)
	if err != nil {
		observeCommit(kind, outcomeError)
		return nil, validation.Result{}, err
	}

	observeCommit(kind, outcomeCommitted)
	s.logger.Infof("transaction committed: id=%s kind=%s", committed.ID, committed.Kind)
	s.notifier.Notify(ctx, notifications.Event{
		Type:      "transaction.committed",
		UserID:    userID,
		CardID:    committed.CardID,
		Amount:    committed.Amount,
		Currency:  s.currency.Code,
		Timestamp: committed.CreatedAt,
	})

	return &committed, res, nil
}

// ---------------------------------------------------------------------------
// Transfers
// ---------------------------------------------------------------------------

// ValidateTransfer runs the transfer admission pipeline without committing.
func (s *Service) ValidateTransfer(ctx context.Context, userID string, in TransferInput) (validation.Result, error) {
	cards, err := s.cardSnapshots(ctx, userID)
	if err != nil {
		return validation.Result{}, err
	}

	return validation.CheckTransfer(validation.TransferRequest{
		Amount:     in.Amount,
		FromCardID: in.FromCardID,
		ToCardID:   in.ToCardID,
		Cards:      cards,
		Currency:   s.currency,
	}), nil
}

// CommitTransfer validates both legs against a fresh snapshot and persists
// them atomically.
func (s *Service) CommitTransfer(ctx context.Context, userID string, in TransferInput) (*store.Transaction, validation.Result, error) {
	timer := prometheus.NewTimer(commitDuration.WithLabelValues("transfer"))
	defer timer.ObserveDuration()

	cards, err := s.cardSnapshots(ctx, userID)
	if err != nil {
		observeCommit("transfer", outcomeError)
		return nil, validation.Result{}, err
	}

	res := validation.ApplyTransfer(validation.TransferRequest{
		Amount:     in.Amount,
		FromCardID: in.FromCardID,
		ToCardID:   in.ToCardID,
		Cards:      cards,
		Currency:   s.currency,
	})
	if res.Failure != nil {
		observeCommit("transfer", outcomeDenied)
		s.logger.Infof("transfer denied: reason=%s", res.Failure.Kind)

		return nil, res, nil
	}

	rec := store.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CardID:      res.FromCard.ID,
		ToCardID:    res.ToCard.ID,
		Kind:        store.KindTransfer,
		Amount:      res.Amount,
		Description: in.Description,
	}

	committed, err := s.store.CommitTransfer(ctx, userID,
		res.FromCard.ID, res.Transfer.FromNewBalance,
		res.ToCard.ID, res.Transfer.ToNewBalance,
		rec,
	)
	if err != nil {
		observeCommit("transfer", outcomeError)
		return nil, validation.Result{}, err
	}

	observeCommit("transfer", outcomeCommitted)
	s.logger.Infof("transfer committed: id=%s", committed.ID)
	s.notifier.Notify(ctx, notifications.Event{
		Type:      "transfer.committed",
		UserID:    userID,
		CardID:    committed.CardID,
		Amount:    committed.Amount,
		Currency:  s.currency.Code,
		Timestamp: committed.CreatedAt,
	})

	return &committed, res, nil
}

// ---------------------------------------------------------------------------
// Refunds
// ---------------------------------------------------------------------------

// CommitRefund refunds part or all of an expense. The remaining refundable
// amount is derived from the refunds already linked to the original, and the
// original's status is recomputed inside the store commit.
func (s *Service) CommitRefund(ctx context.Context, userID string, in RefundInput) (*store.Transaction, validation.Result, error) {
	timer := prometheus.NewTimer(commitDuration.WithLabelValues("refund"))
	defer timer.ObserveDuration()

	original, err := s.store.GetTransaction(ctx, userID, in.OriginalID)
	if err != nil {
		observeCommit("refund", outcomeError)
		return nil, validation.Result{}, err
	}

	if original.Kind != store.KindExpense {
		observeCommit("refund", outcomeError)
		return nil, validation.Result{}, store.ErrNotRefundable
	}

	amountRes := validation.CheckAmount(in.Amount, s.currency)
	if amountRes.Failure != nil {
		observeCommit("refund", outcomeDenied)
		return nil, amountRes, nil
	}

	linked, err := s.store.ListRefundsOf(ctx, userID, original.ID)
	if err != nil {
		observeCommit("refund", outcomeError)
		return nil, validation.Result{}, err
	}

	if _, failure := refund.PlanRefund(original.Amount, toRefundRecords(linked), amountRes.Amount, s.currency); failure != nil {
		observeCommit("refund", outcomeDenied)
		s.logger.Infof("refund denied: originalId=%s reason=%s", original.ID, failure.Kind)

		return nil, validation.Result{Failure: failure}, nil
	}

	cards, err := s.cardSnapshots(ctx, userID)
	if err != nil {
		observeCommit("refund", outcomeError)
		return nil, validation.Result{}, err
	}

	res := validation.ApplyTransaction(validation.TransactionRequest{
		Amount:   amountRes.Amount,
		CardID:   original.CardID,
		Cards:    cards,
		Currency: s.currency,
		Kind:     validation.KindRefund,
	})
	if res.Failure != nil {
		observeCommit("refund", outcomeDenied)
		return nil, res, nil
	}

	rec := store.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CardID:      original.CardID,
		Kind:        store.KindRefund,
		Amount:      res.Amount,
		Description: in.Description,
		OriginalID:  original.ID,
	}

	committed, status, err := s.store.CommitRefund(ctx, userID, original.CardID, newBalanceOf(res), rec)
	if errors.Is(err, store.ErrRefundCeiling) {
		// The pre-check above passed on a snapshot that went stale before the
		// commit; the store's in-lock check is authoritative.
		observeCommit("refund", outcomeDenied)
		s.logger.Infof("refund denied: originalId=%s reason=%s", original.ID, validation.KindRefundExceedsRemaining)

		return nil, validation.Result{Failure: s.refundCeilingFailure(ctx, userID, original, amountRes.Amount)}, nil
	}

	if err != nil {
		observeCommit("refund", outcomeError)
		return nil, validation.Result{}, err
	}

	observeCommit("refund", outcomeCommitted)
	s.logger.Infof("refund committed: id=%s originalId=%s status=%s", committed.ID, original.ID, status)
	s.notifier.Notify(ctx, notifications.Event{
		Type:      "refund.committed",
		UserID:    userID,
		CardID:    committed.CardID,
		Amount:    committed.Amount,
		Currency:  s.currency.Code,
		Timestamp: committed.CreatedAt,
	})

	return &committed, res, nil
}

// refundCeilingFailure rebuilds the display-ready denial for a refund the
// store rejected at its in-lock ceiling check, using the refunds linked after
// the race was lost.
func (s *Service) refundCeilingFailure(ctx context.Context, userID string, original store.Transaction, requested decimal.Decimal) *validation.Failure {
	if linked, err := s.store.ListRefundsOf(ctx, userID, original.ID); err == nil {
		if _, failure := refund.PlanRefund(original.Amount, toRefundRecords(linked), requested, s.currency); failure != nil {
			return failure
		}
	}

	return &validation.Failure{
		Kind:      validation.KindRefundExceedsRemaining,
		Title:     "Refund Too Large",
		Message:   "This refund exceeds what can still be refunded.",
		Requested: requested,
	}
}

// RefundCandidates returns the user's expenses that still have a refundable
// remainder, i.e. everything except fully refunded expenses.
func (s *Service) RefundCandidates(ctx context.Context, userID string) ([]store.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([]store.Transaction, 0)

	for _, tx := range txs {
		if tx.Kind == store.KindExpense && tx.Status != refund.StatusFull {
			candidates = append(candidates, tx)
		}
	}

	return candidates, nil
}

// ---------------------------------------------------------------------------
// Savings goals
// ---------------------------------------------------------------------------

// CreateGoal persists a new savings goal.
func (s *Service) CreateGoal(ctx context.Context, userID, name string, target any) (store.SavingsGoal, error) {
	return s.store.AddGoal(ctx, store.SavingsGoal{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Target: money.Parse(target),
		Saved:  decimal.Zero,
	})
}

// ListGoals returns the user's savings goals.
func (s *Service) ListGoals(ctx context.Context, userID string) ([]store.SavingsGoal, error) {
	return s.store.ListGoals(ctx, userID)
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func (s *Service) cardSnapshots(ctx context.Context, userID string) ([]validation.Card, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]validation.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Snapshot()
	}

	return out, nil
}

// newBalanceOf extracts the persisted balance from whichever outcome the
// commit-time validator produced.
func newBalanceOf(res validation.Result) decimal.Decimal {
	if res.Debit != nil {
		return res.Debit.NewBalance
	}

	if res.Credit != nil {
		return res.Credit.NewBalance
	}

	return decimal.Zero
}

func toRefundRecords(txs []store.Transaction) []refund.Record {
	out := make([]refund.Record, len(txs))
	for i, tx := range txs {
		out[i] = refund.Record{ID: tx.ID, Amount: tx.Amount}
	}

	return out
}
