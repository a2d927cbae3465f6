package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/refund"
)

// Memory is the in-memory Store and Watcher implementation. It is the
// reference semantics for the Postgres implementation and the backing store
// for tests and local development.
type Memory struct {
	mu sync.Mutex

	cards map[string]map[string]Card
	txs   map[string]map[string]Transaction
	goals map[string]map[string]SavingsGoal

	nextSub  int
	cardSubs map[string]map[int]func([]Card)
	txSubs   map[string]map[int]func([]Transaction)
	goalSubs map[string]map[int]func([]SavingsGoal)
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cards:    make(map[string]map[string]Card),
		txs:      make(map[string]map[string]Transaction),
		goals:    make(map[string]map[string]SavingsGoal),
		cardSubs: make(map[string]map[int]func([]Card)),
		txSubs:   make(map[string]map[int]func([]Transaction)),
		goalSubs: make(map[string]map[int]func([]SavingsGoal)),
	}
}

var _ Store = (*Memory)(nil)
var _ Watcher = (*Memory)(nil)

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

func (m *Memory) AddCard(_ context.Context, card Card) (Card, error) {
	m.mu.Lock()

	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}

	card.UpdatedAt = card.CreatedAt

	if m.cards[card.UserID] == nil {
		m.cards[card.UserID] = make(map[string]Card)
	}

	m.cards[card.UserID][card.ID] = card
	notify := m.cardNotification(card.UserID)
	m.mu.Unlock()

	notify()

	return card, nil
}

func (m *Memory) GetCard(_ context.Context, userID, cardID string) (Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[userID][cardID]
	if !ok {
		return Card{}, ErrCardNotFound
	}

	return card, nil
}

func (m *Memory) ListCards(_ context.Context, userID string) ([]Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cardSnapshot(userID), nil
}

func (m *Memory) UpdateCard(_ context.Context, userID, cardID string, patch CardPatch) error {
	m.mu.Lock()

	card, ok := m.cards[userID][cardID]
	if !ok {
		m.mu.Unlock()
		return ErrCardNotFound
	}

	if patch.Name != nil {
		card.Name = *patch.Name
	}

	if patch.Balance != nil {
		card.Balance = *patch.Balance
	}

	if patch.Limit != nil {
		card.Limit = *patch.Limit
	}

	if patch.OverdraftEnabled != nil {
		card.OverdraftEnabled = *patch.OverdraftEnabled
	}

	if patch.OverdraftLimit != nil {
		card.OverdraftLimit = *patch.OverdraftLimit
	}

	card.UpdatedAt = time.Now().UTC()
	m.cards[userID][cardID] = card
	notify := m.cardNotification(userID)
	m.mu.Unlock()

	notify()

	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func (m *Memory) AddTransaction(_ context.Context, tx Transaction) (Transaction, error) {
	m.mu.Lock()
	tx = m.insertTransactionLocked(tx)
	notify := m.txNotification(tx.UserID)
	m.mu.Unlock()

	notify()

	return tx, nil
}

func (m *Memory) GetTransaction(_ context.Context, userID, id string) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[userID][id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}

	return tx, nil
}

func (m *Memory) ListTransactions(_ context.Context, userID string) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.txSnapshot(userID), nil
}

func (m *Memory) UpdateTransaction(_ context.Context, userID, id string, patch TransactionPatch) error {
	m.mu.Lock()

	tx, ok := m.txs[userID][id]
	if !ok {
		m.mu.Unlock()
		return ErrTransactionNotFound
	}

	if patch.Description != nil {
		tx.Description = *patch.Description
	}

	if patch.Status != nil {
		tx.Status = *patch.Status
	}

	m.txs[userID][id] = tx
	notify := m.txNotification(userID)
	m.mu.Unlock()

	notify()

	return nil
}

func (m *Memory) ListRefundsOf(_ context.Context, userID, originalID string) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refundsOfLocked(userID, originalID), nil
}

// ---------------------------------------------------------------------------
// Commits
// ---------------------------------------------------------------------------

func (m *Memory) CommitTransaction(_ context.Context, userID, cardID string, newBalance decimal.Decimal, rec Transaction) (Transaction, error) {
	m.mu.Lock()

	card, ok := m.cards[userID][cardID]
	if !ok {
		m.mu.Unlock()
		return Transaction{}, ErrCardNotFound
	}

	card.Balance = newBalance
	card.UpdatedAt = time.Now().UTC()
	m.cards[userID][cardID] = card

	rec = m.insertTransactionLocked(rec)

	notifyCards := m.cardNotification(userID)
	notifyTxs := m.txNotification(userID)
	m.mu.Unlock()

	notifyCards()
	notifyTxs()

	return rec, nil
}

func (m *Memory) CommitTransfer(_ context.Context, userID, fromCardID string, fromBalance decimal.Decimal, toCardID string, toBalance decimal.Decimal, rec Transaction) (Transaction, error) {
	m.mu.Lock()

	from, ok := m.cards[userID][fromCardID]
	if !ok {
		m.mu.Unlock()
		return Transaction{}, ErrCardNotFound
	}

	to, ok := m.cards[userID][toCardID]
	if !ok {
		m.mu.Unlock()
		return Transaction{}, ErrCardNotFound
	}

	now := time.Now().UTC()
	from.Balance = fromBalance
	from.UpdatedAt = now
	to.Balance = toBalance
	to.UpdatedAt = now
	m.cards[userID][fromCardID] = from
	m.cards[userID][toCardID] = to

	rec = m.insertTransactionLocked(rec)

	notifyCards := m.cardNotification(userID)
	notifyTxs := m.txNotification(userID)
	m.mu.Unlock()

	notifyCards()
	notifyTxs()

	return rec, nil
}

func (m *Memory) CommitRefund(_ context.Context, userID, cardID string, newBalance decimal.Decimal, rec Transaction) (Transaction, refund.Status, error) {
	m.mu.Lock()

	card, ok := m.cards[userID][cardID]
	if !ok {
		m.mu.Unlock()
		return Transaction{}, "", ErrCardNotFound
	}

	original, ok := m.txs[userID][rec.OriginalID]
	if !ok {
		m.mu.Unlock()
		return Transaction{}, "", ErrTransactionNotFound
	}

	if original.Kind != KindExpense {
		m.mu.Unlock()
		return Transaction{}, "", ErrNotRefundable
	}

	// The ceiling check happens under the lock, against the refunds actually
	// linked right now. A caller-side pre-check may have read a stale list.
	remaining := refund.MaxRefundable(original.Amount, toRefundRecords(m.refundsOfLocked(userID, original.ID)))
	if rec.Amount.GreaterThan(remaining) {
		m.mu.Unlock()
		return Transaction{}, "", ErrRefundCeiling
	}

	card.Balance = newBalance
	card.UpdatedAt = time.Now().UTC()
	m.cards[userID][cardID] = card

	rec = m.insertTransactionLocked(rec)

	// Status is derived from the linked refunds, including the one just
	// inserted, never incremented in place.
	state := refund.StateOf(original.Amount, toRefundRecords(m.refundsOfLocked(userID, original.ID)))
	original.Status = state.Status
	m.txs[userID][original.ID] = original

	notifyCards := m.cardNotification(userID)
	notifyTxs := m.txNotification(userID)
	m.mu.Unlock()

	notifyCards()
	notifyTxs()

	return rec, state.Status, nil
}

// ---------------------------------------------------------------------------
// Savings goals
// ---------------------------------------------------------------------------

func (m *Memory) AddGoal(_ context.Context, goal SavingsGoal) (SavingsGoal, error) {
	m.mu.Lock()

	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}

	if m.goals[goal.UserID] == nil {
		m.goals[goal.UserID] = make(map[string]SavingsGoal)
	}

	m.goals[goal.UserID][goal.ID] = goal
	notify := m.goalNotification(goal.UserID)
	m.mu.Unlock()

	notify()

	return goal, nil
}

func (m *Memory) ListGoals(_ context.Context, userID string) ([]SavingsGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.goalSnapshot(userID), nil
}

func (m *Memory) UpdateGoal(_ context.Context, userID, goalID string, patch GoalPatch) error {
	m.mu.Lock()

	goal, ok := m.goals[userID][goalID]
	if !ok {
		m.mu.Unlock()
		return ErrGoalNotFound
	}

	if patch.Name != nil {
		goal.Name = *patch.Name
	}

	if patch.Target != nil {
		goal.Target = *patch.Target
	}

	if patch.Saved != nil {
		goal.Saved = *patch.Saved
	}

	m.goals[userID][goalID] = goal
	notify := m.goalNotification(userID)
	m.mu.Unlock()

	notify()

	return nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

func (m *Memory) SubscribeToCards(userID string, fn func([]Card)) func() {
	m.mu.Lock()

	id := m.nextSub
	m.nextSub++

	if m.cardSubs[userID] == nil {
		m.cardSubs[userID] = make(map[int]func([]Card))
	}

	m.cardSubs[userID][id] = fn
	snapshot := m.cardSnapshot(userID)
	m.mu.Unlock()

	// Initial delivery mirrors the remote store: subscribers immediately see
	// the current state.
	fn(snapshot)

	return func() {
		m.mu.Lock()
		delete(m.cardSubs[userID], id)
		m.mu.Unlock()
	}
}

func (m *Memory) SubscribeToTransactions(userID string, fn func([]Transaction)) func() {
	m.mu.Lock()

	id := m.nextSub
	m.nextSub++

	if m.txSubs[userID] == nil {
		m.txSubs[userID] = make(map[int]func([]Transaction))
	}

	m.txSubs[userID][id] = fn
	snapshot := m.txSnapshot(userID)
	m.mu.Unlock()

	fn(snapshot)

	return func() {
		m.mu.Lock()
		delete(m.txSubs[userID], id)
		m.mu.Unlock()
	}
}

func (m *Memory) SubscribeToGoals(userID string, fn func([]SavingsGoal)) func() {
	m.mu.Lock()

	id := m.nextSub
	m.nextSub++

	if m.goalSubs[userID] == nil {
		m.goalSubs[userID] = make(map[int]func([]SavingsGoal))
	}

	m.goalSubs[userID][id] = fn
	snapshot := m.goalSnapshot(userID)
	m.mu.Unlock()

	fn(snapshot)

	return func() {
		m.mu.Lock()
		delete(m.goalSubs[userID], id)
		m.mu.Unlock()
	}
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func (m *Memory) insertTransactionLocked(tx Transaction) Transaction {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	if m.txs[tx.UserID] == nil {
		m.txs[tx.UserID] = make(map[string]Transaction)
	}

	m.txs[tx.UserID][tx.ID] = tx

	return tx
}

func (m *Memory) refundsOfLocked(userID, originalID string) []Transaction {
	var out []Transaction

	for _, tx := range m.txs[userID] {
		if tx.Kind == KindRefund && tx.OriginalID == originalID {
			out = append(out, tx)
		}
	}

	sortTransactions(out)

	return out
}

func (m *Memory) cardSnapshot(userID string) []Card {
	out := make([]Card, 0, len(m.cards[userID]))
	for _, c := range m.cards[userID] {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

func (m *Memory) txSnapshot(userID string) []Transaction {
	out := make([]Transaction, 0, len(m.txs[userID]))
	for _, tx := range m.txs[userID] {
		out = append(out, tx)
	}

	sortTransactions(out)

	return out
}

func (m *Memory) goalSnapshot(userID string) []SavingsGoal {
	out := make([]SavingsGoal, 0, len(m.goals[userID]))
	for _, g := range m.goals[userID] {
		out = append(out, g)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// cardNotification snapshots the user's cards and subscribers under the lock
// and returns a closure that fans the snapshot out after the lock is
// released, so a subscriber calling back into the store cannot deadlock.
func (m *Memory) cardNotification(userID string) func() {
	snapshot := m.cardSnapshot(userID)

	subs := make([]func([]Card), 0, len(m.cardSubs[userID]))
	for _, fn := range m.cardSubs[userID] {
		subs = append(subs, fn)
	}

	return func() {
		for _, fn := range subs {
			fn(snapshot)
		}
	}
}

func (m *Memory) txNotification(userID string) func() {
	snapshot := m.txSnapshot(userID)

	subs := make([]func([]Transaction), 0, len(m.txSubs[userID]))
	for _, fn := range m.txSubs[userID] {
		subs = append(subs, fn)
	}

	return func() {
		for _, fn := range subs {
			fn(snapshot)
		}
	}
}

func (m *Memory) goalNotification(userID string) func() {
	snapshot := m.goalSnapshot(userID)

	subs := make([]func([]SavingsGoal), 0, len(m.goalSubs[userID]))
	for _, fn := range m.goalSubs[userID] {
		subs = append(subs, fn)
	}

	return func() {
		for _, fn := range subs {
			fn(snapshot)
		}
	}
}

func sortTransactions(txs []Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID < txs[j].ID
		}

		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}

func toRefundRecords(txs []Transaction) []refund.Record {
	out := make([]refund.Record, len(txs))
	for i, tx := range txs {
		out[i] = refund.Record{ID: tx.ID, Amount: tx.Amount}
	}

	return out
}
