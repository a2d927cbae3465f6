package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/refund"
)

// Postgres is the pgx-backed Store implementation. Commits run in a
// REPEATABLE READ transaction with row locks taken in deterministic ID
// order, which serializes concurrent mutations to the same cards.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to the given DSN and verifies it with a ping.
// Numeric columns scan directly into shopspring decimals.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

var _ Store = (*Postgres)(nil)

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

const cardColumns = "id, user_id, name, type, balance, credit_limit, overdraft_enabled, overdraft_limit, currency, created_at, updated_at"

const txColumns = "id, user_id, card_id, to_card_id, kind, amount, description, original_id, status, created_at"

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

func (p *Postgres) AddCard(ctx context.Context, card Card) (Card, error) {
	query := `
		INSERT INTO cards (id, user_id, name, type, balance, credit_limit, overdraft_enabled, overdraft_limit, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + cardColumns

	row := p.pool.QueryRow(ctx, query,
		card.ID, card.UserID, card.Name, card.Type, card.Balance,
		card.Limit, card.OverdraftEnabled, card.OverdraftLimit, card.Currency,
	)

	out, err := scanCard(row)
	if err != nil {
		return Card{}, fmt.Errorf("failed to insert card: %w", err)
	}

	return out, nil
}

func (p *Postgres) GetCard(ctx context.Context, userID, cardID string) (Card, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE user_id = $1 AND id = $2",
		userID, cardID,
	)

	card, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, ErrCardNotFound
	}

	if err != nil {
		return Card{}, err
	}

	return card, nil
}

func (p *Postgres) ListCards(ctx context.Context, userID string) ([]Card, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE user_id = $1 ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []Card

	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}

		cards = append(cards, card)
	}

	return cards, rows.Err()
}

func (p *Postgres) UpdateCard(ctx context.Context, userID, cardID string, patch CardPatch) error {
	sets, args := patchClauses(map[string]any{
		"name":              deref(patch.Name),
		"balance":           deref(patch.Balance),
		"credit_limit":      deref(patch.Limit),
		"overdraft_enabled": deref(patch.OverdraftEnabled),
		"overdraft_limit":   deref(patch.OverdraftLimit),
	})

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID, cardID)
	query := fmt.Sprintf(
		"UPDATE cards SET %s, updated_at = now() WHERE user_id = $%d AND id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func (p *Postgres) AddTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	row := p.pool.QueryRow(ctx, insertTransactionSQL,
		tx.ID, tx.UserID, tx.CardID, nullable(tx.ToCardID), tx.Kind,
		tx.Amount, tx.Description, nullable(tx.OriginalID), nullable(string(tx.Status)),
	)

	out, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return out, nil
}

func (p *Postgres) GetTransaction(ctx context.Context, userID, id string) (Transaction, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE user_id = $1 AND id = $2",
		userID, id,
	)

	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}

	if err != nil {
		return Transaction{}, err
	}

	return tx, nil
}

func (p *Postgres) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	return p.queryTransactions(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE user_id = $1 ORDER BY created_at, id",
		userID,
	)
}

func (p *Postgres) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) error {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	sets, args := patchClauses(map[string]any{
		"description": deref(patch.Description),
		"status":      deref(status),
	})

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID, id)
	query := fmt.Sprintf(
		"UPDATE transactions SET %s WHERE user_id = $%d AND id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (p *Postgres) ListRefundsOf(ctx context.Context, userID, originalID string) ([]Transaction, error) {
	return p.queryTransactions(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE user_id = $1 AND kind = 'refund' AND original_id = $2 ORDER BY created_at, id",
		userID, originalID,
	)
}

// ---------------------------------------------------------------------------
// Commits
// ---------------------------------------------------------------------------

func (p *Postgres) CommitTransaction(ctx context.Context, userID, cardID string, newBalance decimal.Decimal, rec Transaction) (Transaction, error) {
	var out Transaction

	err := p.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockCard(ctx, tx, userID, cardID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE cards SET balance = $1, updated_at = now() WHERE user_id = $2 AND id = $3",
			newBalance, userID, cardID,
		); err != nil {
			return fmt.Errorf("balance update failed: %w", err)
		}

		var err error

		out, err = insertTransactionTx(ctx, tx, rec)

		return err
	})
	if err != nil {
		return Transaction{}, err
	}

	return out, nil
}

func (p *Postgres) CommitTransfer(ctx context.Context, userID, fromCardID string, fromBalance decimal.Decimal, toCardID string, toBalance decimal.Decimal, rec Transaction) (Transaction, error) {
	var out Transaction

	err := p.inTx(ctx, func(tx pgx.Tx) error {
		// Deterministic lock order prevents deadlocks between concurrent
		// transfers in opposite directions.
		first, second := fromCardID, toCardID
		if first > second {
			first, second = second, first
		}

		if err := lockCard(ctx, tx, userID, first); err != nil {
			return err
		}

		if err := lockCard(ctx, tx, userID, second); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE cards SET balance = $1, updated_at = now() WHERE user_id = $2 AND id = $3",
			fromBalance, userID, fromCardID,
		); err != nil {
			return fmt.Errorf("source balance update failed: %w", err)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE cards SET balance = $1, updated_at = now() WHERE user_id = $2 AND id = $3",
			toBalance, userID, toCardID,
		); err != nil {
			return fmt.Errorf("destination balance update failed: %w", err)
		}

		var err error

		out, err = insertTransactionTx(ctx, tx, rec)

		return err
	})
	if err != nil {
		return Transaction{}, err
	}

	return out, nil
}

func (p *Postgres) CommitRefund(ctx context.Context, userID, cardID string, newBalance decimal.Decimal, rec Transaction) (Transaction, refund.Status, error) {
	var (
		out    Transaction
		status refund.Status
	)

	err := p.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockCard(ctx, tx, userID, cardID); err != nil {
			return err
		}

		var (
			originalAmount decimal.Decimal
			originalKind   TransactionKind
		)

		err := tx.QueryRow(ctx,
			"SELECT amount, kind FROM transactions WHERE user_id = $1 AND id = $2 FOR UPDATE",
			userID, rec.OriginalID,
		).Scan(&originalAmount, &originalKind)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTransactionNotFound
		}

		if err != nil {
			return fmt.Errorf("original lookup failed: %w", err)
		}

		if originalKind != KindExpense {
			return ErrNotRefundable
		}

		// The lock on the original row serializes concurrent refunds against
		// the same expense, so the sum read here cannot go stale before the
		// insert below. Caller-side pre-checks may have read a stale list;
		// this check is the one that holds the ceiling.
		var refunded decimal.Decimal

		err = tx.QueryRow(ctx,
			"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND kind = 'refund' AND original_id = $2",
			userID, rec.OriginalID,
		).Scan(&refunded)
		if err != nil {
			return fmt.Errorf("refund sum failed: %w", err)
		}

		if rec.Amount.GreaterThan(originalAmount.Sub(refunded)) {
			return ErrRefundCeiling
		}

		if _, err := tx.Exec(ctx,
			"UPDATE cards SET balance = $1, updated_at = now() WHERE user_id = $2 AND id = $3",
			newBalance, userID, cardID,
		); err != nil {
			return fmt.Errorf("balance update failed: %w", err)
		}

		out, err = insertTransactionTx(ctx, tx, rec)
		if err != nil {
			return err
		}

		status = refund.StateOf(originalAmount, []refund.Record{{Amount: refunded.Add(rec.Amount)}}).Status

		if _, err := tx.Exec(ctx,
			"UPDATE transactions SET status = $1 WHERE user_id = $2 AND id = $3",
			string(status), userID, rec.OriginalID,
		); err != nil {
			return fmt.Errorf("status update failed: %w", err)
		}

		return nil
	})
	if err != nil {
		return Transaction{}, "", err
	}

	return out, status, nil
}

// ---------------------------------------------------------------------------
// Savings goals
// ---------------------------------------------------------------------------

func (p *Postgres) AddGoal(ctx context.Context, goal SavingsGoal) (SavingsGoal, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target, saved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, name, target, saved, created_at`,
		goal.ID, goal.UserID, goal.Name, goal.Target, goal.Saved,
	)

	var out SavingsGoal
	if err := row.Scan(&out.ID, &out.UserID, &out.Name, &out.Target, &out.Saved, &out.CreatedAt); err != nil {
		return SavingsGoal{}, fmt.Errorf("failed to insert savings goal: %w", err)
	}

	return out, nil
}

func (p *Postgres) ListGoals(ctx context.Context, userID string) ([]SavingsGoal, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, user_id, name, target, saved, created_at FROM savings_goals WHERE user_id = $1 ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []SavingsGoal

	for rows.Next() {
		var g SavingsGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Target, &g.Saved, &g.CreatedAt); err != nil {
			return nil, err
		}

		goals = append(goals, g)
	}

	return goals, rows.Err()
}

func (p *Postgres) UpdateGoal(ctx context.Context, userID, goalID string, patch GoalPatch) error {
	sets, args := patchClauses(map[string]any{
		"name":   deref(patch.Name),
		"target": deref(patch.Target),
		"saved":  deref(patch.Saved),
	})

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID, goalID)
	query := fmt.Sprintf(
		"UPDATE savings_goals SET %s WHERE user_id = $%d AND id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update savings goal: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

const insertTransactionSQL = `
	INSERT INTO transactions (id, user_id, card_id, to_card_id, kind, amount, description, original_id, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + txColumns

func (p *Postgres) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}

	return nil
}

func lockCard(ctx context.Context, tx pgx.Tx, userID, cardID string) error {
	var id string

	err := tx.QueryRow(ctx,
		"SELECT id FROM cards WHERE user_id = $1 AND id = $2 FOR UPDATE",
		userID, cardID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCardNotFound
	}

	if err != nil {
		return fmt.Errorf("lock acquisition failed: %w", err)
	}

	return nil
}

func insertTransactionTx(ctx context.Context, tx pgx.Tx, rec Transaction) (Transaction, error) {
	row := tx.QueryRow(ctx, insertTransactionSQL,
		rec.ID, rec.UserID, rec.CardID, nullable(rec.ToCardID), rec.Kind,
		rec.Amount, rec.Description, nullable(rec.OriginalID), nullable(string(rec.Status)),
	)

	out, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction insert failed: %w", err)
	}

	return out, nil
}

func scanCard(row pgx.Row) (Card, error) {
	var c Card

	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Type, &c.Balance,
		&c.Limit, &c.OverdraftEnabled, &c.OverdraftLimit, &c.Currency,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Card{}, err
	}

	return c, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t          Transaction
		toCardID   *string
		originalID *string
		status     *string
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.CardID, &toCardID, &t.Kind,
		&t.Amount, &t.Description, &originalID, &status, &t.CreatedAt,
	)
	if err != nil {
		return Transaction{}, err
	}

	if toCardID != nil {
		t.ToCardID = *toCardID
	}

	if originalID != nil {
		t.OriginalID = *originalID
	}

	if status != nil {
		t.Status = refund.Status(*status)
	}

	return t, nil
}

func (p *Postgres) queryTransactions(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// patchClauses builds SET clauses for the non-nil patch fields, with
// positional args starting at $1.
func patchClauses(fields map[string]any) ([]string, []any) {
	// Deterministic order keeps generated SQL stable.
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != nil {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", k, i+1))
		args = append(args, fields[k])
	}

	return sets, args
}

// nullable maps the record's empty-string optionals to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// deref boxes a typed pointer into an untyped nil-or-value for patchClauses.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}

	return *p
}
