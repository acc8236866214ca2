package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"marketflow/internal/core"
)

// TransactionPatch carries the fields of a partial update. Nil fields keep
// their current value.
type TransactionPatch struct {
	Date        *string
	Category    *string
	Description *string
	Amount      *core.Money
	Kind        *core.Kind
}

// AddTransactions persists a batch of ID-less records, assigning each a fresh
// identifier, in input order. Unknown categories are accepted as-is: a typo'd
// category simply never shows up in aggregations keyed off the configured set.
func (s *Store) AddTransactions(ctx context.Context, items []core.Transaction) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, date, category, description, amount_cents, kind, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ids[i], item.Date, item.Category, item.Description, item.Amount.Cents, string(item.Kind), item.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("insert transaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved", "count", len(ids))
	return ids, nil
}

// UpdateTransaction applies a partial update by identifier. An absent
// identifier is reported as ErrNotFound, never treated as fatal by callers.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) error {
	var sets []string
	var args []any
	if patch.Date != nil {
		sets, args = append(sets, "date = ?"), append(args, *patch.Date)
	}
	if patch.Category != nil {
		sets, args = append(sets, "category = ?"), append(args, *patch.Category)
	}
	if patch.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *patch.Description)
	}
	if patch.Amount != nil {
		sets, args = append(sets, "amount_cents = ?"), append(args, patch.Amount.Cents)
	}
	if patch.Kind != nil {
		sets, args = append(sets, "kind = ?"), append(args, string(*patch.Kind))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes one record. Deleting an absent identifier is a
// no-op, not an error.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// BulkDelete removes every listed identifier in one statement. Idempotent.
func (s *Store) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("bulk delete transactions: %w", err)
	}
	return nil
}

// GetTransaction fetches one record by identifier.
func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, category, description, amount_cents, kind, created_by
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the full collection ordered by date then insertion
// order. The aggregation engine filters in memory; the list is small by design.
func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, category, description, amount_cents, kind, created_by
		 FROM transactions ORDER BY date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// OrphanedCategories lists transactions whose category is absent from the
// configured set. The cross-reference is a soft one on purpose; this makes the
// inconsistency observable instead of silent.
func (s *Store) OrphanedCategories(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.date, t.category, t.description, t.amount_cents, t.kind, t.created_by
		 FROM transactions t
		 LEFT JOIN categories c ON c.name = t.category
		 WHERE c.name IS NULL
		 ORDER BY t.date, t.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list orphaned transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var kind string
	err := r.Scan(&t.ID, &t.Date, &t.Category, &t.Description, &t.Amount.Cents, &kind, &t.CreatedBy)
	t.Kind = core.Kind(kind)
	return t, err
}
