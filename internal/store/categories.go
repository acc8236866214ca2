package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ListCategories returns the configured category set in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM categories ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// AddCategory inserts a name into the set. Adding an existing name is a no-op
// (case-sensitive exact match).
func (s *Store) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

// RenameCategory rewrites the set entry and every transaction referencing the
// old name, atomically. Renaming onto an existing name merges the two
// categories under the surviving name; the merge is reported so callers can
// surface it.
func (s *Store) RenameCategory(ctx context.Context, oldName, newName string) (merged bool, err error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return false, ErrEmptyCategoryName
	}
	if oldName == newName {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE name = ?", oldName).Scan(&exists); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	if exists == 0 {
		return false, ErrCategoryNotFound
	}

	var collision int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE name = ?", newName).Scan(&collision); err != nil {
		return false, fmt.Errorf("check target category: %w", err)
	}

	if collision > 0 {
		// Merge: the old entry disappears, its transactions move over.
		if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE name = ?", oldName); err != nil {
			return false, fmt.Errorf("drop merged category: %w", err)
		}
		merged = true
	} else {
		if _, err := tx.ExecContext(ctx,
			"UPDATE categories SET name = ? WHERE name = ?", newName, oldName); err != nil {
			return false, fmt.Errorf("rename category: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE transactions SET category = ? WHERE category = ?", newName, oldName); err != nil {
		return false, fmt.Errorf("rewrite transactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	if merged {
		slog.WarnContext(ctx, "Category rename merged into existing category",
			"old", oldName, "new", newName)
	}
	return merged, nil
}

// RemoveCategory drops a name from the set only. Transactions keep the now
// orphaned category string; there is no cascading delete or reassignment.
func (s *Store) RemoveCategory(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE name = ?", name); err != nil {
		return fmt.Errorf("remove category: %w", err)
	}
	return nil
}

// EnsureCategories adds every listed name that is not yet configured. Import
// uses this to auto-register categories found in files.
func (s *Store) EnsureCategories(ctx context.Context, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("ensure category %q: %w", name, err)
		}
	}
	return tx.Commit()
}
