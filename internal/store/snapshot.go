package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"marketflow/internal/core"
)

// SnapshotVersion tags the backup file layout.
const SnapshotVersion = 1

// Snapshot is the combined backup payload: the three collections plus a
// format version and export timestamp.
type Snapshot struct {
	Version      int                `json:"version"`
	ExportedAt   time.Time          `json:"exportedAt"`
	Users        []UserExport       `json:"users"`
	Transactions []core.Transaction `json:"transactions"`
	Categories   []string           `json:"categories"`
}

// UserExport is a user record as written to a backup. Unlike the API-facing
// core.User it carries the password hash, so a restored snapshot keeps
// accounts usable.
type UserExport struct {
	core.User
	PasswordHash string `json:"passwordHash"`
}

// Restorable converts the export form back into the domain form.
func (u UserExport) Restorable() core.User {
	out := u.User
	out.PasswordHash = u.PasswordHash
	return out
}

// Export captures the full store contents.
func (s *Store) Export(ctx context.Context) (Snapshot, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	exported := make([]UserExport, len(users))
	for i, u := range users {
		exported[i] = UserExport{User: u, PasswordHash: u.PasswordHash}
	}
	// Empty collections serialize as [] so the file round-trips through the
	// restore validation.
	if txs == nil {
		txs = []core.Transaction{}
	}
	if cats == nil {
		cats = []string{}
	}
	return Snapshot{
		Version:      SnapshotVersion,
		ExportedAt:   time.Now().UTC(),
		Users:        exported,
		Transactions: txs,
		Categories:   cats,
	}, nil
}

// ReplaceAll restores collections wholesale. A nil slice leaves the
// corresponding existing collection untouched (partial-restore tolerance);
// the all-or-nothing rule for backup files is enforced one layer up, at the
// HTTP boundary. Everything runs in one database transaction.
func (s *Store) ReplaceAll(ctx context.Context, users []core.User, txs []core.Transaction, categories []string) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	if users != nil {
		if _, err := dbtx.ExecContext(ctx, "DELETE FROM users"); err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		for _, u := range users {
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			_, err := dbtx.ExecContext(ctx,
				`INSERT INTO users (id, name, login, password_hash, role,
				   can_edit_budget, can_edit_category, can_manage_tx, can_manage_users)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				u.ID, u.Name, u.Login, u.PasswordHash, string(u.Role),
				boolToInt(u.Permissions.EditBudget), boolToInt(u.Permissions.EditCategory),
				boolToInt(u.Permissions.ManageTransactions), boolToInt(u.Permissions.ManageUsers),
			)
			if err != nil {
				return fmt.Errorf("restore user %q: %w", u.Login, err)
			}
		}
	}

	if txs != nil {
		if _, err := dbtx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		for _, t := range txs {
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			_, err := dbtx.ExecContext(ctx,
				`INSERT INTO transactions (id, date, category, description, amount_cents, kind, created_by)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.Date, t.Category, t.Description, t.Amount.Cents, string(t.Kind), t.CreatedBy,
			)
			if err != nil {
				return fmt.Errorf("restore transaction %q: %w", t.ID, err)
			}
		}
	}

	if categories != nil {
		if _, err := dbtx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for _, name := range categories {
			if _, err := dbtx.ExecContext(ctx,
				"INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
				return fmt.Errorf("restore category %q: %w", name, err)
			}
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Collections restored",
		"users", len(users), "transactions", len(txs), "categories", len(categories))
	return nil
}
