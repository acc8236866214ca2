package store

import (
	"context"
	"path/filepath"
	"testing"

	"marketflow/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func draft(date, cat string, cents int64, kind core.Kind) core.Transaction {
	return core.Transaction{Date: date, Category: cat, Amount: core.Money{Cents: cents}, Kind: kind}
}

func TestAddTransactionsAssignsIDsInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.AddTransactions(ctx, []core.Transaction{
		draft("2024-01-01", "Ads", 100, core.KindPlanned),
		draft("2024-01-01", "Ads", 200, core.KindActual),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(ids) != 2 || ids[0] == "" || ids[0] == ids[1] {
		t.Fatalf("expected 2 distinct ids, got %v", ids)
	}

	list, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(list))
	}
	if list[0].Amount.Cents != 100 || list[1].Amount.Cents != 200 {
		t.Fatalf("input order not preserved: %+v", list)
	}
}

func TestAddTransactionsUnknownCategoryAccepted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddTransactions(ctx, []core.Transaction{
		draft("2024-01-01", "Definitely Not Configured", 100, core.KindActual),
	}); err != nil {
		t.Fatalf("unknown category must be accepted: %v", err)
	}

	orphans, err := s.OrphanedCategories(ctx)
	if err != nil {
		t.Fatalf("orphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0].Category != "Definitely Not Configured" {
		t.Fatalf("expected the orphan to be observable, got %+v", orphans)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, _ := s.AddTransactions(ctx, []core.Transaction{draft("2024-01-01", "Ads", 100, core.KindPlanned)})

	desc := "updated"
	amount := core.Money{Cents: 999}
	if err := s.UpdateTransaction(ctx, ids[0], TransactionPatch{Description: &desc, Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetTransaction(ctx, ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "updated" || got.Amount.Cents != 999 {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Category != "Ads" || got.Kind != core.KindPlanned {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	if err := s.UpdateTransaction(ctx, "absent", TransactionPatch{Description: &desc}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, _ := s.AddTransactions(ctx, []core.Transaction{
		draft("2024-01-01", "Ads", 100, core.KindPlanned),
		draft("2024-01-02", "Ads", 200, core.KindActual),
		draft("2024-01-03", "Ads", 300, core.KindActual),
	})

	if err := s.BulkDelete(ctx, ids[:2]); err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	// Deleting an already-deleted id is a no-op, not an error.
	if err := s.DeleteTransaction(ctx, ids[0]); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if err := s.BulkDelete(ctx, ids); err != nil {
		t.Fatalf("repeat bulk delete: %v", err)
	}

	list, _ := s.ListTransactions(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %d", len(list))
	}
}

func TestDeletedTransactionLeavesAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, _ := s.AddTransactions(ctx, []core.Transaction{
		draft("2024-01-01", "Ads", 500, core.KindActual),
		draft("2024-01-02", "Ads", 300, core.KindActual),
	})
	if err := s.DeleteTransaction(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListTransactions(ctx)
	period, _ := core.SummarizeMonth(list, 2024, 1, []string{"Ads"})
	if period.Actual.Cents != 300 {
		t.Fatalf("deleted amount still aggregated: %d", period.Actual.Cents)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddCategory(ctx, "Sponsorships"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Duplicate add is a no-op.
	if err := s.AddCategory(ctx, "Sponsorships"); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	cats, _ := s.ListCategories(ctx)
	count := 0
	for _, c := range cats {
		if c == "Sponsorships" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one entry, got %d", count)
	}

	if err := s.RemoveCategory(ctx, "Sponsorships"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cats, _ = s.ListCategories(ctx)
	for _, c := range cats {
		if c == "Sponsorships" {
			t.Fatalf("category still present after remove")
		}
	}
}

func TestRenameCategoryCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddCategory(ctx, "Adz"); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.AddTransactions(ctx, []core.Transaction{
		draft("2024-01-01", "Adz", 500000, core.KindPlanned),
		draft("2024-01-15", "Adz", 320000, core.KindActual),
		draft("2024-01-20", "Other", 77, core.KindActual),
	})

	merged, err := s.RenameCategory(ctx, "Adz", "Ads")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if merged {
		t.Fatalf("rename to a fresh name must not report a merge")
	}

	list, _ := s.ListTransactions(ctx)
	periodNew, _ := core.SummarizeMonth(list, 2024, 1, []string{"Ads"})
	if periodNew.Planned.Cents != 500000 || periodNew.Actual.Cents != 320000 {
		t.Fatalf("totals did not follow the rename: %+v", periodNew)
	}
	periodOld, _ := core.SummarizeMonth(list, 2024, 1, []string{"Adz"})
	if periodOld.Planned.Cents != 0 || periodOld.Actual.Cents != 0 {
		t.Fatalf("old name still attracts totals: %+v", periodOld)
	}
}

func TestRenameCategoryMergesOnCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddCategory(ctx, "Ads")
	s.AddCategory(ctx, "Advertising")
	s.AddTransactions(ctx, []core.Transaction{
		draft("2024-01-01", "Advertising", 100, core.KindActual),
		draft("2024-01-02", "Ads", 200, core.KindActual),
	})

	merged, err := s.RenameCategory(ctx, "Advertising", "Ads")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !merged {
		t.Fatalf("expected merge to be reported")
	}

	cats, _ := s.ListCategories(ctx)
	for _, c := range cats {
		if c == "Advertising" {
			t.Fatalf("merged category still listed")
		}
	}
	list, _ := s.ListTransactions(ctx)
	period, _ := core.SummarizeMonth(list, 2024, 1, []string{"Ads"})
	if period.Actual.Cents != 300 {
		t.Fatalf("expected merged total 300, got %d", period.Actual.Cents)
	}
}

func TestRenameMissingCategory(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.RenameCategory(context.Background(), "Nope", "Whatever"); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestRemoveCategoryKeepsTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddCategory(ctx, "Doomed")
	s.AddTransactions(ctx, []core.Transaction{draft("2024-01-01", "Doomed", 100, core.KindActual)})
	if err := s.RemoveCategory(ctx, "Doomed"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	list, _ := s.ListTransactions(ctx)
	if len(list) != 1 || list[0].Category != "Doomed" {
		t.Fatalf("transaction should keep the orphaned category string: %+v", list)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin, err := s.AddUser(ctx, core.User{Name: "Admin", Login: "admin", PasswordHash: "h", Role: core.RoleAdmin})
	if err != nil {
		t.Fatalf("add admin: %v", err)
	}
	member, err := s.AddUser(ctx, core.User{Name: "Member", Login: "member", PasswordHash: "h", Role: core.RoleMember})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	if _, err := s.AddUser(ctx, core.User{Name: "Dup", Login: "admin", PasswordHash: "h", Role: core.RoleMember}); err != ErrLoginExists {
		t.Fatalf("expected ErrLoginExists, got %v", err)
	}

	// Self-deletion refused, account list unchanged.
	if err := s.DeleteUser(ctx, admin.ID, admin.ID); err != ErrSelfDelete {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 2 {
		t.Fatalf("account list changed after refused self-delete: %d", len(users))
	}

	if err := s.DeleteUser(ctx, member.ID, admin.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	if _, err := s.GetUserByLogin(ctx, "member"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceAllPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddUser(ctx, core.User{Name: "Keep", Login: "keep", PasswordHash: "h", Role: core.RoleAdmin})
	s.AddTransactions(ctx, []core.Transaction{draft("2024-01-01", "Ads", 100, core.KindActual)})

	// Only transactions provided: users and categories stay untouched.
	err := s.ReplaceAll(ctx, nil, []core.Transaction{
		draft("2025-02-02", "PR", 4200, core.KindPlanned),
	}, nil)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	users, _ := s.ListUsers(ctx)
	if len(users) != 1 || users[0].Login != "keep" {
		t.Fatalf("users should be untouched, got %+v", users)
	}
	list, _ := s.ListTransactions(ctx)
	if len(list) != 1 || list[0].Category != "PR" {
		t.Fatalf("transactions not replaced: %+v", list)
	}
	cats, _ := s.ListCategories(ctx)
	if len(cats) == 0 {
		t.Fatalf("categories should be untouched")
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddUser(ctx, core.User{Name: "Admin", Login: "admin", PasswordHash: "hash", Role: core.RoleAdmin})
	s.AddTransactions(ctx, []core.Transaction{draft("2024-01-01", "Ads", 500, core.KindPlanned)})

	snap, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.Version != SnapshotVersion || len(snap.Users) != 1 || snap.Users[0].PasswordHash != "hash" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	restored := newTestStore(t)
	users := make([]core.User, len(snap.Users))
	for i, u := range snap.Users {
		users[i] = u.Restorable()
	}
	if err := restored.ReplaceAll(ctx, users, snap.Transactions, snap.Categories); err != nil {
		t.Fatalf("restore: %v", err)
	}
	u, err := restored.GetUserByLogin(ctx, "admin")
	if err != nil || u.PasswordHash != "hash" {
		t.Fatalf("restored user unusable: %+v err=%v", u, err)
	}
	list, _ := restored.ListTransactions(ctx)
	if len(list) != 1 || list[0].Amount.Cents != 500 {
		t.Fatalf("restored transactions wrong: %+v", list)
	}
}
