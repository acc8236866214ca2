package core

import "testing"

func tx(date, cat string, cents int64, kind Kind) Transaction {
	return Transaction{Date: date, Category: cat, Amount: Money{Cents: cents}, Kind: kind}
}

func TestSummarizeMonthScenario(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "Ads", 500000, KindPlanned),
		tx("2024-01-15", "Ads", 320000, KindActual),
	}
	period, breakdown := SummarizeMonth(txs, 2024, 1, []string{"Ads"})

	if len(breakdown) != 1 {
		t.Fatalf("expected 1 category row, got %d", len(breakdown))
	}
	row := breakdown[0]
	if row.Category != "Ads" || row.Planned.Cents != 500000 || row.Actual.Cents != 320000 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if period.Planned.Cents != 500000 || period.Actual.Cents != 320000 {
		t.Fatalf("unexpected period totals: %+v", period)
	}
	if period.Variance.Cents != 180000 {
		t.Fatalf("expected variance 180000, got %d", period.Variance.Cents)
	}
	if period.Period != "2024-01" {
		t.Fatalf("expected period label 2024-01, got %q", period.Period)
	}
}

func TestSummarizeMonthKeepsZeroRows(t *testing.T) {
	txs := []Transaction{tx("2024-03-02", "Ads", 1000, KindActual)}
	_, breakdown := SummarizeMonth(txs, 2024, 3, []string{"Ads", "Events", "PR"})
	if len(breakdown) != 3 {
		t.Fatalf("expected all configured categories, got %d rows", len(breakdown))
	}
	// Active category surfaces first, the zero rows keep their original order.
	if breakdown[0].Category != "Ads" {
		t.Fatalf("expected Ads first, got %q", breakdown[0].Category)
	}
	if breakdown[1].Category != "Events" || breakdown[2].Category != "PR" {
		t.Fatalf("tie order not stable: %q, %q", breakdown[1].Category, breakdown[2].Category)
	}
}

func TestSummarizeMonthOrdering(t *testing.T) {
	txs := []Transaction{
		tx("2024-05-01", "Small", 100, KindPlanned),
		tx("2024-05-01", "Big", 900, KindPlanned),
		tx("2024-05-02", "Big", 100, KindActual),
	}
	_, breakdown := SummarizeMonth(txs, 2024, 5, []string{"Small", "Big"})
	if breakdown[0].Category != "Big" || breakdown[1].Category != "Small" {
		t.Fatalf("expected descending combined activity, got %q then %q",
			breakdown[0].Category, breakdown[1].Category)
	}
}

func TestSummarizeMonthIgnoresOtherPeriodsAndOrphans(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-10", "Ads", 100, KindActual),
		tx("2024-02-10", "Ads", 200, KindActual), // wrong month
		tx("2023-01-10", "Ads", 400, KindActual), // wrong year
		tx("2024-01-11", "Typo'd", 800, KindActual),
		tx("not-a-date", "Ads", 1600, KindActual),
	}
	period, _ := SummarizeMonth(txs, 2024, 1, []string{"Ads"})
	if period.Actual.Cents != 100 {
		t.Fatalf("expected 100 actual cents, got %d", period.Actual.Cents)
	}
}

func TestCategorySumsMatchPeriodTotal(t *testing.T) {
	txs := []Transaction{
		tx("2024-07-01", "Ads", 123, KindActual),
		tx("2024-07-02", "PR", 456, KindActual),
		tx("2024-07-03", "Ads", 789, KindPlanned),
	}
	period, breakdown := SummarizeMonth(txs, 2024, 7, []string{"Ads", "PR"})
	var actual, planned int64
	for _, cs := range breakdown {
		actual += cs.Actual.Cents
		planned += cs.Planned.Cents
	}
	if actual != period.Actual.Cents || planned != period.Planned.Cents {
		t.Fatalf("per-category sums %d/%d do not match period %d/%d",
			planned, actual, period.Planned.Cents, period.Actual.Cents)
	}
}

func TestSummarizeQuarters(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "Ads", 100, KindPlanned),
		tx("2024-03-31", "Ads", 40, KindActual),
		tx("2024-04-01", "Ads", 200, KindPlanned),
		tx("2024-12-31", "Ads", 300, KindActual),
	}
	qs := SummarizeQuarters(txs, 2024)
	if qs[0].Planned.Cents != 100 || qs[0].Actual.Cents != 40 || qs[0].Variance.Cents != 60 {
		t.Fatalf("Q1 wrong: %+v", qs[0])
	}
	if qs[1].Planned.Cents != 200 {
		t.Fatalf("Q2 wrong: %+v", qs[1])
	}
	if qs[3].Actual.Cents != 300 || qs[3].Variance.Cents != -300 {
		t.Fatalf("Q4 wrong: %+v", qs[3])
	}
	if qs[2].Period != "Q3" {
		t.Fatalf("expected label Q3, got %q", qs[2].Period)
	}
	if got := SummarizeQuarter(txs, 2024, 3); got != qs[3] {
		t.Fatalf("SummarizeQuarter mismatch: %+v vs %+v", got, qs[3])
	}
}

func TestYearActualBreakdownExcludesZeroAndSorts(t *testing.T) {
	txs := []Transaction{
		tx("2024-02-01", "PR", 500, KindActual),
		tx("2024-06-01", "Ads", 900, KindActual),
		tx("2024-06-02", "Events", 2000, KindPlanned), // planned only, excluded
	}
	got := YearActualBreakdown(txs, 2024)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Category != "Ads" || got[1].Category != "PR" {
		t.Fatalf("expected Ads then PR, got %q then %q", got[0].Category, got[1].Category)
	}
}

func TestSummarizeYear(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "Ads", 100, KindPlanned),
		tx("2024-01-09", "Ads", 30, KindActual),
		tx("2024-11-01", "PR", 70, KindActual),
	}
	months := SummarizeYear(txs, 2024)
	if months[0].Variance.Cents != 70 {
		t.Fatalf("Jan variance wrong: %+v", months[0])
	}
	if months[10].Actual.Cents != 70 {
		t.Fatalf("Nov actual wrong: %+v", months[10])
	}
	for i, m := range months {
		if m.Period == "" {
			t.Fatalf("month %d missing label", i)
		}
	}
}

func TestBuildCategoryMonthMatrix(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "Zeta", 100, KindPlanned),
		tx("2024-01-05", "Alpha", 200, KindPlanned),
		tx("2024-04-01", "Alpha", 300, KindPlanned),
		tx("2024-04-02", "Alpha", 999, KindActual), // actuals never contribute
		tx("2023-01-01", "Old", 50, KindPlanned),   // other year: row exists, cells empty
	}
	rows, total := BuildCategoryMonthMatrix(txs, 2024)
	if len(rows) != 3 {
		t.Fatalf("expected 3 category rows (axis from all transactions), got %d", len(rows))
	}
	if rows[0].Category != "Alpha" || rows[1].Category != "Old" || rows[2].Category != "Zeta" {
		t.Fatalf("expected alphabetical axis, got %v", []string{rows[0].Category, rows[1].Category, rows[2].Category})
	}
	if rows[0].Months[0].Cents != 200 || rows[0].Months[3].Cents != 300 || rows[0].Total.Cents != 500 {
		t.Fatalf("Alpha row wrong: %+v", rows[0])
	}
	if rows[1].Total.Cents != 0 {
		t.Fatalf("Old row should have no 2024 cells: %+v", rows[1])
	}
	if total.Months[0].Cents != 300 || total.Total.Cents != 600 {
		t.Fatalf("grand total wrong: %+v", total)
	}
}

func TestRecentActuals(t *testing.T) {
	txs := []Transaction{
		tx("2024-02-01", "Ads", 1, KindActual),
		tx("2024-02-20", "Ads", 2, KindActual),
		tx("2024-02-10", "Ads", 3, KindActual),
		tx("2024-02-15", "Ads", 4, KindPlanned),
	}
	got := RecentActuals(txs, 2024, 2, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].Date != "2024-02-20" || got[1].Date != "2024-02-10" {
		t.Fatalf("expected newest first, got %q then %q", got[0].Date, got[1].Date)
	}
}
