package core

import (
	"fmt"
	"sort"
)

type (
	// PeriodSummary is the planned/actual rollup for one aggregation window.
	// Variance is planned minus actual: positive means under budget, negative
	// means over budget. UI coloring depends on that sign, keep it exact.
	PeriodSummary struct {
		Period   string `json:"period"`
		Planned  Money  `json:"planned"`
		Actual   Money  `json:"actual"`
		Variance Money  `json:"variance"`
	}

	CategorySummary struct {
		Category string `json:"category"`
		Planned  Money  `json:"planned"`
		Actual   Money  `json:"actual"`
	}

	// MatrixRow is one category line of the yearly planning matrix: a planned
	// total per calendar month plus the year total.
	MatrixRow struct {
		Category string    `json:"category"`
		Months   [12]Money `json:"months"`
		Total    Money     `json:"total"`
	}
)

func monthLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// SummarizeMonth aggregates one calendar month against the configured category
// set. Every configured category appears in the breakdown, including ones with
// no activity, so the caller can render empty rows. Categories referenced only
// by transactions (not configured) are deliberately absent; that soft
// inconsistency is observable through the store's integrity check instead.
//
// The breakdown is ordered by combined activity (planned+actual) descending,
// ties keeping the category-set order.
func SummarizeMonth(txs []Transaction, year, month int, categories []string) (PeriodSummary, []CategorySummary) {
	byCat := make(map[string]*CategorySummary, len(categories))
	breakdown := make([]CategorySummary, len(categories))
	for i, c := range categories {
		breakdown[i] = CategorySummary{Category: c}
		byCat[c] = &breakdown[i]
	}

	for _, t := range txs {
		if !t.inPeriod(year, month) {
			continue
		}
		cs, ok := byCat[t.Category]
		if !ok {
			continue
		}
		switch t.Kind {
		case KindPlanned:
			cs.Planned.Cents += t.Amount.Cents
		case KindActual:
			cs.Actual.Cents += t.Amount.Cents
		}
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Planned.Cents+breakdown[i].Actual.Cents >
			breakdown[j].Planned.Cents+breakdown[j].Actual.Cents
	})

	period := PeriodSummary{Period: monthLabel(year, month)}
	for _, cs := range breakdown {
		period.Planned.Cents += cs.Planned.Cents
		period.Actual.Cents += cs.Actual.Cents
	}
	period.Variance.Cents = period.Planned.Cents - period.Actual.Cents
	return period, breakdown
}

// SummarizeQuarter aggregates one quarter (0-based index) of the year,
// category-collapsed.
func SummarizeQuarter(txs []Transaction, year, quarter int) PeriodSummary {
	return SummarizeQuarters(txs, year)[quarter]
}

// SummarizeQuarters produces all four quarter rollups for the year.
func SummarizeQuarters(txs []Transaction, year int) [4]PeriodSummary {
	var qs [4]PeriodSummary
	for i := range qs {
		qs[i].Period = fmt.Sprintf("Q%d", i+1)
	}
	for _, t := range txs {
		d, ok := ParseDate(t.Date)
		if !ok || d.Year() != year {
			continue
		}
		q := (int(d.Month()) - 1) / 3
		switch t.Kind {
		case KindPlanned:
			qs[q].Planned.Cents += t.Amount.Cents
		case KindActual:
			qs[q].Actual.Cents += t.Amount.Cents
		}
	}
	for i := range qs {
		qs[i].Variance.Cents = qs[i].Planned.Cents - qs[i].Actual.Cents
	}
	return qs
}

// YearActualBreakdown returns the category-wise actual spend for the year,
// sorted descending by amount. Unlike the monthly breakdown, categories with
// zero actual spend are excluded (this feeds proportional charts), and the
// category axis comes from the transactions themselves.
func YearActualBreakdown(txs []Transaction, year int) []CategorySummary {
	totals := map[string]int64{}
	var order []string
	for _, t := range txs {
		if t.Kind != KindActual || !t.inPeriod(year, 0) {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount.Cents
	}
	out := make([]CategorySummary, 0, len(order))
	for _, c := range order {
		if totals[c] == 0 {
			continue
		}
		out = append(out, CategorySummary{Category: c, Actual: Money{Cents: totals[c]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Actual.Cents > out[j].Actual.Cents
	})
	return out
}

// SummarizeYear returns one category-collapsed summary per calendar month.
func SummarizeYear(txs []Transaction, year int) [12]PeriodSummary {
	var months [12]PeriodSummary
	for i := range months {
		months[i].Period = monthLabel(year, i+1)
	}
	for _, t := range txs {
		d, ok := ParseDate(t.Date)
		if !ok || d.Year() != year {
			continue
		}
		m := int(d.Month()) - 1
		switch t.Kind {
		case KindPlanned:
			months[m].Planned.Cents += t.Amount.Cents
		case KindActual:
			months[m].Actual.Cents += t.Amount.Cents
		}
	}
	for i := range months {
		months[i].Variance.Cents = months[i].Planned.Cents - months[i].Actual.Cents
	}
	return months
}

// BuildCategoryMonthMatrix builds the yearly planning matrix. Only planned
// transactions contribute. The category axis is the distinct set of categories
// appearing anywhere in the transaction list, alphabetically sorted — not the
// configured category set. That differs from SummarizeMonth on purpose: the
// matrix shows planning history, including orphaned categories.
//
// The second result is the synthetic grand-total row (per-month column sums
// plus the overall total); it is a reporting convenience, not a stored entity.
func BuildCategoryMonthMatrix(txs []Transaction, year int) ([]MatrixRow, MatrixRow) {
	seen := map[string]bool{}
	var cats []string
	for _, t := range txs {
		if !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	sort.Strings(cats)

	idx := make(map[string]int, len(cats))
	rows := make([]MatrixRow, len(cats))
	for i, c := range cats {
		rows[i].Category = c
		idx[c] = i
	}

	for _, t := range txs {
		if t.Kind != KindPlanned {
			continue
		}
		d, ok := ParseDate(t.Date)
		if !ok || d.Year() != year {
			continue
		}
		r := &rows[idx[t.Category]]
		r.Months[int(d.Month())-1].Cents += t.Amount.Cents
		r.Total.Cents += t.Amount.Cents
	}

	total := MatrixRow{Category: "Total"}
	for _, r := range rows {
		for m := range r.Months {
			total.Months[m].Cents += r.Months[m].Cents
		}
		total.Total.Cents += r.Total.Cents
	}
	return rows, total
}

// RecentActuals returns up to limit actual transactions of the month, newest
// first. This feeds the narrative insight prompt.
func RecentActuals(txs []Transaction, year, month, limit int) []Transaction {
	var actuals []Transaction
	for _, t := range txs {
		if t.Kind == KindActual && t.inPeriod(year, month) {
			actuals = append(actuals, t)
		}
	}
	sort.SliceStable(actuals, func(i, j int) bool {
		return actuals[i].Date > actuals[j].Date
	})
	if len(actuals) > limit {
		actuals = actuals[:limit]
	}
	return actuals
}
