// Package importer turns tabular files (CSV, XLSX, Google Sheets ranges) into
// candidate transactions. It is forgiving by contract: rows it cannot use are
// dropped and counted, never surfaced as errors.
package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketflow/internal/core"
)

// Result is the outcome of one import run. Transactions are unsaved
// candidates without identifiers; Categories is the distinct set of category
// names seen, for auto-registration in the configured set.
type Result struct {
	Transactions []core.Transaction
	Categories   []string
	TotalRows    int
	Imported     int
	Skipped      int
}

// Header vocabularies. Two naming schemes are recognized, English and
// Chinese; the first matching header wins per column.
var (
	dateHeaders        = []string{"date", "日期"}
	amountHeaders      = []string{"amount", "金额"}
	categoryHeaders    = []string{"category", "类别", "分类"}
	descriptionHeaders = []string{"description", "描述", "备注"}
	typeHeaders        = []string{"type", "类型"}

	// A type cell containing any of these marks the row as planned/budget;
	// everything else is an actual expense.
	plannedTokens = []string{"planned", "budget", "plan", "预算", "计划"}
)

// excelEpoch is the reference date for spreadsheet serial day counts.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

type columns struct {
	date, amount, category, description, typ int
}

func mapHeaders(headers []string) columns {
	cols := columns{date: -1, amount: -1, category: -1, description: -1, typ: -1}
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.date == -1 && matchesAny(h, dateHeaders):
			cols.date = i
		case cols.amount == -1 && matchesAny(h, amountHeaders):
			cols.amount = i
		case cols.category == -1 && matchesAny(h, categoryHeaders):
			cols.category = i
		case cols.description == -1 && matchesAny(h, descriptionHeaders):
			cols.description = i
		case cols.typ == -1 && matchesAny(h, typeHeaders):
			cols.typ = i
		}
	}
	return cols
}

func (c columns) usable() bool {
	return c.date != -1 && c.amount != -1 && c.category != -1
}

func matchesAny(header string, names []string) bool {
	for _, n := range names {
		if header == n {
			return true
		}
	}
	return false
}

// ParseRows maps a values matrix (first row headers) to candidate
// transactions. Rows missing date, amount, or category are skipped silently;
// only the aggregate counts report them.
func ParseRows(rows [][]string, createdBy string) Result {
	var res Result
	if len(rows) == 0 {
		return res
	}

	cols := mapHeaders(rows[0])
	res.TotalRows = len(rows) - 1
	if !cols.usable() {
		res.Skipped = res.TotalRows
		return res
	}

	seenCats := map[string]bool{}
	for _, row := range rows[1:] {
		t, ok := parseRow(row, cols)
		if !ok {
			res.Skipped++
			continue
		}
		t.CreatedBy = createdBy
		res.Transactions = append(res.Transactions, t)
		res.Imported++
		if !seenCats[t.Category] {
			seenCats[t.Category] = true
			res.Categories = append(res.Categories, t.Category)
		}
	}
	return res
}

func parseRow(cells []string, cols columns) (core.Transaction, bool) {
	date, ok := parseCellDate(cell(cells, cols.date))
	if !ok {
		return core.Transaction{}, false
	}
	cents, ok := parseCellAmount(cell(cells, cols.amount))
	if !ok {
		return core.Transaction{}, false
	}
	category := strings.TrimSpace(cell(cells, cols.category))
	if category == "" {
		return core.Transaction{}, false
	}

	t := core.Transaction{
		Date:     date,
		Category: category,
		Amount:   core.Money{Cents: cents},
		Kind:     classifyKind(cell(cells, cols.typ)),
	}
	if cols.description != -1 {
		t.Description = strings.TrimSpace(cell(cells, cols.description))
	}
	return t, true
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// parseCellDate accepts ISO dates, slash-separated dates, and whole-day
// spreadsheet serial numbers (days since the 1899-12-30 epoch).
func parseCellDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range []string{core.DateLayout, "2006/01/02", "2006-1-2", "2006/1/2"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(core.DateLayout), true
		}
	}
	if serial, err := strconv.Atoi(s); err == nil && serial > 0 && serial < 300000 {
		return excelEpoch.AddDate(0, 0, serial).Format(core.DateLayout), true
	}
	return "", false
}

// parseCellAmount tolerates currency symbols and thousands separators, then
// rounds half-up to cents. Non-positive amounts disqualify the row.
func parseCellAmount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "¥$€ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return 0, false
	}
	return cents, true
}

func classifyKind(typeCell string) core.Kind {
	c := strings.ToLower(strings.TrimSpace(typeCell))
	for _, tok := range plannedTokens {
		if strings.Contains(c, tok) {
			return core.KindPlanned
		}
	}
	return core.KindActual
}
