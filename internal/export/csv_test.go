package export

import (
	"strings"
	"testing"

	"marketflow/internal/core"
)

func TestWriteCSV(t *testing.T) {
	txs := []core.Transaction{
		{
			ID:          "t1",
			Date:        "2025-03-01",
			Category:    "Advertising (Ads)",
			Description: `Q1 "spring" push, phase 1`,
			Amount:      core.Money{Cents: 500000},
			Kind:        core.KindPlanned,
			CreatedBy:   "u1",
		},
		{
			ID:       "t2",
			Date:     "2025-03-04",
			Category: "内容创作",
			Amount:   core.Money{Cents: 320050},
			Kind:     core.KindActual,
		},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, txs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := sb.String()

	if !strings.HasPrefix(out, "\xEF\xBB\xBF") {
		t.Fatal("missing UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\xEF\xBB\xBF"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "Date,Type,Category,Description,Amount,CreatedBy" {
		t.Fatalf("header = %q", lines[0])
	}
	want1 := `2025-03-01,PLANNED,"Advertising (Ads)","Q1 ""spring"" push, phase 1",5000.00,u1`
	if lines[1] != want1 {
		t.Fatalf("line 1 = %q, want %q", lines[1], want1)
	}
	want2 := `2025-03-04,ACTUAL,"内容创作","",3200.50,`
	if lines[2] != want2 {
		t.Fatalf("line 2 = %q, want %q", lines[2], want2)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := sb.String(); got != "\xEF\xBB\xBFDate,Type,Category,Description,Amount,CreatedBy\n" {
		t.Fatalf("empty export = %q", got)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("2025-08-30"); got != "marketing-budget-2025-08-30.csv" {
		t.Fatalf("FileName = %q", got)
	}
}
