package insight

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"marketflow/internal/core"
)

type stubGen struct {
	reply string
	err   error

	gotModel  string
	gotPrompt string
}

func (s *stubGen) generate(_ context.Context, model, prompt string) (string, error) {
	s.gotModel = model
	s.gotPrompt = prompt
	return s.reply, s.err
}

func testAnalyst(gen generator) *Analyst {
	return &Analyst{
		gen:     gen,
		model:   DefaultModel,
		timeout: time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sampleMonth() (core.PeriodSummary, []core.CategorySummary, []core.Transaction) {
	month := core.PeriodSummary{
		Period:   "2025-03",
		Planned:  core.Money{Cents: 500000},
		Actual:   core.Money{Cents: 320000},
		Variance: core.Money{Cents: 180000},
	}
	breakdown := []core.CategorySummary{
		{Category: "Advertising (Ads)", Planned: core.Money{Cents: 500000}, Actual: core.Money{Cents: 320000}},
	}
	recent := []core.Transaction{
		{Description: "Weibo ads", Amount: core.Money{Cents: 320000}, CreatedBy: "alice"},
		{Description: "Banner refresh", Amount: core.Money{Cents: 4500}},
	}
	return month, breakdown, recent
}

func TestAnalyzeParsesReply(t *testing.T) {
	gen := &stubGen{reply: `{"summary": "Healthy month.", "recommendations": ["Keep going.", "Watch ads spend.", "Plan Q2."]}`}
	a := testAnalyst(gen)

	month, breakdown, recent := sampleMonth()
	got := a.Analyze(context.Background(), "2025-03", month, breakdown, recent)

	if got.Summary != "Healthy month." || len(got.Recommendations) != 3 {
		t.Fatalf("analysis = %+v", got)
	}
	if gen.gotModel != DefaultModel {
		t.Fatalf("model = %q", gen.gotModel)
	}
}

func TestAnalyzePromptContents(t *testing.T) {
	gen := &stubGen{reply: `{"summary": "ok", "recommendations": []}`}
	a := testAnalyst(gen)

	month, breakdown, recent := sampleMonth()
	a.Analyze(context.Background(), "2025-03", month, breakdown, recent)

	for _, want := range []string{
		"Senior Marketing Budget Analyst",
		"2025-03",
		"¥5000.00",
		"¥3200.00",
		"¥1800.00",
		"Advertising (Ads): Planned ¥5000.00, Actual ¥3200.00",
		"Weibo ads (alice): ¥3200.00",
		"Banner refresh (Unknown User): ¥45.00",
	} {
		if !strings.Contains(gen.gotPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, gen.gotPrompt)
		}
	}
}

func TestAnalyzeFallbacks(t *testing.T) {
	month, breakdown, recent := sampleMonth()
	want := fallbackAnalysis()

	cases := []struct {
		name string
		gen  *stubGen
	}{
		{"generation error", &stubGen{err: errors.New("deadline exceeded")}},
		{"non-json reply", &stubGen{reply: "sorry, I cannot help with that"}},
	}
	for _, c := range cases {
		got := testAnalyst(c.gen).Analyze(context.Background(), "2025-03", month, breakdown, recent)
		if got.Summary != want.Summary || len(got.Recommendations) != 2 {
			t.Fatalf("%s: analysis = %+v", c.name, got)
		}
	}
}

func TestAnalyzeFillsDefaults(t *testing.T) {
	gen := &stubGen{reply: `{}`}
	got := testAnalyst(gen).Analyze(context.Background(), "2025-03", core.PeriodSummary{}, nil, nil)
	if got.Summary != "Analysis completed." {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.Recommendations == nil || len(got.Recommendations) != 0 {
		t.Fatalf("recommendations = %#v", got.Recommendations)
	}
}

func TestAnalyzeWithoutClient(t *testing.T) {
	var nilAnalyst *Analyst
	for i, a := range []*Analyst{nilAnalyst, {}} {
		got := a.Analyze(context.Background(), "2025-03", core.PeriodSummary{}, nil, nil)
		if got.Summary != "API Key is missing. Unable to generate insights." {
			t.Fatalf("case %d: summary = %q", i, got.Summary)
		}
	}
}

func TestAnalyzeTruncatesRecent(t *testing.T) {
	gen := &stubGen{reply: `{"summary": "ok", "recommendations": []}`}
	a := testAnalyst(gen)

	var recent []core.Transaction
	for i := 0; i < 8; i++ {
		recent = append(recent, core.Transaction{Description: "tx", Amount: core.Money{Cents: 100}})
	}
	a.Analyze(context.Background(), "2025-03", core.PeriodSummary{}, nil, recent)

	if n := strings.Count(gen.gotPrompt, "- tx ("); n != maxRecentTransactions {
		t.Fatalf("prompt lists %d recent transactions, want %d", n, maxRecentTransactions)
	}
}
