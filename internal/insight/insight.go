// Package insight produces a short AI-written narrative over one month of
// budget data. Failures never propagate: a missing key, a timeout, or a
// malformed reply all fall back to a canned analysis.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"marketflow/internal/core"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 15 * time.Second

	maxRecentTransactions = 5
)

// Analysis is what the analyst endpoint returns to the client.
type Analysis struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

func fallbackAnalysis() Analysis {
	return Analysis{
		Summary: "Unable to analyze budget at this time due to technical difficulties.",
		Recommendations: []string{
			"Monitor spending manually.",
			"Review largest category variances.",
		},
	}
}

func missingKeyAnalysis() Analysis {
	return Analysis{
		Summary:         "API Key is missing. Unable to generate insights.",
		Recommendations: []string{"Check configuration."},
	}
}

// generator is the slice of the genai client we use; tests stub it.
type generator interface {
	generate(ctx context.Context, model, prompt string) (string, error)
}

// Analyst wraps a Gemini client. The zero value (or a nil *Analyst) is a
// valid analyst that always answers with the missing-key response.
type Analyst struct {
	gen     generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

type genaiGenerator struct {
	client *genai.Client
}

func (g genaiGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// New builds an Analyst. An empty apiKey returns a degraded analyst rather
// than an error so the rest of the application starts normally.
func New(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*Analyst, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	a := &Analyst{model: model, timeout: timeout, logger: logger}
	if apiKey == "" {
		logger.Warn("insight: no API key configured, analyst runs degraded")
		return a, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	a.gen = genaiGenerator{client: client}
	return a, nil
}

// Analyze writes a two-sentence health summary plus three recommendations for
// the given month. It never returns an error: any failure logs and yields the
// fixed fallback payload.
func (a *Analyst) Analyze(ctx context.Context, monthLabel string, month core.PeriodSummary, breakdown []core.CategorySummary, recent []core.Transaction) Analysis {
	if a == nil || a.gen == nil {
		return missingKeyAnalysis()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := buildPrompt(monthLabel, month, breakdown, recent)
	text, err := a.gen.generate(ctx, a.model, prompt)
	if err != nil {
		a.logger.ErrorContext(ctx, "insight: generation failed", "error", err)
		return fallbackAnalysis()
	}

	var parsed Analysis
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		a.logger.ErrorContext(ctx, "insight: unparseable reply", "error", err)
		return fallbackAnalysis()
	}
	if parsed.Summary == "" {
		parsed.Summary = "Analysis completed."
	}
	if parsed.Recommendations == nil {
		parsed.Recommendations = []string{}
	}
	return parsed
}

func buildPrompt(monthLabel string, month core.PeriodSummary, breakdown []core.CategorySummary, recent []core.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a Senior Marketing Budget Analyst based in China. Analyze the following budget data for %s.\n", monthLabel)
	b.WriteString("Currency is RMB (CNY/¥).\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Total Budget (Planned): ¥%s\n", month.Planned)
	fmt.Fprintf(&b, "- Total Spent (Actual): ¥%s\n", month.Actual)
	fmt.Fprintf(&b, "- Variance: ¥%s\n\n", month.Variance)

	b.WriteString("Category Breakdown (Planned vs Actual):\n")
	for _, c := range breakdown {
		fmt.Fprintf(&b, "- %s: Planned ¥%s, Actual ¥%s\n", c.Category, c.Planned, c.Actual)
	}

	b.WriteString("\nRecent Transactions:\n")
	if len(recent) > maxRecentTransactions {
		recent = recent[:maxRecentTransactions]
	}
	for _, t := range recent {
		by := t.CreatedBy
		if by == "" {
			by = "Unknown User"
		}
		fmt.Fprintf(&b, "- %s (%s): ¥%s\n", t.Description, by, t.Amount)
	}

	b.WriteString("\nTask:\n")
	b.WriteString("1. Provide a concise 2-sentence summary of the financial health.\n")
	b.WriteString("2. Provide 3 specific, actionable short recommendations or warnings for the marketing team.\n\n")
	b.WriteString("Return ONLY valid JSON in this shape:\n")
	b.WriteString(`{"summary": "...", "recommendations": ["...", "...", "..."]}`)
	b.WriteByte('\n')

	return b.String()
}
