package http

import (
	"fmt"
	"net/http"

	"marketflow/internal/core"
	"marketflow/internal/insight"
)

// handleInsight asks the analyst for a narrative over one month. It always
// answers 200: the insight package degrades internally when the model is
// unavailable or misconfigured.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	if s.analyst == nil {
		writeJSON(w, http.StatusOK, insight.Analysis{
			Summary:         "API Key is missing. Unable to generate insights.",
			Recommendations: []string{"Check configuration."},
		})
		return
	}

	txs, categories, err := s.loadReportInputs(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "insight inputs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summary, breakdown := core.SummarizeMonth(txs, year, month, categories)
	recent := core.RecentActuals(txs, year, month, recentLimit)
	label := fmt.Sprintf("%04d-%02d", year, month)

	analysis := s.analyst.Analyze(r.Context(), label, summary, breakdown, recent)
	writeJSON(w, http.StatusOK, analysis)
}
