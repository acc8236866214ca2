package http

import (
	"fmt"
	"net/http"

	"marketflow/internal/core"
)

type monthReport struct {
	Summary   core.PeriodSummary     `json:"summary"`
	Breakdown []core.CategorySummary `json:"breakdown"`
	Recent    []core.Transaction     `json:"recent"`
}

type quartersReport struct {
	Year       int                    `json:"year"`
	Quarters   [4]core.PeriodSummary  `json:"quarters"`
	ByCategory []core.CategorySummary `json:"byCategory"`
}

type yearReport struct {
	Year   int                    `json:"year"`
	Months [12]core.PeriodSummary `json:"months"`
}

type matrixReport struct {
	Year  int              `json:"year"`
	Rows  []core.MatrixRow `json:"rows"`
	Total core.MatrixRow   `json:"total"`
}

const recentLimit = 10

// loadReportInputs fetches what every report needs in one place.
func (s *Server) loadReportInputs(r *http.Request) ([]core.Transaction, []string, error) {
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}
	return txs, categories, nil
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	key := fmt.Sprintf("month:%d-%d", year, month)
	if cached, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, categories, err := s.loadReportInputs(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "month report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summary, breakdown := core.SummarizeMonth(txs, year, month, categories)
	recent := core.RecentActuals(txs, year, month, recentLimit)
	if recent == nil {
		recent = []core.Transaction{}
	}

	report := monthReport{Summary: summary, Breakdown: breakdown, Recent: recent}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleQuartersReport(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)

	key := fmt.Sprintf("quarters:%d", year)
	if cached, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, _, err := s.loadReportInputs(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "quarters report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	byCategory := core.YearActualBreakdown(txs, year)
	if byCategory == nil {
		byCategory = []core.CategorySummary{}
	}
	report := quartersReport{
		Year:       year,
		Quarters:   core.SummarizeQuarters(txs, year),
		ByCategory: byCategory,
	}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleYearReport(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)

	key := fmt.Sprintf("year:%d", year)
	if cached, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, _, err := s.loadReportInputs(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "year report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	report := yearReport{Year: year, Months: core.SummarizeYear(txs, year)}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMatrixReport(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)

	key := fmt.Sprintf("matrix:%d", year)
	if cached, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, _, err := s.loadReportInputs(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "matrix report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rows, total := core.BuildCategoryMonthMatrix(txs, year)
	if rows == nil {
		rows = []core.MatrixRow{}
	}
	report := matrixReport{Year: year, Rows: rows, Total: total}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}
