package http

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"marketflow/internal/core"
	"marketflow/internal/events"
	"marketflow/internal/export"
	"marketflow/internal/importer"
	"marketflow/internal/store"
)

// maxUploadBytes caps import uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type importResponse struct {
	Imported      int      `json:"imported"`
	Skipped       int      `json:"skipped"`
	TotalRows     int      `json:"totalRows"`
	NewCategories []string `json:"newCategories"`
}

// handleImport accepts a multipart upload and routes it to the CSV or XLSX
// reader by file extension. A broken file reports zero rows, not an error.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "malformed upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	user := userFrom(r.Context())
	var result importer.Result
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		result, err = importer.ReadXLSX(file, user.ID)
	default:
		result, err = importer.ReadCSV(file, user.ID)
	}
	if err != nil {
		// Unreadable files degrade to an empty import.
		s.logger.WarnContext(r.Context(), "import parse failed",
			"filename", header.Filename, "error", err)
		writeJSON(w, http.StatusOK, importResponse{NewCategories: []string{}})
		return
	}

	s.finishImport(w, r, result)
}

// handleImportSheets pulls the configured Google Sheets range.
func (s *Server) handleImportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		writeError(w, http.StatusNotImplemented, "sheets import is not configured")
		return
	}

	result, err := s.sheets.Fetch(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "sheets fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not read spreadsheet")
		return
	}

	s.finishImport(w, r, result)
}

func (s *Server) finishImport(w http.ResponseWriter, r *http.Request, result importer.Result) {
	resp := importResponse{
		Imported:      result.Imported,
		Skipped:       result.Skipped,
		TotalRows:     result.TotalRows,
		NewCategories: result.Categories,
	}
	if resp.NewCategories == nil {
		resp.NewCategories = []string{}
	}
	if len(result.Transactions) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx := r.Context()
	if err := s.store.EnsureCategories(ctx, result.Categories); err != nil {
		s.logger.ErrorContext(ctx, "register imported categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	ids, err := s.store.AddTransactions(ctx, result.Transactions)
	if err != nil {
		s.logger.ErrorContext(ctx, "save imported transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("transaction.import")
	s.metrics.CountImport(result.Imported, result.Skipped)
	s.publisher.Publish(ctx, events.TransactionsAdded, userFrom(ctx).ID, ids...)

	s.logger.InfoContext(ctx, "import completed",
		"imported", result.Imported, "skipped", result.Skipped)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	name := export.FileName(time.Now().Format(core.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteCSV(w, txs); err != nil {
		s.logger.ErrorContext(r.Context(), "export write failed", "error", err)
	}
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.store.Export(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "backup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="marketflow-backup.json"`)
	writeJSON(w, http.StatusOK, snapshot)
}

// handleRestore replaces the whole dataset from a snapshot. The upload is
// validated in full before anything is touched: a snapshot that fails
// validation leaves current data exactly as it was.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var snapshot store.Snapshot
	if err := decodeJSON(r, &snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "malformed snapshot")
		return
	}
	if snapshot.Version != store.SnapshotVersion {
		writeError(w, http.StatusBadRequest, "unsupported snapshot version")
		return
	}
	if snapshot.Transactions == nil || snapshot.Categories == nil {
		writeError(w, http.StatusBadRequest, "snapshot is missing collections")
		return
	}

	users := make([]core.User, 0, len(snapshot.Users))
	for _, u := range snapshot.Users {
		restored := u.Restorable()
		if err := restored.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user in snapshot: "+err.Error())
			return
		}
		users = append(users, restored)
	}
	if len(users) == 0 {
		// A dataset without users would lock everyone out.
		writeError(w, http.StatusBadRequest, "snapshot has no users")
		return
	}

	if err := s.store.ReplaceAll(r.Context(), users, snapshot.Transactions, snapshot.Categories); err != nil {
		s.logger.ErrorContext(r.Context(), "restore failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("data.restore")
	s.publisher.Publish(r.Context(), events.DataRestored, userFrom(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}
