package http

import (
	"errors"
	"net/http"

	"marketflow/internal/core"
	"marketflow/internal/events"
	"marketflow/internal/store"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.store.AddCategory(r.Context(), sanitizeInput(req.Name)); err != nil {
		if errors.Is(err, store.ErrEmptyCategoryName) {
			writeError(w, http.StatusBadRequest, "empty category name")
			return
		}
		s.logger.ErrorContext(r.Context(), "add category failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("category.add")
	s.publisher.Publish(r.Context(), events.CategoriesChanged, userFrom(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}

type renameCategoryRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type renameCategoryResponse struct {
	Merged bool `json:"merged"`
}

// handleRenameCategory renames a category and rewrites every transaction
// carrying the old name. Renaming onto an existing category merges the two.
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req renameCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	from := sanitizeInput(req.From)
	to := sanitizeInput(req.To)
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "both from and to are required")
		return
	}

	merged, err := s.store.RenameCategory(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "rename category failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("category.rename")
	s.publisher.Publish(r.Context(), events.CategoriesChanged, userFrom(r.Context()).ID)
	writeJSON(w, http.StatusOK, renameCategoryResponse{Merged: merged})
}

// handleRemoveCategory drops a category from the configured set. Transactions
// keep the name; they show up in the orphan report instead.
func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing category name")
		return
	}

	if err := s.store.RemoveCategory(r.Context(), name); err != nil {
		s.logger.ErrorContext(r.Context(), "remove category failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("category.remove")
	s.publisher.Publish(r.Context(), events.CategoriesChanged, userFrom(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleOrphanedCategories lists transactions whose category is no longer in
// the configured set.
func (s *Server) handleOrphanedCategories(w http.ResponseWriter, r *http.Request) {
	orphans, err := s.store.OrphanedCategories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "orphan check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if orphans == nil {
		orphans = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, orphans)
}
