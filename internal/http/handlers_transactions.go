package http

import (
	"errors"
	"net/http"

	"marketflow/internal/core"
	"marketflow/internal/events"
	"marketflow/internal/store"
)

const listCacheKey = "all"

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if txs, ok := s.listCache.Get(listCacheKey); ok {
		writeJSON(w, http.StatusOK, txs)
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	s.listCache.Set(listCacheKey, txs)
	writeJSON(w, http.StatusOK, txs)
}

type addTransactionsRequest struct {
	Transactions []newTransaction `json:"transactions"`
}

type newTransaction struct {
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Kind        core.Kind `json:"type"`
}

// handleAddTransactions accepts a batch. The whole batch is validated first:
// either every record is saved or none is.
func (s *Server) handleAddTransactions(w http.ResponseWriter, r *http.Request) {
	var req addTransactionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "no transactions provided")
		return
	}

	user := userFrom(r.Context())
	items := make([]core.Transaction, 0, len(req.Transactions))
	for _, in := range req.Transactions {
		cents, err := core.ParseDecimalToCents(in.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount: "+in.Amount)
			return
		}
		t := core.Transaction{
			Date:        sanitizeInput(in.Date),
			Category:    sanitizeInput(in.Category),
			Description: sanitizeInput(in.Description),
			Amount:      core.Money{Cents: cents},
			Kind:        in.Kind,
			CreatedBy:   user.ID,
		}
		if err := t.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !core.IsAllowed(user, core.RequiredAction(t.Kind)) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		items = append(items, t)
	}

	ids, err := s.store.AddTransactions(r.Context(), items)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "add transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("transaction.add")
	s.publisher.Publish(r.Context(), events.TransactionsAdded, user.ID, ids...)
	writeJSON(w, http.StatusCreated, map[string][]string{"ids": ids})
}

type updateTransactionRequest struct {
	Date        *string    `json:"date"`
	Category    *string    `json:"category"`
	Description *string    `json:"description"`
	Amount      *string    `json:"amount"`
	Kind        *core.Kind `json:"type"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	existing, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "get transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Changing the kind needs the permission for both the old and new kind.
	user := userFrom(r.Context())
	if !core.IsAllowed(user, core.RequiredAction(existing.Kind)) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	patch := store.TransactionPatch{}
	if req.Date != nil {
		d := sanitizeInput(*req.Date)
		if _, ok := core.ParseDate(d); !ok {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		patch.Date = &d
	}
	if req.Category != nil {
		c := sanitizeInput(*req.Category)
		if c == "" {
			writeError(w, http.StatusBadRequest, "empty category")
			return
		}
		patch.Category = &c
	}
	if req.Description != nil {
		d := sanitizeInput(*req.Description)
		patch.Description = &d
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "invalid transaction kind")
			return
		}
		if !core.IsAllowed(user, core.RequiredAction(*req.Kind)) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		patch.Kind = req.Kind
	}

	if err := s.store.UpdateTransaction(r.Context(), id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "update transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("transaction.update")
	s.publisher.Publish(r.Context(), events.TransactionUpdated, user.ID, id)

	updated, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	user := userFrom(r.Context())

	existing, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deletes are idempotent.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.logger.ErrorContext(r.Context(), "get transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !core.IsAllowed(user, core.RequiredAction(existing.Kind)) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "delete transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("transaction.delete")
	s.publisher.Publish(r.Context(), events.TransactionsDeleted, user.ID, id)
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no ids provided")
		return
	}

	// The whole selection is permission-checked before anything is deleted.
	user := userFrom(r.Context())
	for _, id := range req.IDs {
		existing, err := s.store.GetTransaction(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			s.logger.ErrorContext(r.Context(), "get transaction failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !core.IsAllowed(user, core.RequiredAction(existing.Kind)) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
	}

	if err := s.store.BulkDelete(r.Context(), req.IDs); err != nil {
		s.logger.ErrorContext(r.Context(), "bulk delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateCaches()
	s.metrics.CountMutation("transaction.bulk_delete")
	s.publisher.Publish(r.Context(), events.TransactionsDeleted, user.ID, req.IDs...)
	w.WriteHeader(http.StatusNoContent)
}
