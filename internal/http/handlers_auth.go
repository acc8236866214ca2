package http

import (
	"errors"
	"net/http"
	"strings"

	"marketflow/internal/auth"
	"marketflow/internal/core"
	"marketflow/internal/store"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := s.authn.Authenticate(r.Context(), strings.TrimSpace(req.Login), req.Password)
	if err != nil {
		// Same answer for unknown login and wrong password.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type addUserRequest struct {
	Name        string           `json:"name"`
	Login       string           `json:"login"`
	Password    string           `json:"password"`
	Role        core.Role        `json:"role"`
	Permissions core.Permissions `json:"permissions"`
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.authn.ValidateCredential(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := core.User{
		Name:         sanitizeInput(req.Name),
		Login:        sanitizeInput(req.Login),
		PasswordHash: hash,
		Role:         req.Role,
		Permissions:  req.Permissions,
	}
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.AddUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrLoginExists) {
			writeError(w, http.StatusConflict, "login already taken")
			return
		}
		s.logger.ErrorContext(r.Context(), "add user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.metrics.CountMutation("user.add")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	acting := userFrom(r.Context())

	err := s.store.DeleteUser(r.Context(), id, acting.ID)
	switch {
	case errors.Is(err, store.ErrSelfDelete):
		writeError(w, http.StatusConflict, "cannot delete your own account")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "delete user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.metrics.CountMutation("user.delete")
	w.WriteHeader(http.StatusNoContent)
}
