package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/relay/internal/classify"
	"github.com/kalambet/relay/internal/storage"
)

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Language string `json:"language"`
}

func handleCreateUser(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Name == "" || req.Phone == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name and phone are required")
			return
		}
		if req.Language == "" {
			req.Language = classify.DefaultLanguage
		}

		now := time.Now().UTC()
		user := storage.User{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Role:      req.Role,
			Language:  req.Language,
			Status:    "active",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := deps.Store.CreateUser(user); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create user: %v", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, user)
	}
}

func handleListUsers(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)

		users, err := deps.Store.ListUsers(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list users: %v", err)
			return
		}
		if users == nil {
			users = []storage.User{}
		}
		writeJSON(w, users)
	}
}

func handleGetUser(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		user, err := deps.Store.GetUser(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get user: %v", err)
			return
		}
		writeJSON(w, user)
	}
}
