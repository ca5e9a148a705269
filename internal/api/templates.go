package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/relay/internal/dispatch"
	"github.com/kalambet/relay/internal/storage"
)

type CreateTemplateRequest struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Language  string   `json:"language"`
	Content   string   `json:"content"`
	Subject   string   `json:"subject"`
	Variables []string `json:"variables"`
	Channel   string   `json:"channel"`
}

func handleCreateTemplate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req CreateTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Name == "" || req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name and content are required")
			return
		}
		if req.Channel == "" {
			req.Channel = dispatch.ChannelWhatsApp
		}

		variablesJSON := "[]"
		if req.Variables != nil {
			b, err := json.Marshal(req.Variables)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to marshal variables: %v", err)
				return
			}
			variablesJSON = string(b)
		}

		tmpl := storage.Template{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Type:      req.Type,
			Language:  req.Language,
			Content:   req.Content,
			Subject:   req.Subject,
			Variables: variablesJSON,
			Channel:   req.Channel,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.CreateTemplate(tmpl); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create template: %v", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, tmpl)
	}
}

func handleListTemplates(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)

		templates, err := deps.Store.ListTemplates(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list templates: %v", err)
			return
		}
		if templates == nil {
			templates = []storage.Template{}
		}
		writeJSON(w, templates)
	}
}

func handleGetTemplate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		tmpl, err := deps.Store.GetTemplate(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "template not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get template: %v", err)
			return
		}
		writeJSON(w, tmpl)
	}
}
