// Package api exposes the hub over HTTP: an authenticated management
// API for users, templates, workflows and notifications, plus the
// unauthenticated WhatsApp webhook endpoints Meta calls directly.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/relay/internal/classify"
	"github.com/kalambet/relay/internal/engine"
	"github.com/kalambet/relay/internal/speech"
	"github.com/kalambet/relay/internal/storage"
)

type AppDeps struct {
	Store       *storage.Store
	Engine      *engine.Engine
	Classifier  *classify.Classifier
	Speech      speech.Service
	Token       string
	VerifyToken string // WhatsApp webhook verification token
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	// Meta calls the webhook without bearer credentials; it carries its
	// own verify token instead.
	r.Get("/webhook/whatsapp", handleWebhookVerify(deps))
	r.Post("/webhook/whatsapp", handleWebhookEvent(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/users", handleListUsers(deps))
		r.Post("/users", handleCreateUser(deps))
		r.Get("/users/{id}", handleGetUser(deps))

		r.Get("/templates", handleListTemplates(deps))
		r.Post("/templates", handleCreateTemplate(deps))
		r.Get("/templates/{id}", handleGetTemplate(deps))

		r.Get("/workflows", handleListWorkflows(deps))
		r.Post("/workflows", handleCreateWorkflow(deps))
		r.Get("/workflows/{id}", handleGetWorkflow(deps))
		r.Post("/workflows/{id}/start", handleStartWorkflow(deps))
		r.Get("/instances", handleListInstances(deps))
		r.Post("/instances/{id}/execute", handleExecuteStep(deps))

		r.Get("/notifications", handleListNotifications(deps))
		r.Post("/notifications/send", handleSendNotification(deps))
		r.Get("/conversations", handleListConversations(deps))
		r.Post("/messages/inbound", handleSimulateInbound(deps))

		r.Post("/analyze", handleAnalyze(deps))
		r.Post("/speech/transcribe", handleTranscribe(deps))
		r.Post("/speech/synthesize", handleSynthesize(deps))

		r.Get("/analytics", handleAnalytics(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
