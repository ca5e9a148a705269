package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kalambet/relay/internal/engine"
	"github.com/kalambet/relay/internal/storage"
)

func handleListNotifications(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)

		notifications, err := deps.Store.ListNotifications(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list notifications: %v", err)
			return
		}
		if notifications == nil {
			notifications = []storage.Notification{}
		}
		writeJSON(w, notifications)
	}
}

type SendNotificationRequest struct {
	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id"`
}

// handleSendNotification dispatches one template to one user outside of
// any workflow. The notification record follows the same
// pending-then-terminal lifecycle as workflow sends.
func handleSendNotification(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req SendNotificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" || req.TemplateID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id and template_id are required")
			return
		}

		notification, err := deps.Engine.SendDirect(r.Context(), req.UserID, req.TemplateID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown user or template")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to send notification: %v", err)
			return
		}

		writeJSON(w, notification)
	}
}

func handleListConversations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)

		conversations, err := deps.Store.ListConversations(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list conversations: %v", err)
			return
		}
		if conversations == nil {
			conversations = []storage.Conversation{}
		}
		writeJSON(w, conversations)
	}
}

type SimulateInboundRequest struct {
	From     string `json:"from"`
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	IsAudio  bool   `json:"is_audio"`
	AudioURL string `json:"audio_url"`
}

// handleSimulateInbound records an inbound message as if it arrived on
// a channel webhook. Useful for driving check_response steps in
// development.
func handleSimulateInbound(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req SimulateInboundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.From == "" || (req.Text == "" && !req.IsAudio) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "from and text are required")
			return
		}
		if req.Channel == "" {
			req.Channel = "whatsapp"
		}

		res, err := deps.Engine.HandleInbound(r.Context(), engine.InboundMessage{
			From:     req.From,
			Channel:  req.Channel,
			Text:     req.Text,
			IsAudio:  req.IsAudio,
			AudioURL: req.AudioURL,
		})
		if errors.Is(err, engine.ErrUnknownSender) {
			httpError(w, http.StatusNotFound, "not_found", "no user registered for %q", req.From)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to handle message: %v", err)
			return
		}

		writeJSON(w, res)
	}
}
