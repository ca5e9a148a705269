package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kalambet/relay/internal/dispatch"
	"github.com/kalambet/relay/internal/engine"
)

// handleWebhookVerify answers Meta's subscription handshake: echo the
// challenge when the verify token matches.
func handleWebhookVerify(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != deps.VerifyToken || deps.VerifyToken == "" {
			httpError(w, http.StatusForbidden, "verification_error", "verify token mismatch")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(q.Get("hub.challenge")))
	}
}

// webhookPayload mirrors the shape of Meta's webhook notifications,
// reduced to the fields the hub consumes.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"audio"`
}

// handleWebhookEvent ingests inbound WhatsApp messages. Meta retries on
// non-2xx, so unknown senders and handler failures are acknowledged
// with 200 after logging; only malformed payloads get a 400.
func handleWebhookEvent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid webhook payload: %v", err)
			return
		}

		received := 0
		for _, entry := range payload.Entry {
			for _, change := range entry.Changes {
				for _, m := range change.Value.Messages {
					msg := engine.InboundMessage{
						From:    m.From,
						Channel: dispatch.ChannelWhatsApp,
						Text:    m.Text.Body,
					}
					if m.Type == "audio" {
						msg.IsAudio = true
						msg.AudioURL = m.Audio.URL
						if msg.AudioURL == "" {
							msg.AudioURL = m.Audio.ID
						}
					}

					_, err := deps.Engine.HandleInbound(r.Context(), msg)
					if errors.Is(err, engine.ErrUnknownSender) {
						continue
					}
					if err != nil {
						slog.Error("webhook message handling failed", "from", m.From, "error", err)
						continue
					}
					received++
				}
			}
		}

		writeJSON(w, map[string]any{"status": "received", "messages": received})
	}
}
