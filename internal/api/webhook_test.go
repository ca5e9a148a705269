package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kalambet/relay/internal/storage"
)

func TestWebhookVerify(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhook/whatsapp?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=12345", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "12345" {
		t.Errorf("challenge echo = %q, want 12345", rr.Body.String())
	}
}

func TestWebhookVerifyRejectsBadToken(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestWebhookInboundMessage(t *testing.T) {
	h, store := setupAppHandler(t)
	user := seedUser(t, store, "+919900112233")

	payload := `{"entry":[{"changes":[{"value":{"messages":[{"from":"+919900112233","type":"text","text":{"body":"I am done"}}]}}]}]}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/webhook/whatsapp", payload, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Messages int `json:"messages"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Messages != 1 {
		t.Errorf("messages = %d, want 1", resp.Messages)
	}

	convs, err := store.ListConversations(10)
	if err != nil {
		t.Fatalf("listing conversations: %v", err)
	}
	// One inbound entry plus the auto-response.
	if len(convs) != 2 {
		t.Fatalf("got %d ledger entries, want 2", len(convs))
	}

	var inbound *storage.Conversation
	for i := range convs {
		if convs[i].MessageType == storage.MessageInbound {
			inbound = &convs[i]
		}
	}
	if inbound == nil {
		t.Fatal("no inbound ledger entry recorded")
	}
	if inbound.UserID != user.ID {
		t.Errorf("inbound user = %q, want %q", inbound.UserID, user.ID)
	}
	if inbound.Intent != "completion" {
		t.Errorf("intent = %q, want completion", inbound.Intent)
	}
}

func TestWebhookUnknownSenderAcknowledged(t *testing.T) {
	h, store := setupAppHandler(t)

	payload := `{"entry":[{"changes":[{"value":{"messages":[{"from":"+910000000000","type":"text","text":{"body":"hi"}}]}}]}]}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/webhook/whatsapp", payload, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so Meta does not retry", rr.Code)
	}

	convs, err := store.ListConversations(10)
	if err != nil {
		t.Fatalf("listing conversations: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("unknown sender must not be recorded, got %d entries", len(convs))
	}
}

func TestWebhookAudioMessageTranscribed(t *testing.T) {
	h, store := setupAppHandler(t)
	seedUser(t, store, "+919900112233")

	payload := `{"entry":[{"changes":[{"value":{"messages":[{"from":"+919900112233","type":"audio","audio":{"id":"media-123"}}]}}]}]}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/webhook/whatsapp", payload, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	convs, err := store.ListConversations(10)
	if err != nil {
		t.Fatalf("listing conversations: %v", err)
	}

	var inbound *storage.Conversation
	for i := range convs {
		if convs[i].MessageType == storage.MessageInbound {
			inbound = &convs[i]
		}
	}
	if inbound == nil {
		t.Fatal("no inbound ledger entry recorded")
	}
	if !inbound.IsAudio {
		t.Error("entry not flagged as audio")
	}
	if inbound.AudioURL != "media-123" {
		t.Errorf("audio_url = %q, want media-123", inbound.AudioURL)
	}
	if inbound.Content == "" {
		t.Error("audio message has no transcribed content")
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	h, _ := setupAppHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/webhook/whatsapp", "{not json", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
