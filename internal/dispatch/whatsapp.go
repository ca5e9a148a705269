package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	graphBaseURL   = "https://graph.facebook.com/v20.0"
	defaultTimeout = 15 * time.Second
)

// WhatsAppSender delivers text messages via the Meta Graph API.
type WhatsAppSender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

// NewWhatsAppSender creates a Graph API sender. Returns a Sender; when
// accessToken or phoneNumberID is empty the returned sender is the
// simulated one so workflows still progress without live credentials.
func NewWhatsAppSender(accessToken, phoneNumberID string) Sender {
	if accessToken == "" || phoneNumberID == "" {
		slog.Warn("whatsapp credentials missing, using simulated sender")
		return Simulated{Channel: ChannelWhatsApp}
	}
	return &WhatsAppSender{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       graphBaseURL,
		httpClient:    &http.Client{Timeout: defaultTimeout},
	}
}

// NewWhatsAppSenderWithBaseURL points the sender at a custom base URL (for testing).
func NewWhatsAppSenderWithBaseURL(accessToken, phoneNumberID, baseURL string) *WhatsAppSender {
	return &WhatsAppSender{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: defaultTimeout},
	}
}

type whatsAppPayload struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

func (s *WhatsAppSender) Send(ctx context.Context, msg Message) Outcome {
	payload := whatsAppPayload{
		MessagingProduct: "whatsapp",
		To:               msg.Recipient,
		Type:             "text",
		Text:             whatsAppTextBody{Body: msg.Content},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("marshaling payload: %v", err)}
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("executing request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Outcome{Detail: fmt.Sprintf("graph api status %d: %s", resp.StatusCode, string(respBody))}
	}

	return Outcome{Delivered: true}
}
