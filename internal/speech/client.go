package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

// Client talks to a remote speech service exposing JSON transcription
// and synthesis endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a Service backed by the remote endpoint, or the
// simulated Service when baseURL is empty.
func NewClient(baseURL, apiKey string) Service {
	if baseURL == "" {
		return Simulated{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Transcribe(ctx context.Context, audioURL, language string) (Transcription, error) {
	var out Transcription
	err := c.post(ctx, "/v1/transcriptions", map[string]string{
		"audio_url": audioURL,
		"language":  language,
	}, &out)
	if err != nil {
		return Transcription{}, fmt.Errorf("transcribing audio: %w", err)
	}
	return out, nil
}

func (c *Client) Synthesize(ctx context.Context, text, language string) (Synthesis, error) {
	var out Synthesis
	err := c.post(ctx, "/v1/speech", map[string]string{
		"text":     text,
		"language": language,
	}, &out)
	if err != nil {
		return Synthesis{}, fmt.Errorf("synthesizing speech: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
