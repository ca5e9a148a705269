package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAnalyzeCommandRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /analyze": `{"language":"en","intent":"completion","sentiment":"positive","confidence":0.8,"suggested_response":"Thank you for confirming.","requires_escalation":false}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/analyze", map[string]string{
		"text":     "I am done with the payment",
		"language": "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Language           string  `json:"language"`
		Intent             string  `json:"intent"`
		Confidence         float64 `json:"confidence"`
		RequiresEscalation bool    `json:"requires_escalation"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if result.Intent != "completion" {
		t.Errorf("intent = %q, want completion", result.Intent)
	}
	if result.Confidence < 0.7 {
		t.Errorf("confidence = %f, want >= 0.7", result.Confidence)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["text"] != "I am done with the payment" {
		t.Errorf("body.text = %v", body["text"])
	}
}

func TestSendCommand_MissingFlags(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"send"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing flags")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestWorkflowStartRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /workflows/wf-1/start": `{"id":"inst-1","workflow_id":"wf-1","user_id":"user-1","current_step":1,"status":"in_progress"}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/workflows/wf-1/start", map[string]string{"user_id": "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var inst struct {
		ID          string `json:"id"`
		CurrentStep int    `json:"current_step"`
		Status      string `json:"status"`
	}
	if err := decodeJSON(resp, &inst); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if inst.ID != "inst-1" {
		t.Errorf("id = %q, want inst-1", inst.ID)
	}
	if inst.CurrentStep != 1 {
		t.Errorf("current_step = %d, want 1", inst.CurrentStep)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["user_id"] != "user-1" {
		t.Errorf("body.user_id = %v, want user-1", body["user_id"])
	}
}

func TestWorkflowExecuteTerminalError(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	ts.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(409)
		w.Write([]byte(`{"error":{"message":"instance is in a terminal state","type":"terminal_state_error"}}`))
	})

	client := ts.client()
	resp, err := client.post(ctx, "/instances/inst-9/execute", nil)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var out any
	err = decodeJSON(resp, &out)
	if err == nil {
		t.Fatal("expected error for 409 response")
	}
	if !strings.Contains(err.Error(), "terminal") {
		t.Errorf("error = %q, want it to mention the terminal state", err.Error())
	}
}

func TestConversationsLimitQuery(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /conversations": `[{"id":"c1","direction":"inbound","content":"hello"}]`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/conversations?limit=5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var entries []map[string]any
	if err := decodeJSON(resp, &entries); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if got := ts.requests[0].Path; !strings.Contains(got, "limit=5") {
		t.Errorf("path = %q, want limit=5 in query", got)
	}
}

func TestServerNotReachable(t *testing.T) {
	client := &apiClient{
		baseURL:    "http://127.0.0.1:1",
		token:      "test-token",
		httpClient: &http.Client{},
	}

	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention the server is not reachable", err.Error())
	}
}
