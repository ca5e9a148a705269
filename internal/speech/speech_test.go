package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientFallsBackWithoutBaseURL(t *testing.T) {
	s := NewClient("", "")
	if _, ok := s.(Simulated); !ok {
		t.Fatalf("got %T, want Simulated", s)
	}
}

func TestClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("authorization = %q", auth)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req["audio_url"] != "https://cdn.example.com/a.ogg" {
			t.Errorf("audio_url = %q", req["audio_url"])
		}
		json.NewEncoder(w).Encode(Transcription{Text: "payment done", Language: "en", Confidence: 0.93})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1")
	tr, err := c.Transcribe(context.Background(), "https://cdn.example.com/a.ogg", "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "payment done" || tr.Confidence != 0.93 {
		t.Errorf("got %+v", tr)
	}
}

func TestClientSynthesizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Synthesize(context.Background(), "hello", "en")
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q does not carry status", err)
	}
}

func TestSimulatedDefaultsLanguage(t *testing.T) {
	tr, err := Simulated{}.Transcribe(context.Background(), "u", "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Language != "en" {
		t.Errorf("language = %q, want en", tr.Language)
	}

	syn, err := Simulated{}.Synthesize(context.Background(), "hello there", "kannada")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if syn.Language != "kannada" || syn.AudioURL == "" {
		t.Errorf("got %+v", syn)
	}
}
