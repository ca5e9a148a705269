package api

import (
	"encoding/json"
	"net/http"
)

type AnalyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	UserName string `json:"user_name"`
}

// handleAnalyze runs the classification pipeline on a piece of text
// without recording anything.
func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		writeJSON(w, deps.Classifier.Classify(req.Text, req.Language, req.UserName))
	}
}

type TranscribeRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language"`
}

func handleTranscribe(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req TranscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.AudioURL == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "audio_url is required")
			return
		}

		tr, err := deps.Speech.Transcribe(r.Context(), req.AudioURL, req.Language)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "transcription failed: %v", err)
			return
		}
		writeJSON(w, tr)
	}
}

type SynthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func handleSynthesize(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req SynthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		syn, err := deps.Speech.Synthesize(r.Context(), req.Text, req.Language)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "synthesis failed: %v", err)
			return
		}
		writeJSON(w, syn)
	}
}

func handleAnalytics(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := deps.Store.Analytics()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compute analytics: %v", err)
			return
		}
		writeJSON(w, snapshot)
	}
}
