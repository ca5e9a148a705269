// Package speech is the boundary to an external transcription and
// synthesis service. The hub never computes speech itself: with no
// service configured the simulated implementation keeps audio-bearing
// workflows testable end to end.
package speech

import "context"

// Transcription is the result of converting audio to text.
type Transcription struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Synthesis is the result of converting text to audio.
type Synthesis struct {
	AudioURL string  `json:"audio_url"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

// Transcriber converts an audio reference into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) (Transcription, error)
}

// Synthesizer renders text as audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (Synthesis, error)
}

// Service bundles both capabilities.
type Service interface {
	Transcriber
	Synthesizer
}
