package speech

import "context"

// Simulated is the default Service when no speech endpoint is
// configured. It returns canned results so audio paths stay exercisable
// in development and tests.
type Simulated struct{}

func (Simulated) Transcribe(ctx context.Context, audioURL, language string) (Transcription, error) {
	if language == "" {
		language = "en"
	}
	return Transcription{
		Text:       "This is a simulated transcription of the audio message.",
		Language:   language,
		Confidence: 0.88,
	}, nil
}

func (Simulated) Synthesize(ctx context.Context, text, language string) (Synthesis, error) {
	if language == "" {
		language = "en"
	}
	return Synthesis{
		AudioURL: "data:audio/wav;base64,UklGRiQAAABXQVZF",
		Duration: float64(len(text)) / 15.0,
		Language: language,
	}, nil
}
