// Package classify turns raw inbound message text into a structured
// signal: language, intent, sentiment, confidence, entity tags and an
// escalation flag. The pipeline is pure and deterministic: identical
// input always produces an identical Result.
package classify

// DefaultEscalationThreshold is the confidence floor below which a
// message is handed off to a human.
const DefaultEscalationThreshold = 0.7

const (
	baseConfidence      = 0.8
	catchAllPenalty     = 0.2
	badSentimentPenalty = 0.1
)

// Result is the structured output of the classification pipeline.
type Result struct {
	Language           string   `json:"language"`
	Intent             string   `json:"intent"`
	Sentiment          string   `json:"sentiment"`
	Confidence         float64  `json:"confidence"`
	Entities           []string `json:"entities"`
	SuggestedResponse  string   `json:"suggested_response"`
	RequiresEscalation bool     `json:"requires_escalation"`
}

// Classifier runs the full pipeline. The zero value is not usable;
// construct with New.
type Classifier struct {
	threshold float64
}

// New returns a Classifier with the given escalation threshold.
// A threshold <= 0 falls back to DefaultEscalationThreshold.
func New(threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultEscalationThreshold
	}
	return &Classifier{threshold: threshold}
}

// Classify analyses text and returns the structured Result. When
// declaredLanguage is non-empty it overrides script detection; the
// auto-response is personalised with userName.
func (c *Classifier) Classify(text, declaredLanguage, userName string) Result {
	language := declaredLanguage
	if language == "" {
		language = DetectLanguage(text)
	}

	intent := ClassifyIntent(text)
	sentiment := AnalyzeSentiment(text)
	confidence := Confidence(intent, sentiment)

	return Result{
		Language:           language,
		Intent:             intent,
		Sentiment:          sentiment,
		Confidence:         confidence,
		Entities:           ExtractEntities(text),
		SuggestedResponse:  Respond(intent, language, userName),
		RequiresEscalation: confidence < c.threshold || sentiment == SentimentNegative,
	}
}

// Confidence is a pure function of (intent, sentiment): a base constant
// lowered for the catch-all intent and lowered further for confused or
// negative sentiment.
func Confidence(intent, sentiment string) float64 {
	confidence := baseConfidence
	if intent == IntentOther {
		confidence -= catchAllPenalty
	}
	if sentiment == SentimentConfused || sentiment == SentimentNegative {
		confidence -= badSentimentPenalty
	}
	return confidence
}
