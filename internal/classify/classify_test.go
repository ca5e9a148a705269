package classify

import (
	"reflect"
	"testing"
)

// TestDetectLanguageScripts verifies each supported script resolves to its
// language and unrecognised text falls back to the default.
func TestDetectLanguageScripts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"kannada script", "ಧನ್ಯವಾದ", "kannada"},
		{"devanagari script", "धन्यवाद", "hindi"},
		{"latin text", "thank you", "en"},
		{"empty", "", "en"},
		{"mixed latin and devanagari", "ok धन्यवाद", "hindi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// TestDetectLanguageIdempotent runs detection twice on the same input.
func TestDetectLanguageIdempotent(t *testing.T) {
	for _, text := range []string{"ಧನ್ಯವಾದ", "धन्यवाद", "hello", ""} {
		first := DetectLanguage(text)
		second := DetectLanguage(text)
		if first != second {
			t.Errorf("DetectLanguage(%q) not idempotent: %q then %q", text, first, second)
		}
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I am done with the task", "completion"},
		{"I am confused about this", "confusion"},
		{"does my insurance cover this", "insurance_query"},
		{"how do I pay via UPI", "confusion"}, // "how" matches confusion first
		{"upi transfer please", "payment_question"},
		{"please backup my data", "backup_request"},
		{"unsubscribe me", "opt_out"},
		{"random gibberish xyz", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := ClassifyIntent(tt.text); got != tt.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

// TestClassifyIntentFirstMatchWins checks that declaration order breaks
// ties when a text matches multiple rule keyword sets.
func TestClassifyIntentFirstMatchWins(t *testing.T) {
	// "done" (completion) and "stop" (opt_out) both match; completion is declared first.
	if got := ClassifyIntent("done, now stop sending these"); got != "completion" {
		t.Errorf("expected completion to win over opt_out, got %q", got)
	}
	// "insurance" (insurance_query) and "payment" (payment_question) both match.
	if got := ClassifyIntent("insurance payment query"); got != "insurance_query" {
		t.Errorf("expected insurance_query to win over payment_question, got %q", got)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"this is great, thank you", SentimentPositive},
		{"this is terrible", SentimentNegative},
		{"I am confused", SentimentConfused},
		{"salary will be credited", SentimentNeutral},
	}
	for _, tt := range tests {
		if got := AnalyzeSentiment(tt.text); got != tt.want {
			t.Errorf("AnalyzeSentiment(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

// TestSentimentConfusedBeatsOthers verifies bucket priority: confused wins
// even when negative and positive keywords are also present.
func TestSentimentConfusedBeatsOthers(t *testing.T) {
	text := "I am confused and angry but thank you"
	if got := AnalyzeSentiment(text); got != SentimentConfused {
		t.Errorf("AnalyzeSentiment(%q) = %q, want confused", text, got)
	}
}

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"my salary payment is due", []string{"payment"}},
		{"I need a day off and my id card", []string{"leave", "document"}},
		{"thanks for the insurance info", []string{"gratitude", "insurance"}},
		{"nothing relevant here", nil},
	}
	for _, tt := range tests {
		got := ExtractEntities(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractEntities(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

// TestExtractEntitiesNoDuplicates: a text matching the same pattern many
// times yields the tag once.
func TestExtractEntitiesNoDuplicates(t *testing.T) {
	got := ExtractEntities("payment payment salary upi amount")
	if !reflect.DeepEqual(got, []string{"payment"}) {
		t.Errorf("expected single payment tag, got %v", got)
	}
}

func TestRespond(t *testing.T) {
	// Exact (intent, language) hit.
	if got := Respond("completion", "hindi", "Sarah"); got == "" {
		t.Error("expected non-empty hindi completion response")
	}
	// Unknown language falls back to the English entry for the intent.
	en := Respond("completion", "en", "Sarah")
	if got := Respond("completion", "klingon", "Sarah"); got != en {
		t.Errorf("expected fallback to English entry, got %q", got)
	}
	// Unknown intent falls back to the generic acknowledgement.
	if got := Respond("no_such_intent", "en", "Sarah"); got != "Thank you for your response, Sarah!" {
		t.Errorf("unexpected generic response: %q", got)
	}
	// Empty name still yields a usable reply.
	if got := Respond("completion", "en", ""); got == "" {
		t.Error("expected non-empty response for empty user name")
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		intent    string
		sentiment string
		want      float64
	}{
		{"completion", SentimentNeutral, 0.8},
		{IntentOther, SentimentNeutral, 0.6},
		{"completion", SentimentConfused, 0.7},
		{"completion", SentimentNegative, 0.7},
		{IntentOther, SentimentNegative, 0.5},
	}
	for _, tt := range tests {
		if got := Confidence(tt.intent, tt.sentiment); got != tt.want {
			t.Errorf("Confidence(%q, %q) = %v, want %v", tt.intent, tt.sentiment, got, tt.want)
		}
	}
}

// TestEscalationInvariant: requires_escalation must equal
// confidence < threshold || sentiment == negative, for every input.
func TestEscalationInvariant(t *testing.T) {
	c := New(0)
	texts := []string{
		"I am done with the task",
		"this is terrible and I hate it",
		"confused about the payment",
		"random text with no keywords",
		"great, thank you so much",
	}
	for _, text := range texts {
		res := c.Classify(text, "", "User")
		want := res.Confidence < DefaultEscalationThreshold || res.Sentiment == SentimentNegative
		if res.RequiresEscalation != want {
			t.Errorf("escalation invariant broken for %q: got %v, confidence=%v sentiment=%q",
				text, res.RequiresEscalation, res.Confidence, res.Sentiment)
		}
	}
}

// TestClassifyDeterministic: classifying identical input twice yields an
// identical Result.
func TestClassifyDeterministic(t *testing.T) {
	c := New(0)
	first := c.Classify("I am confused about my salary payment", "", "Sarah")
	second := c.Classify("I am confused about my salary payment", "", "Sarah")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify not deterministic:\n%+v\n%+v", first, second)
	}
}

// TestClassifyDeclaredLanguage: a declared language overrides detection.
func TestClassifyDeclaredLanguage(t *testing.T) {
	c := New(0)
	res := c.Classify("thank you, all done", "nepali", "Sarah")
	if res.Language != "nepali" {
		t.Errorf("declared language ignored: got %q", res.Language)
	}
}
