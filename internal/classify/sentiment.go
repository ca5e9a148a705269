package classify

import "strings"

// Sentiment labels, in bucket priority order.
const (
	SentimentConfused = "confused"
	SentimentNegative = "negative"
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
)

// sentimentBuckets are checked in order: confused beats negative beats
// positive. Text matching no bucket is neutral.
var sentimentBuckets = []struct {
	sentiment string
	keywords  []string
}{
	{SentimentConfused, []string{"confused", "unclear", "don't understand", "help", "explain"}},
	{SentimentNegative, []string{"bad", "terrible", "hate", "angry", "frustrated", "upset"}},
	{SentimentPositive, []string{"good", "great", "excellent", "thank", "love", "happy", "perfect"}},
}

// AnalyzeSentiment buckets text into confused, negative, positive or neutral.
func AnalyzeSentiment(text string) string {
	lower := strings.ToLower(text)
	for _, b := range sentimentBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.sentiment
			}
		}
	}
	return SentimentNeutral
}
