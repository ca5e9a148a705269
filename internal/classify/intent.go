package classify

import "strings"

// IntentOther is the catch-all intent when no rule matches.
const IntentOther = "other"

// intentRule pairs an intent with the keywords that signal it.
// Rules are evaluated in declaration order and the first rule with
// any substring match wins, so more specific intents must come first.
type intentRule struct {
	intent   string
	keywords []string
}

var intentRules = []intentRule{
	{intent: "completion", keywords: []string{"done", "completed", "finished", "ready", "ok", "yes", "done with", "completed task"}},
	{intent: "confusion", keywords: []string{"confused", "not understand", "explain", "help", "don't get it", "unclear", "what", "how"}},
	{intent: "insurance_query", keywords: []string{"insurance", "cover", "policy", "claim", "health", "protection"}},
	{intent: "payment_question", keywords: []string{"upi", "payment", "transfer", "money", "how to pay", "gpay", "phone pay"}},
	{intent: "backup_request", keywords: []string{"backup", "storage", "data", "save", "cloud"}},
	{intent: "opt_out", keywords: []string{"stop", "unsubscribe", "remove", "no more", "don't send", "opt out"}},
}

// ClassifyIntent returns the first intent whose keyword set matches a
// substring of text (case-insensitive), or IntentOther.
func ClassifyIntent(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return IntentOther
}
