package classify

import "regexp"

// entityPatterns tag messages with domain entities. Patterns run in
// declaration order and every match is collected, duplicates suppressed.
var entityPatterns = []struct {
	entity  string
	pattern *regexp.Regexp
}{
	{"payment", regexp.MustCompile(`(?i)salary|payment|rupees|amount|upi`)},
	{"leave", regexp.MustCompile(`(?i)leave|day off|vacation|holiday`)},
	{"document", regexp.MustCompile(`(?i)document|certificate|proof|id card|aadhar`)},
	{"gratitude", regexp.MustCompile(`(?i)thanks|thank you|dhanyavad|shukriya`)},
	{"insurance", regexp.MustCompile(`(?i)insurance`)},
}

// ExtractEntities returns every entity tag whose pattern matches text,
// in pattern declaration order.
func ExtractEntities(text string) []string {
	var entities []string
	seen := make(map[string]bool)
	for _, ep := range entityPatterns {
		if seen[ep.entity] {
			continue
		}
		if ep.pattern.MatchString(text) {
			entities = append(entities, ep.entity)
			seen[ep.entity] = true
		}
	}
	return entities
}
