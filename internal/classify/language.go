package classify

// DefaultLanguage is returned when no supported script is recognised.
const DefaultLanguage = "en"

// scriptRange matches a Unicode code point interval to a language.
// Ranges are checked in declaration order; the first language whose
// range contains any rune of the text wins. Nepali shares the
// Devanagari block with Hindi and is listed after it, so Devanagari
// text resolves to Hindi unless the caller declared otherwise.
type scriptRange struct {
	language string
	lo, hi   rune
}

var scriptRanges = []scriptRange{
	{language: "kannada", lo: 0x0C80, hi: 0x0CFF},
	{language: "hindi", lo: 0x0900, hi: 0x097F},
	{language: "nepali", lo: 0x0900, hi: 0x097F},
}

// DetectLanguage returns the language of text based on its script.
// It is total (never fails) and idempotent: text with no recognisable
// script resolves to DefaultLanguage.
func DetectLanguage(text string) string {
	for _, sr := range scriptRanges {
		for _, r := range text {
			if r >= sr.lo && r <= sr.hi {
				return sr.language
			}
		}
	}
	return DefaultLanguage
}
