package conversation

import "strings"

// languageCodes maps the language names offered by the client to ISO-639-1.
var languageCodes = map[string]string{
	"german":     "de",
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
	"turkish":    "tr",
	"greek":      "el",
	"dutch":      "nl",
	"polish":     "pl",
}

// LanguageCode converts a language name (or an ISO-639-1 code) to its
// ISO-639-1 code. Unknown names default to "en".
func LanguageCode(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) == 2 {
		return n
	}
	if code, ok := languageCodes[n]; ok {
		return code
	}
	return "en"
}
