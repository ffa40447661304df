package prompt

import (
	"strings"
	"unicode"
)

const (
	LangEnglish = "en"
	LangBengali = "bn"
)

// DetectLanguage returns the declared language when set, otherwise "bn" when
// the message contains Bengali script and "en" for everything else.
func DetectLanguage(declared, message string) string {
	if d := strings.ToLower(strings.TrimSpace(declared)); d != "" {
		return d
	}
	for _, r := range message {
		if unicode.Is(unicode.Bengali, r) {
			return LangBengali
		}
	}
	return LangEnglish
}

// LanguageName returns the display name used in instructions.
func LanguageName(code string) string {
	switch code {
	case LangBengali:
		return "Bengali (Bangla)"
	case LangEnglish, "":
		return "English"
	}
	return code
}
