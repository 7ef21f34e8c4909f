package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// SupportedLocales lists the locales with bundled messages and mail templates.
// The first entry is the fallback.
var SupportedLocales = []language.Tag{language.French, language.English}

var localeMatcher = language.NewMatcher(SupportedLocales)

// MatchLocale resolves a BCP 47 tag such as "en-GB" to the closest supported
// base language, returning "fr" when nothing matches.
func MatchLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return baseOf(SupportedLocales[0])
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return baseOf(SupportedLocales[0])
	}

	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return baseOf(SupportedLocales[0])
	}
	return baseOf(SupportedLocales[index])
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
