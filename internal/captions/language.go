package captions

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageLabel maps a BCP 47 language code to the lowercase English name of
// its base language, used in canonical caption keys ("en-US" -> "english").
// Unparseable codes fall back to the lowercased code itself.
func LanguageLabel(code string) string {
	trimmed := strings.TrimSpace(code)
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}
	base, _ := tag.Base()
	name := display.English.Languages().Name(language.Make(base.String()))
	if name == "" {
		return strings.ToLower(trimmed)
	}
	return strings.ToLower(name)
}
