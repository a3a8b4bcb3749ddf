package indicator

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

type messages struct {
	opening   string
	errorText string
}

var (
	catalogTags = []language.Tag{language.English, language.German, language.French, language.Spanish}
	catalog     = []messages{
		{opening: "Opening files...", errorText: "Could not open file"},
		{opening: "Dateien werden geöffnet...", errorText: "Datei konnte nicht geöffnet werden"},
		{opening: "Ouverture des fichiers...", errorText: "Impossible d'ouvrir le fichier"},
		{opening: "Abriendo archivos...", errorText: "No se pudo abrir el archivo"},
	}
	matcher = language.NewMatcher(catalogTags)
)

// indicatorMessagesFromEnv picks the catalog from the POSIX locale variables
// in precedence order.
func indicatorMessagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := os.Getenv(key); strings.TrimSpace(raw) != "" {
			return indicatorMessages(raw)
		}
	}
	return catalog[0]
}

// indicatorMessages maps a locale such as "de_DE.UTF-8" onto the closest
// catalog entry, falling back to English.
func indicatorMessages(locale string) messages {
	tag, err := language.Parse(localeTag(locale))
	if err != nil {
		return catalog[0]
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return catalog[0]
	}
	return catalog[index]
}

func localeTag(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "C" || locale == "POSIX" {
		return "en"
	}
	return strings.ReplaceAll(locale, "_", "-")
}
