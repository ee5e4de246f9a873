package razerdoctor

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator maps an English user-facing string to its localized form.
type Translator func(string) string

// Identity returns s unchanged. It is the default [Translator].
func Identity(s string) string {
	return s
}

// NewCatalogTranslator returns a [Translator] for lang backed by messages,
// a table from English source string to translation. Strings missing from
// the table are returned unchanged.
func NewCatalogTranslator(lang string, messages map[string]string) (Translator, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range messages {
		// Messages are printf formats; keep literal percent signs.
		if err := b.SetString(tag, key, strings.ReplaceAll(msg, "%", "%%")); err != nil {
			return nil, fmt.Errorf("add translation for %q: %w", key, err)
		}
	}

	p := message.NewPrinter(tag, message.Catalog(b))
	return func(s string) string {
		if _, ok := messages[s]; !ok {
			return s
		}
		return p.Sprintf(s)
	}, nil
}
