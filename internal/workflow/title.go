package workflow

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardsmith/internal/domain"
)

var titleCaser = cases.Title(language.English)

// metadataTitleKeys are checked in order when deriving a default title from
// detection metadata.
var metadataTitleKeys = []string{"player", "name", "title", "subject"}

// DeriveTitle builds a default card title from detection metadata, falling
// back to a positional name when the metadata carries nothing usable.
func DeriveTitle(card domain.DetectedCard, position int) string {
	for _, key := range metadataTitleKeys {
		raw, ok := card.Metadata[key]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		return titleCaser.String(strings.ToLower(value))
	}
	return fmt.Sprintf("Card %d", position+1)
}
