package venue

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases text, strips diacritics, collapses every run of
// characters outside [a-z0-9] into one hyphen and trims hyphens at both ends.
// The result matches ^[a-z0-9]+(-[a-z0-9]+)*$ or is empty.
func Slugify(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Slug derives the record slug from its neighborhood and title. When both
// sides slugify to nothing a random "spot-" slug is returned.
func Slug(neighborhood, title string) string {
	n, t := Slugify(neighborhood), Slugify(title)
	switch {
	case n != "" && t != "":
		return n + "-" + t
	case t != "":
		return t
	case n != "":
		return n
	default:
		return "spot-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
}
