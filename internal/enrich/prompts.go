package enrich

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/casimadrid/casi-cli/internal/venue"
)

const (
	maxPromptReviews   = 5
	maxReviewRunes     = 600
	headingImpressions = "## Primeras impresiones"
	headingWork        = "## Para trabajar"
)

func neighborhoodPrompt(c venue.Candidate) string {
	return fmt.Sprintf(`You map Madrid addresses to neighborhoods (barrios).

Place: %s
Address: %s

Reply with the neighborhood name only, in Spanish, as it is commonly written (for example "Malasaña", "Chamberí", "Lavapiés").
One line. No explanation, no punctuation, no quotes.`, c.Name, c.Address)
}

func namePrompt(raw string) string {
	return fmt.Sprintf(`Clean up this café name as it should appear as a page title:

%s

Remove taglines, city names, branch descriptors and SEO filler ("Specialty Coffee Madrid", "| Brunch", "- Sol"). Keep the brand's own capitalization and accents.
Reply with the cleaned name only. One line. No explanation, no quotes.`, raw)
}

func synthesisPrompt(c venue.Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `You write for a guide to Madrid cafés for people who work on a laptop.

Café: %s
Address: %s
Google rating: %.1f

Reviews:
`, c.Name, c.Address, c.Rating)

	n := 0
	for _, r := range c.Reviews {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if n == maxPromptReviews {
			break
		}
		n++
		fmt.Fprintf(&sb, "%d. %s\n", n, clip(r, maxReviewRunes))
	}

	sb.WriteString(`
Return ONLY a JSON object with exactly these fields:
{"wifi_speed": "...", "noise_level": "...", "plug_access": true|false, "casi_score": N, "review": "..."}

Rubric:
- wifi_speed: "flynet" if reviews praise fast wifi, "reliable" if wifi works, "spotty" if reviews complain about it, "detox" if there is no wifi.
- noise_level: "silence" for quiet study-like rooms, "hum" for normal café chatter, "chaos" for loud music or crowds.
- plug_access: true only if the reviews mention plugs or sockets.
- casi_score: integer from 1 to 10 for how good it is to work there.
- review: two short paragraphs of markdown in Spanish, the first under the heading "` + headingImpressions + `" and the second under "` + headingWork + `".
`)
	return sb.String()
}

func queryPrompt(current string, names []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `We search Google Maps for Madrid cafés where people work on a laptop.
The query "%s" mostly returned places we already have:
`, current)
	for _, n := range names {
		fmt.Fprintf(&sb, "- %s\n", n)
	}
	sb.WriteString(`
Suggest ONE different search query, in Spanish, likely to surface other cafés (try another neighborhood, a different style of place, or a specific feature).
Reply with the query only. One line. No explanation, no quotes.`)
	return sb.String()
}

func fallbackReview(c venue.Candidate) string {
	rating := "todavía no tiene valoraciones en Google"
	if c.Rating > 0 {
		rating = fmt.Sprintf("tiene una valoración media de %s sobre 5 en Google", formatRating(c.Rating))
	}
	return fmt.Sprintf(`%s

%s %s. Un sitio del barrio para tomar un café sin prisas.

%s

Suele haber mesa para abrir el portátil fuera de las horas punta. Conviene llegar con batería y comprobar el wifi antes de quedarse toda la tarde.
`, headingImpressions, c.Name, rating, headingWork)
}

func formatRating(r float64) string {
	return strings.Replace(fmt.Sprintf("%.1f", r), ".", ",", 1)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
