package refine

import (
	"fmt"
	"strings"
)

// DefaultHeading starts a rewritten body that came back without a heading.
const DefaultHeading = "## El sitio"

// Sections are the headings of a rewritten body, in order.
var Sections = []string{DefaultHeading, "## El café", "## Para trabajar", "## Veredicto"}

func rewritePrompt(title, neighborhood, body string) string {
	where := "Madrid"
	if neighborhood != "" {
		where = neighborhood + ", Madrid"
	}
	return fmt.Sprintf(`Eres redactor de una guía de cafeterías de Madrid para gente que trabaja con el portátil. Escribes como alguien del barrio: cercano, concreto, con algo de humor y sin tono publicitario.

Reescribe la reseña de este sitio.

Sitio: %s
Barrio: %s

Reseña actual:
%s

Usa exactamente estas cuatro secciones, en este orden, cada una con uno o dos párrafos:
%s

Devuelve solo el markdown del cuerpo, empezando por "%s". Sin cabecera YAML, sin título de nivel 1, sin comentarios.`,
		title, where, strings.TrimSpace(body), strings.Join(Sections, "\n"), DefaultHeading)
}

// normalizeBody unwraps a fenced completion and makes sure the body starts
// with a heading and ends with a newline.
func normalizeBody(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		if j := strings.LastIndex(text, "```"); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)
	}
	if !strings.HasPrefix(text, "#") {
		text = DefaultHeading + "\n\n" + text
	}
	return text + "\n"
}
