package enrich

import (
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/casimadrid/casi-cli/internal/resilience"
	"github.com/casimadrid/casi-cli/internal/textgen"
	"github.com/casimadrid/casi-cli/internal/venue"
)

// Synthesis is the generated part of a venue record.
type Synthesis struct {
	WifiSpeed  venue.WifiSpeed
	NoiseLevel venue.NoiseLevel
	PlugAccess bool
	CasiScore  int
	Review     string

	// Fallback is set when the deterministic template was used.
	Fallback bool
}

// synthesisResponse is the JSON object the model must return. Pointers make
// every field mandatory, including false and zero values.
type synthesisResponse struct {
	WifiSpeed  *string  `json:"wifi_speed" validate:"required,oneof=flynet reliable spotty detox"`
	NoiseLevel *string  `json:"noise_level" validate:"required,oneof=silence hum chaos"`
	PlugAccess *bool    `json:"plug_access" validate:"required"`
	CasiScore  *float64 `json:"casi_score" validate:"required,gte=1,lte=10"`
	Review     *string  `json:"review" validate:"required,min=1"`
}

// ParseSynthesis extracts and validates the synthesis object from a
// completion. Failures are *resilience.ParseError.
func ParseSynthesis(text string) (Synthesis, error) {
	fail := func(err error) (Synthesis, error) {
		return Synthesis{}, &resilience.ParseError{Purpose: string(textgen.PurposeSynthesis), Err: err}
	}

	raw := cleanJSON(text)
	if raw == "" {
		return fail(eris.New("no JSON object in response"))
	}

	var resp synthesisResponse
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return fail(eris.Wrap(err, "decode"))
	}
	if err := venue.Validator().Struct(resp); err != nil {
		return fail(eris.Wrap(err, "validate"))
	}
	if *resp.CasiScore != math.Trunc(*resp.CasiScore) {
		return fail(eris.Errorf("casi_score %v is not an integer", *resp.CasiScore))
	}
	review := strings.TrimSpace(*resp.Review)
	if review == "" {
		return fail(eris.New("empty review"))
	}
	for _, h := range []string{headingImpressions, headingWork} {
		if !strings.Contains(review, h) {
			return fail(eris.Errorf("review missing heading %q", h))
		}
	}

	return Synthesis{
		WifiSpeed:  venue.WifiSpeed(*resp.WifiSpeed),
		NoiseLevel: venue.NoiseLevel(*resp.NoiseLevel),
		PlugAccess: *resp.PlugAccess,
		CasiScore:  int(*resp.CasiScore),
		Review:     review + "\n",
	}, nil
}

// Fallback is the deterministic synthesis used when generation is skipped or
// fails.
func Fallback(c venue.Candidate) Synthesis {
	return Synthesis{
		WifiSpeed:  venue.WifiReliable,
		NoiseLevel: venue.NoiseHum,
		PlugAccess: false,
		CasiScore:  venue.FallbackScore(c.Rating),
		Review:     fallbackReview(c),
		Fallback:   true,
	}
}

// cleanJSON extracts the first JSON object from text that may be wrapped in
// markdown code fences or prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	if end := matchingBrace(text, start); end > start {
		return text[start : end+1]
	}
	return ""
}

// matchingBrace returns the index of the brace closing the object opened at
// start, skipping braces inside JSON strings, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
