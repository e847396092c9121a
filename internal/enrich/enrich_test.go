package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casimadrid/casi-cli/internal/resilience"
	"github.com/casimadrid/casi-cli/internal/textgen"
	"github.com/casimadrid/casi-cli/internal/venue"
)

// scripted returns out and err and records every request.
func scripted(out string, err error, calls *[]textgen.Request) textgen.Generator {
	return textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (string, error) {
		*calls = append(*calls, req)
		return out, err
	})
}

var candidate = venue.Candidate{
	PlaceID:     "abc",
	ExternalURI: "https://maps.google.com/?cid=1",
	Name:        "Toma Café | Specialty Coffee Madrid",
	Address:     "Calle de la Palma, 49, 28004 Madrid",
	Rating:      4.6,
	PriceTier:   "PRICE_LEVEL_MODERATE",
	Reviews:     []string{"Wifi rapidísimo y enchufes en la barra.", "Café buenísimo."},
}

func TestInferNeighborhood(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want string
	}{
		{"plain", "Malasaña", nil, "Malasaña"},
		{"trailing period and spaces", "  Malasaña.\n", nil, "Malasaña"},
		{"quoted", `"Chamberí"`, nil, "Chamberí"},
		{"explanation", "El barrio es Malasaña, en el centro", nil, "Centro"},
		{"multi line", "Malasaña\nUniversidad", nil, "Centro"},
		{"too long", strings.Repeat("x", 41), nil, "Centro"},
		{"empty", "   ", nil, "Centro"},
		{"generation error", "", errors.New("boom"), "Centro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []textgen.Request
			e := New(scripted(tt.out, tt.err, &calls), "")
			assert.Equal(t, tt.want, e.InferNeighborhood(context.Background(), candidate))
			require.Len(t, calls, 1)
			assert.Equal(t, textgen.PurposeNeighborhood, calls[0].Purpose)
			assert.Zero(t, calls[0].Temperature)
			assert.Equal(t, 20, calls[0].MaxTokens)
			assert.Contains(t, calls[0].Prompt, candidate.Address)
		})
	}
}

func TestInferNeighborhood_ConfiguredDefault(t *testing.T) {
	var calls []textgen.Request
	e := New(scripted("", errors.New("boom"), &calls), "Sol")
	assert.Equal(t, "Sol", e.InferNeighborhood(context.Background(), candidate))
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want string
	}{
		{"cleaned", "Toma Café", nil, "Toma Café"},
		{"guillemets", "«Toma Café»", nil, "Toma Café"},
		{"multi line", "Toma Café\nThe name without the tagline.", nil, candidate.Name},
		{"too long", strings.Repeat("a", 81), nil, candidate.Name},
		{"error", "", &resilience.UpstreamError{Service: "anthropic", StatusCode: 529}, candidate.Name},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []textgen.Request
			e := New(scripted(tt.out, tt.err, &calls), "")
			assert.Equal(t, tt.want, e.CleanName(context.Background(), candidate.Name))
			require.Len(t, calls, 1)
			assert.Equal(t, 40, calls[0].MaxTokens)
		})
	}
}

const goodSynthesis = "```json\n" + `{
  "wifi_speed": "flynet",
  "noise_level": "hum",
  "plug_access": true,
  "casi_score": 9,
  "review": "## Primeras impresiones\n\nLuz y buen café.\n\n## Para trabajar\n\nEnchufes en la barra {y} wifi rápido."
}` + "\n```"

func TestSynthesize_UsesGeneratedObject(t *testing.T) {
	var calls []textgen.Request
	e := New(scripted(goodSynthesis, nil, &calls), "")

	s := e.Synthesize(context.Background(), candidate)
	assert.False(t, s.Fallback)
	assert.Equal(t, venue.WifiFlynet, s.WifiSpeed)
	assert.Equal(t, venue.NoiseHum, s.NoiseLevel)
	assert.True(t, s.PlugAccess)
	assert.Equal(t, 9, s.CasiScore)
	assert.True(t, strings.HasPrefix(s.Review, "## Primeras impresiones"))
	assert.Contains(t, s.Review, "## Para trabajar")

	require.Len(t, calls, 1)
	assert.Equal(t, textgen.PurposeSynthesis, calls[0].Purpose)
	assert.Contains(t, calls[0].Prompt, "Wifi rapidísimo")
}

func TestSynthesize_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"generation error", "", errors.New("timeout")},
		{"prose", "I cannot help with that.", nil},
		{"missing field", `{"wifi_speed":"flynet","noise_level":"hum","casi_score":7,"review":"x"}`, nil},
		{"extra field", `{"wifi_speed":"flynet","noise_level":"hum","plug_access":false,"casi_score":7,"review":"x","vibe":"good"}`, nil},
		{"bad enum", `{"wifi_speed":"fast","noise_level":"hum","plug_access":false,"casi_score":7,"review":"x"}`, nil},
		{"score out of range", `{"wifi_speed":"spotty","noise_level":"hum","plug_access":false,"casi_score":11,"review":"x"}`, nil},
		{"fractional score", `{"wifi_speed":"spotty","noise_level":"hum","plug_access":false,"casi_score":7.5,"review":"x"}`, nil},
		{"blank review", `{"wifi_speed":"spotty","noise_level":"hum","plug_access":false,"casi_score":7,"review":"  "}`, nil},
		{"review without headings", `{"wifi_speed":"spotty","noise_level":"hum","plug_access":false,"casi_score":7,"review":"Buen sitio para trabajar."}`, nil},
		{"review missing work section", `{"wifi_speed":"spotty","noise_level":"hum","plug_access":false,"casi_score":7,"review":"## Primeras impresiones\n\nLuz."}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []textgen.Request
			e := New(scripted(tt.out, tt.err, &calls), "")

			s := e.Synthesize(context.Background(), candidate)
			assert.True(t, s.Fallback)
			assert.Equal(t, venue.WifiReliable, s.WifiSpeed)
			assert.Equal(t, venue.NoiseHum, s.NoiseLevel)
			assert.False(t, s.PlugAccess)
			assert.Equal(t, 5, s.CasiScore)
			assert.Len(t, calls, 1)
		})
	}
}

func TestSynthesize_NoReviewsSkipsGeneration(t *testing.T) {
	var calls []textgen.Request
	e := New(scripted(goodSynthesis, nil, &calls), "")

	c := candidate
	c.Reviews = []string{"", "  "}
	c.Rating = 3.7
	s := e.Synthesize(context.Background(), c)

	assert.Empty(t, calls)
	assert.True(t, s.Fallback)
	assert.Equal(t, 4, s.CasiScore)
	assert.Contains(t, s.Review, "3,7 sobre 5")
	assert.Contains(t, s.Review, "## Primeras impresiones")
	assert.Contains(t, s.Review, "## Para trabajar")
}

func TestFallback_NoRating(t *testing.T) {
	s := Fallback(venue.Candidate{Name: "Sin Nombre"})
	assert.Equal(t, 5, s.CasiScore)
	assert.Contains(t, s.Review, "todavía no tiene valoraciones")
}

func TestParseSynthesis_ParseErrorType(t *testing.T) {
	_, err := ParseSynthesis("nothing here")
	var pe *resilience.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "synthesis", pe.Purpose)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":"}"}`, cleanJSON(`Here you go: {"a":"}"} and {"b":2}`))
	assert.Equal(t, `{"a":{"b":"\"{"}}`, cleanJSON(`{"a":{"b":"\"{"}}`))
	assert.Empty(t, cleanJSON("no object"))
	assert.Empty(t, cleanJSON(`{"unterminated": 1`))
}

func TestSuggestQuery(t *testing.T) {
	var calls []textgen.Request
	e := New(scripted("\"cafés tranquilos en Chamberí con enchufes\"\n", nil, &calls), "")

	q, err := e.SuggestQuery(context.Background(), "cafés Madrid", []string{"Toma Café", "Hola Coffee"})
	require.NoError(t, err)
	assert.Equal(t, "cafés tranquilos en Chamberí con enchufes", q)

	require.Len(t, calls, 1)
	assert.Equal(t, textgen.PurposeQuery, calls[0].Purpose)
	assert.InDelta(t, 0.8, calls[0].Temperature, 1e-9)
	assert.Contains(t, calls[0].Prompt, "- Hola Coffee")
	assert.Contains(t, calls[0].Prompt, `"cafés Madrid"`)
}

func TestSuggestQuery_Errors(t *testing.T) {
	var calls []textgen.Request

	_, err := New(scripted("", errors.New("boom"), &calls), "").SuggestQuery(context.Background(), "q", nil)
	assert.Error(t, err)

	_, err = New(scripted(" \n \"\" \n", nil, &calls), "").SuggestQuery(context.Background(), "q", nil)
	assert.Error(t, err)
}
