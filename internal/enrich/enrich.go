// Package enrich derives the generated fields of a venue record. Every step is
// one sequential text-generation call with a fallback, so a failed completion
// never aborts the batch.
package enrich

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/casimadrid/casi-cli/internal/textgen"
	"github.com/casimadrid/casi-cli/internal/venue"
)

const (
	maxNeighborhoodRunes = 40
	maxNameRunes         = 80
	maxQueryRunes        = 200
)

// DefaultNeighborhood is used when none is configured.
const DefaultNeighborhood = "Centro"

// Enricher runs the generation-backed normalizer steps.
type Enricher struct {
	gen                 textgen.Generator
	defaultNeighborhood string
}

// New returns an Enricher over gen. An empty defaultNeighborhood means
// DefaultNeighborhood.
func New(gen textgen.Generator, defaultNeighborhood string) *Enricher {
	if defaultNeighborhood == "" {
		defaultNeighborhood = DefaultNeighborhood
	}
	return &Enricher{gen: gen, defaultNeighborhood: defaultNeighborhood}
}

// InferNeighborhood asks for the barrio of c, falling back to the default
// neighborhood when the call fails or the answer breaks the one-line contract.
func (e *Enricher) InferNeighborhood(ctx context.Context, c venue.Candidate) string {
	log := zap.L().With(zap.String("place", c.Name))

	out, err := e.gen.Generate(ctx, textgen.Request{
		Purpose:     textgen.PurposeNeighborhood,
		Prompt:      neighborhoodPrompt(c),
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		log.Warn("enrich: neighborhood generation failed, using default", zap.Error(err))
		return e.defaultNeighborhood
	}

	n, ok := singleLine(strings.TrimSuffix(strings.TrimSpace(out), "."), maxNeighborhoodRunes)
	if !ok || strings.ContainsAny(n, ".,:;!?¡¿") {
		log.Warn("enrich: unusable neighborhood, using default", zap.String("output", clip(out, 80)))
		return e.defaultNeighborhood
	}
	return n
}

// CleanName asks for a tidy display name, falling back to raw.
func (e *Enricher) CleanName(ctx context.Context, raw string) string {
	log := zap.L().With(zap.String("place", raw))

	out, err := e.gen.Generate(ctx, textgen.Request{
		Purpose:     textgen.PurposeName,
		Prompt:      namePrompt(raw),
		Temperature: 0,
		MaxTokens:   40,
	})
	if err != nil {
		log.Warn("enrich: name generation failed, keeping raw name", zap.Error(err))
		return raw
	}

	name, ok := singleLine(out, maxNameRunes)
	if !ok {
		log.Warn("enrich: unusable name, keeping raw name", zap.String("output", clip(out, 80)))
		return raw
	}
	return name
}

// Synthesize derives the qualitative metrics and review of c. Candidates
// without review text get the deterministic fallback without a call.
func (e *Enricher) Synthesize(ctx context.Context, c venue.Candidate) Synthesis {
	log := zap.L().With(zap.String("place", c.Name))

	if !c.HasReviews() {
		log.Debug("enrich: no reviews, using fallback synthesis")
		return Fallback(c)
	}

	out, err := e.gen.Generate(ctx, textgen.Request{
		Purpose:     textgen.PurposeSynthesis,
		Prompt:      synthesisPrompt(c),
		Temperature: 0.4,
		MaxTokens:   700,
	})
	if err != nil {
		log.Warn("enrich: synthesis generation failed, using fallback", zap.Error(err))
		return Fallback(c)
	}

	s, err := ParseSynthesis(out)
	if err != nil {
		log.Warn("enrich: synthesis response rejected, using fallback", zap.Error(err))
		return Fallback(c)
	}
	return s
}

// SuggestQuery asks for one alternative discovery query. Unlike the other
// steps it has no fallback: errors and empty output go back to the caller.
func (e *Enricher) SuggestQuery(ctx context.Context, current string, names []string) (string, error) {
	out, err := e.gen.Generate(ctx, textgen.Request{
		Purpose:     textgen.PurposeQuery,
		Prompt:      queryPrompt(current, names),
		Temperature: 0.8,
		MaxTokens:   60,
	})
	if err != nil {
		return "", eris.Wrap(err, "enrich: suggest query")
	}

	line := firstLine(out)
	q, ok := singleLine(line, maxQueryRunes)
	if !ok {
		return "", eris.New("enrich: empty query suggestion")
	}
	return q, nil
}

// singleLine trims whitespace and surrounding quotes and checks that the
// result is one non-empty line of at most max runes.
func singleLine(s string, max int) (string, bool) {
	s = trimQuotes(strings.TrimSpace(s))
	if s == "" || strings.ContainsAny(s, "\r\n") || utf8.RuneCountInString(s) > max {
		return "", false
	}
	return s, true
}

func trimQuotes(s string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}, {"«", "»"}, {"`", "`"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}
