package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/casimadrid/casi-cli/internal/venue"
	"github.com/casimadrid/casi-cli/pkg/google"
)

// CandidateFromPlace converts a Places result. The external URI is the
// Google Maps URI, or "places/<id>" when the API omitted it.
func CandidateFromPlace(p google.Place) venue.Candidate {
	c := venue.Candidate{
		PlaceID:     p.ID,
		ExternalURI: strings.TrimSpace(p.GoogleMapsURI),
		Name:        strings.TrimSpace(p.DisplayName.Text),
		Address:     p.FormattedAddress,
		Rating:      p.Rating,
		PriceTier:   p.PriceLevel,
	}
	if c.ExternalURI == "" && p.ID != "" {
		c.ExternalURI = "places/" + p.ID
	}
	if p.Location != nil {
		c.Lat = p.Location.Latitude
		c.Long = p.Location.Longitude
	}
	for _, r := range p.Reviews {
		if body := r.Body(); body != "" {
			c.Reviews = append(c.Reviews, body)
		}
	}
	return c
}

// discover runs one Text Search call and returns the usable candidates.
func (p *Pipeline) discover(ctx context.Context, query string) ([]venue.Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ingest: places rate limit wait")
	}

	resp, err := p.deps.Places.TextSearch(ctx, google.TextSearchRequest{
		TextQuery:      query,
		LanguageCode:   p.cfg.Google.LanguageCode,
		MaxResultCount: p.cfg.Google.MaxResults,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: text search %q", query)
	}

	var out []venue.Candidate
	for _, place := range resp.Places {
		c := CandidateFromPlace(place)
		if c.ExternalURI == "" || c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// dedup splits candidates into new ones and ones already in the ledger or
// repeated earlier in the same batch.
func (p *Pipeline) dedup(cands []venue.Candidate) (fresh, skipped []venue.Candidate) {
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		if p.deps.Ledger.Has(c.ExternalURI) || seen[c.ExternalURI] {
			skipped = append(skipped, c)
			continue
		}
		seen[c.ExternalURI] = true
		fresh = append(fresh, c)
	}
	return fresh, skipped
}
