// Package ingest discovers Madrid cafés, skips the ones already recorded in
// the ingestion ledger, and turns each new one into a venue record file.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/casimadrid/casi-cli/internal/config"
	"github.com/casimadrid/casi-cli/internal/content"
	"github.com/casimadrid/casi-cli/internal/enrich"
	"github.com/casimadrid/casi-cli/internal/ledger"
	"github.com/casimadrid/casi-cli/internal/venue"
	"github.com/casimadrid/casi-cli/pkg/google"
)

// Enricher derives the generated fields of a record.
type Enricher interface {
	InferNeighborhood(ctx context.Context, c venue.Candidate) string
	CleanName(ctx context.Context, raw string) string
	Synthesize(ctx context.Context, c venue.Candidate) enrich.Synthesis
	SuggestQuery(ctx context.Context, current string, names []string) (string, error)
}

// Deps are the collaborators of a run.
type Deps struct {
	Places   google.Client
	Enricher Enricher
	Ledger   *ledger.Ledger[ledger.IngestEntry]
	Store    *content.Store
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs ingestion.
type Pipeline struct {
	cfg     *config.Config
	deps    Deps
	limiter *rate.Limiter
}

// New creates a Pipeline. Places calls are throttled to google.rate_limit
// requests per second.
func New(cfg *config.Config, deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	limit := rate.Inf
	if cfg.Google.RateLimit > 0 {
		limit = rate.Limit(cfg.Google.RateLimit)
	}
	return &Pipeline{
		cfg:     cfg,
		deps:    deps,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run ingests starting from query. Only the first discovery call is fatal; a
// failure on a refined query ends the run with the totals so far. A ledger
// save failure is fatal and returned with the partial result.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", res.RunID))

	query = strings.TrimSpace(query)
	if query == "" {
		query = p.cfg.Ingest.DefaultQuery
	}
	if query == "" {
		return nil, eris.New("ingest: query is required")
	}

	taken := make(map[string]bool)
	now := p.deps.Now().UTC()

	for attempt := 1; ; attempt++ {
		res.Queries = append(res.Queries, query)
		roundLog := log.With(zap.Int("attempt", attempt), zap.String("query", query))

		// DISCOVER
		cands, err := p.discover(ctx, query)
		if err != nil {
			if attempt == 1 {
				return nil, err
			}
			roundLog.Warn("ingest: discovery failed on refined query, stopping", zap.Error(err))
			break
		}

		// DEDUP_FILTER
		fresh, skipped := p.dedup(cands)
		res.Total += len(cands)
		res.New += len(fresh)
		res.Skipped += len(skipped)
		roundLog.Info("ingest: discovered candidates",
			zap.Int("total", len(cands)),
			zap.Int("new", len(fresh)),
			zap.Int("skipped", len(skipped)),
		)

		// ENRICH_EACH
		for _, c := range fresh {
			if ctx.Err() != nil {
				break
			}
			item := p.ingestOne(ctx, c, taken, now)
			res.add(item)
			if item.Status == StatusFailed {
				roundLog.Warn("ingest: item failed",
					zap.String("place", c.Name),
					zap.String("uri", c.ExternalURI),
					zap.Error(item.Err),
				)
				continue
			}
			roundLog.Info("ingest: wrote record",
				zap.String("slug", item.Slug),
				zap.String("neighborhood", item.Neighborhood),
				zap.Bool("fallback", item.Fallback),
			)
		}

		// PERSIST
		if err := p.deps.Ledger.Save(); err != nil {
			return res, eris.Wrap(err, "ingest: save ledger")
		}
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "ingest: interrupted")
		}

		// EVALUATE_RETRY
		if !p.shouldRetry(len(cands), len(fresh), len(skipped), attempt) {
			break
		}
		next, ok := p.refineQuery(ctx, query, skipped, res.Queries, roundLog)
		if !ok {
			break
		}
		query = next
		res.Retries++
	}

	log.Info("ingest: done",
		zap.Strings("queries", res.Queries),
		zap.Int("total", res.Total),
		zap.Int("new", res.New),
		zap.Int("skipped", res.Skipped),
		zap.Int("written", res.Written),
		zap.Int("failed", res.Failed),
		zap.Int("retries", res.Retries),
	)
	return res, nil
}

// shouldRetry reports whether a batch was mostly duplicates with too few new
// places while discovery attempts remain.
func (p *Pipeline) shouldRetry(total, fresh, skipped, attempt int) bool {
	if total == 0 || attempt >= p.cfg.Ingest.MaxAttempts {
		return false
	}
	ratio := float64(skipped) / float64(total)
	return ratio > p.cfg.Ingest.DuplicateRatio && fresh < p.cfg.Ingest.MinNew
}

// refineQuery asks for an alternative query seeded with recently ingested
// names and every name skipped this round. It reports false when no usable
// query, one that was not tried yet, comes back.
func (p *Pipeline) refineQuery(ctx context.Context, current string, skipped []venue.Candidate, tried []string, log *zap.Logger) (string, bool) {
	names := ledger.RecentNames(p.deps.Ledger, p.cfg.Ingest.KnownNames)
	for _, c := range skipped {
		names = append(names, c.Name)
	}

	next, err := p.deps.Enricher.SuggestQuery(ctx, current, names)
	if err != nil {
		log.Warn("ingest: query suggestion failed, stopping", zap.Error(err))
		return "", false
	}
	for _, q := range tried {
		if sameQuery(q, next) {
			log.Info("ingest: suggested query already tried, stopping", zap.String("suggestion", next))
			return "", false
		}
	}
	log.Info("ingest: retrying with refined query", zap.String("suggestion", next))
	return next, true
}

func sameQuery(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// ingestOne enriches, normalizes, writes and records one new candidate. An
// item interrupted mid-enrichment is neither written nor recorded.
func (p *Pipeline) ingestOne(ctx context.Context, c venue.Candidate, taken map[string]bool, now time.Time) ItemResult {
	item := ItemResult{ExternalURI: c.ExternalURI, Name: c.Name}

	neighborhood := p.deps.Enricher.InferNeighborhood(ctx, c)
	title := p.deps.Enricher.CleanName(ctx, c.Name)
	syn := p.deps.Enricher.Synthesize(ctx, c)

	// Fallback output from a cancelled run is never persisted.
	if err := ctx.Err(); err != nil {
		item.Status, item.Err = StatusFailed, eris.Wrap(err, "ingest: interrupted during enrichment")
		return item
	}

	slug := p.deps.Store.UniqueSlug(venue.Slug(neighborhood, title), taken)
	item.Name = title
	item.Neighborhood = neighborhood
	item.Slug = slug
	item.Fallback = syn.Fallback

	rec := venue.Record{
		Slug:         slug,
		Title:        title,
		Author:       p.cfg.Ingest.Author,
		Neighborhood: neighborhood,
		Address:      c.Address,
		MapsURL:      mapsURL(c),
		PublishedAt:  now,
		Metrics: venue.Metrics{
			WifiSpeed:   syn.WifiSpeed,
			NoiseLevel:  syn.NoiseLevel,
			PlugAccess:  syn.PlugAccess,
			CoffeePrice: venue.PriceTierToAmount(c.PriceTier),
			CasiScore:   syn.CasiScore,
			Coordinates: venue.Coordinates{Lat: c.Lat, Long: c.Long},
		},
		Body: syn.Review,
	}
	if err := rec.Validate(); err != nil {
		item.Status, item.Err = StatusFailed, err
		return item
	}

	path, err := p.deps.Store.Write(rec)
	if err != nil {
		item.Status, item.Err = StatusFailed, err
		return item
	}
	taken[slug] = true
	item.Path = path
	item.Status = StatusWritten

	p.deps.Ledger.Append(ledger.IngestEntry{
		ExternalURI:  c.ExternalURI,
		DisplayName:  title,
		Neighborhood: neighborhood,
		Slug:         slug,
		ProcessedAt:  now,
	})
	return item
}

// mapsURL returns the public Maps link, which the "places/<id>" fallback URI
// is not.
func mapsURL(c venue.Candidate) string {
	if strings.HasPrefix(c.ExternalURI, "http") {
		return c.ExternalURI
	}
	return ""
}
