package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casimadrid/casi-cli/internal/config"
	"github.com/casimadrid/casi-cli/internal/content"
	"github.com/casimadrid/casi-cli/internal/enrich"
	"github.com/casimadrid/casi-cli/internal/ingest"
	"github.com/casimadrid/casi-cli/internal/ledger"
	"github.com/casimadrid/casi-cli/internal/resilience"
	"github.com/casimadrid/casi-cli/internal/textgen"
	"github.com/casimadrid/casi-cli/pkg/google"
)

var ingestMaxAttempts int

var ingestCmd = &cobra.Command{
	Use:   "ingest [query]",
	Short: "Discover new cafés and write venue records",
	Long:  "Searches Google Places, skips places already in the ingestion ledger, writes one record per new place, and retries with a refined query when a batch is mostly duplicates.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("max-attempts") {
			cfg.Ingest.MaxAttempts = ingestMaxAttempts
		}
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		p, breaker, err := newIngestPipeline(cfg)
		if err != nil {
			return err
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		}

		res, err := p.Run(ctx, query)
		if res != nil {
			if rerr := writeIngestReport(cmd.OutOrStdout(), res); rerr != nil {
				zap.L().Warn("ingest: write report", zap.Error(rerr))
			}
		}
		if breaker.Rejected() > 0 {
			zap.L().Warn("text generation circuit rejected calls", zap.Int("rejected", breaker.Rejected()))
		}
		if err != nil {
			return eris.Wrap(err, "ingest")
		}
		return nil
	},
}

// newIngestPipeline wires the ingestion pipeline from configuration.
func newIngestPipeline(c *config.Config) (*ingest.Pipeline, *resilience.CircuitBreaker, error) {
	gen, breaker, err := textgen.FromConfig(c)
	if err != nil {
		return nil, nil, err
	}
	p := ingest.New(c, ingest.Deps{
		Places:   google.NewClient(c.Google.Key, google.WithBaseURL(c.Google.BaseURL)),
		Enricher: enrich.New(gen, c.Ingest.DefaultNeighborhood),
		Ledger:   ledger.Open[ledger.IngestEntry](c.Ledger.IngestPath),
		Store:    content.NewStore(c.Content.Dir),
	})
	return p, breaker, nil
}

func init() {
	ingestCmd.Flags().IntVar(&ingestMaxAttempts, "max-attempts", 3, "maximum discovery calls per run, including the first")
	rootCmd.AddCommand(ingestCmd)
}
