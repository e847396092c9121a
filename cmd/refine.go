package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casimadrid/casi-cli/internal/config"
	"github.com/casimadrid/casi-cli/internal/content"
	"github.com/casimadrid/casi-cli/internal/ledger"
	"github.com/casimadrid/casi-cli/internal/refine"
	"github.com/casimadrid/casi-cli/internal/resilience"
	"github.com/casimadrid/casi-cli/internal/textgen"
)

var refineDelaySecs int

var refineCmd = &cobra.Command{
	Use:   "refine [file]",
	Short: "Rewrite venue record bodies in the house voice",
	Long:  "Rewrites every record not yet in the refinement ledger, pausing between files. With a file argument only that record is rewritten and the ledger is left alone.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("delay") {
			cfg.Refine.DelaySecs = refineDelaySecs
		}
		if err := cfg.Validate("refine"); err != nil {
			return err
		}

		p, breaker, err := newRefinePipeline(cfg)
		if err != nil {
			return err
		}

		var target string
		if len(args) == 1 {
			target = args[0]
		}

		res, err := p.Run(ctx, target)
		if res != nil {
			if rerr := writeRefineReport(cmd.OutOrStdout(), res); rerr != nil {
				zap.L().Warn("refine: write report", zap.Error(rerr))
			}
		}
		if breaker.Rejected() > 0 {
			zap.L().Warn("text generation circuit rejected calls", zap.Int("rejected", breaker.Rejected()))
		}
		if err != nil {
			return eris.Wrap(err, "refine")
		}
		return nil
	},
}

// newRefinePipeline wires the refinement pipeline from configuration.
func newRefinePipeline(c *config.Config) (*refine.Pipeline, *resilience.CircuitBreaker, error) {
	gen, breaker, err := textgen.FromConfig(c)
	if err != nil {
		return nil, nil, err
	}
	p, err := refine.New(c, refine.Deps{
		Generator: gen,
		Ledger:    ledger.Open[ledger.RefineEntry](c.Ledger.RefinePath),
		Store:     content.NewStore(c.Content.Dir),
	})
	if err != nil {
		return nil, nil, err
	}
	return p, breaker, nil
}

func init() {
	refineCmd.Flags().IntVar(&refineDelaySecs, "delay", 600, "seconds to wait between files")
	rootCmd.AddCommand(refineCmd)
}
