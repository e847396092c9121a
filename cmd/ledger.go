package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/casimadrid/casi-cli/internal/config"
	"github.com/casimadrid/casi-cli/internal/content"
	"github.com/casimadrid/casi-cli/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show ledger sizes and files pending refinement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := ledgerStatus(cfg)
		if err != nil {
			return err
		}
		return st.write(cmd.OutOrStdout())
	},
}

type ledgerSummary struct {
	Ingested      int
	Refined       int
	Files         int
	PendingRefine int
}

func ledgerStatus(c *config.Config) (*ledgerSummary, error) {
	ingested := ledger.Open[ledger.IngestEntry](c.Ledger.IngestPath)
	refined := ledger.Open[ledger.RefineEntry](c.Ledger.RefinePath)

	files, err := content.NewStore(c.Content.Dir).List()
	if err != nil {
		return nil, err
	}
	st := &ledgerSummary{
		Ingested: ingested.Len(),
		Refined:  refined.Len(),
		Files:    len(files),
	}
	for _, f := range files {
		if !refined.Has(f) {
			st.PendingRefine++
		}
	}
	return st, nil
}

func (s *ledgerSummary) write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ingested:       %d\nrefined:        %d\nfiles:          %d\npending refine: %d\n",
		s.Ingested, s.Refined, s.Files, s.PendingRefine)
	return err
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
}
