package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/localvantage/gridscan/internal/aggregate"
	"github.com/localvantage/gridscan/internal/scan"
)

var scanCampaignID string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a ranking scan for one campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ctrl-C stops between grid points; whatever was gathered so far
		// still gets aggregated and persisted.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		campaign, err := st.GetCampaign(ctx, scanCampaignID)
		if err != nil {
			return err
		}

		provider, err := initSERPClient(cfg.SERP)
		if err != nil {
			return err
		}

		progress := func(kwIdx, kwTotal, completed, total int) {
			fmt.Fprintf(os.Stderr, "\rkeyword %d/%d: point %d/%d", kwIdx+1, kwTotal, completed, total)
			if completed == total {
				fmt.Fprintln(os.Stderr)
			}
		}

		agg, err := runScan(ctx, st, provider, cfg, campaign, scan.KeywordProgress(progress))
		if err != nil {
			return err
		}

		return printSummary(os.Stdout, agg)
	},
}

func printSummary(w io.Writer, agg *aggregate.Result) error {
	summary := aggregate.Summarize(agg)
	out := struct {
		Aggregation *aggregate.Result `json:"aggregation"`
		Summary     aggregate.Summary `json:"summary"`
	}{agg, summary}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	scanCmd.Flags().StringVar(&scanCampaignID, "campaign", "", "campaign ID (required)")
	_ = scanCmd.MarkFlagRequired("campaign")
	rootCmd.AddCommand(scanCmd)
}
