package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var batchCampaignIDs []string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan multiple campaigns concurrently",
	Long:  "Runs a full scan per campaign. Each scan is still strictly sequential internally; concurrency only spans campaigns, bounded by batch.max_concurrent_scans.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		campaigns, err := st.ListCampaigns(ctx)
		if err != nil {
			return err
		}
		if len(batchCampaignIDs) > 0 {
			wanted := make(map[string]bool, len(batchCampaignIDs))
			for _, id := range batchCampaignIDs {
				wanted[id] = true
			}
			filtered := campaigns[:0]
			for _, c := range campaigns {
				if wanted[c.ID] {
					filtered = append(filtered, c)
				}
			}
			campaigns = filtered
		}

		provider, err := initSERPClient(cfg.SERP)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentScans)

		for _, campaign := range campaigns {
			g.Go(func() error {
				if _, err := runScan(gctx, st, provider, cfg, &campaign, nil); err != nil {
					// One campaign failing must not abort the rest.
					zap.L().Error("campaign scan failed",
						zap.String("campaign_id", campaign.ID),
						zap.Error(err),
					)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete", zap.Int("campaigns", len(campaigns)))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringSliceVar(&batchCampaignIDs, "campaign", nil, "campaign ID to include (repeatable; default all)")
	rootCmd.AddCommand(batchCmd)
}
