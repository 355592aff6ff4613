package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localvantage/gridscan/internal/aggregate"
	"github.com/localvantage/gridscan/internal/export"
	"github.com/localvantage/gridscan/pkg/notion"
)

var (
	reportScanID string
	reportXLSX   string
	reportNotion bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a stored scan as JSON, XLSX, or a Notion page",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		agg, err := st.GetAggregation(ctx, reportScanID)
		if err != nil {
			return err
		}
		summary := aggregate.Summarize(agg)

		if reportXLSX != "" {
			if err := export.WriteXLSX(reportXLSX, agg, summary); err != nil {
				return err
			}
			zap.L().Info("xlsx report written", zap.String("path", reportXLSX))
		}

		if reportNotion {
			if cfg.Notion.Token == "" || cfg.Notion.ReportDB == "" {
				return eris.New("cmd: notion.token and notion.report_db must be configured")
			}
			client := notion.NewClient(cfg.Notion.Token)
			pageID, err := notion.PublishSummary(ctx, client, cfg.Notion.ReportDB, agg, summary)
			if err != nil {
				return err
			}
			zap.L().Info("notion report published", zap.String("page_id", pageID))
		}

		return printSummary(os.Stdout, agg)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportScanID, "scan", "", "scan ID (required)")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "write an XLSX report to this path")
	reportCmd.Flags().BoolVar(&reportNotion, "notion", false, "publish the report to Notion")
	_ = reportCmd.MarkFlagRequired("scan")
	rootCmd.AddCommand(reportCmd)
}
