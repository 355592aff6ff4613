package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localvantage/gridscan/internal/cost"
)

var (
	estimateGridSize int
	estimateKeywords int
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the provider cost of a scan before running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		calc := cost.NewCalculator(cfg.Pricing)
		est := calc.Scan(estimateGridSize, estimateKeywords)

		fmt.Printf("grid points:     %d\n", est.TotalPoints)
		fmt.Printf("provider calls:  %d\n", est.TotalCalls)
		fmt.Printf("estimated cost:  $%.2f\n", est.EstimatedCost)
		return nil
	},
}

func init() {
	estimateCmd.Flags().IntVar(&estimateGridSize, "grid-size", 7, "grid side length (1-15)")
	estimateCmd.Flags().IntVar(&estimateKeywords, "keywords", 1, "number of keywords")
	rootCmd.AddCommand(estimateCmd)
}
