package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/localvantage/gridscan/internal/model"
)

var (
	campaignName         string
	campaignBusiness     string
	campaignLat          float64
	campaignLng          float64
	campaignGridSize     int
	campaignRadius       float64
	campaignKeywords     []string
	campaignKeywordsFile string
	campaignBoundary     string
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage scan campaigns",
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		keywords := campaignKeywords
		if campaignKeywordsFile != "" {
			fileKeywords, err := loadKeywordsFile(campaignKeywordsFile)
			if err != nil {
				return err
			}
			keywords = append(keywords, fileKeywords...)
		}
		if len(keywords) == 0 {
			return eris.New("cmd: at least one keyword is required")
		}

		campaign := &model.Campaign{
			Name:         campaignName,
			BusinessName: campaignBusiness,
			CenterLat:    campaignLat,
			CenterLng:    campaignLng,
			GridSize:     campaignGridSize,
			RadiusMiles:  campaignRadius,
			Keywords:     keywords,
			BoundaryPath: campaignBoundary,
		}
		if err := campaign.GridConfig().Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.CreateCampaign(ctx, campaign); err != nil {
			return err
		}

		fmt.Println(campaign.ID)
		return nil
	},
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		campaigns, err := st.ListCampaigns(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBUSINESS\tGRID\tRADIUS\tKEYWORDS")
		for _, c := range campaigns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.1fmi\t%d\n",
				c.ID, c.Name, c.BusinessName, c.GridSize, c.GridSize, c.RadiusMiles, len(c.Keywords))
		}
		return w.Flush()
	},
}

// loadKeywordsFile reads a YAML file containing a list of keyword strings.
func loadKeywordsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "cmd: read keywords file")
	}

	var keywords []string
	if err := yaml.Unmarshal(data, &keywords); err != nil {
		return nil, eris.Wrap(err, "cmd: parse keywords file")
	}
	return keywords, nil
}

func init() {
	campaignCreateCmd.Flags().StringVar(&campaignName, "name", "", "campaign name (required)")
	campaignCreateCmd.Flags().StringVar(&campaignBusiness, "business", "", "target business name (required)")
	campaignCreateCmd.Flags().Float64Var(&campaignLat, "lat", 0, "grid center latitude (required)")
	campaignCreateCmd.Flags().Float64Var(&campaignLng, "lng", 0, "grid center longitude (required)")
	campaignCreateCmd.Flags().IntVar(&campaignGridSize, "grid-size", 7, "grid side length (1-15)")
	campaignCreateCmd.Flags().Float64Var(&campaignRadius, "radius", 5, "grid radius in miles")
	campaignCreateCmd.Flags().StringSliceVar(&campaignKeywords, "keyword", nil, "keyword to track (repeatable)")
	campaignCreateCmd.Flags().StringVar(&campaignKeywordsFile, "keywords-file", "", "YAML file listing keywords")
	campaignCreateCmd.Flags().StringVar(&campaignBoundary, "boundary", "", "shapefile path to clip the grid to")
	_ = campaignCreateCmd.MarkFlagRequired("name")
	_ = campaignCreateCmd.MarkFlagRequired("business")
	_ = campaignCreateCmd.MarkFlagRequired("lat")
	_ = campaignCreateCmd.MarkFlagRequired("lng")

	campaignCmd.AddCommand(campaignCreateCmd)
	campaignCmd.AddCommand(campaignListCmd)
	rootCmd.AddCommand(campaignCmd)
}
