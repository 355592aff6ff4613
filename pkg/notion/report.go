package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/localvantage/gridscan/internal/aggregate"
)

// PublishSummary creates one page in the reports database for a completed
// scan aggregation. Returns the created page ID.
func PublishSummary(ctx context.Context, c Client, reportDB string, agg *aggregate.Result, summary aggregate.Summary) (string, error) {
	if reportDB == "" {
		return "", eris.New("notion: report database ID is required")
	}

	title := fmt.Sprintf("%s / scan %s", agg.TargetStats.BusinessName, agg.ScanID)

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(title),
		},
		"Position": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(summary.TargetPosition)},
		},
		"Avg Rank": notionapi.NumberProperty{
			Number: agg.TargetStats.AvgRank,
		},
		"Share of Voice": notionapi.NumberProperty{
			Number: agg.TargetStats.ShareOfVoice,
		},
		"Competitors Ahead": notionapi.NumberProperty{
			Number: float64(summary.CompetitorsAhead),
		},
		"Recommendation": notionapi.RichTextProperty{
			RichText: richText(summary.Recommendation),
		},
	}
	if len(summary.MainThreats) > 0 {
		props["Main Threats"] = notionapi.RichTextProperty{
			RichText: richText(strings.Join(summary.MainThreats, ", ")),
		}
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(reportDB),
		},
		Properties: props,
	}

	page, err := c.CreatePage(ctx, req)
	if err != nil {
		return "", eris.Wrapf(err, "notion: publish summary for scan %s", agg.ScanID)
	}
	return string(page.ID), nil
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: s}},
	}
}
