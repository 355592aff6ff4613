// Package export renders scan aggregations as spreadsheet reports.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/localvantage/gridscan/internal/aggregate"
)

// WriteXLSX writes a two-sheet workbook for one scan aggregation: a summary
// sheet with the target's position and a competitor sheet sorted by average
// rank.
func WriteXLSX(path string, agg *aggregate.Result, summary aggregate.Summary) error {
	file := xlsx.NewFile()

	if err := addSummarySheet(file, agg, summary); err != nil {
		return err
	}
	if err := addCompetitorSheet(file, agg); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addSummarySheet(file *xlsx.File, agg *aggregate.Result, summary aggregate.Summary) error {
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addKV(sheet, "Scan ID", agg.ScanID)
	addKV(sheet, "Target", agg.TargetStats.BusinessName)
	addKV(sheet, "Position", string(summary.TargetPosition))
	addKV(sheet, "Average Rank", formatRank(agg.TargetStats.AvgRank))
	addKV(sheet, "Share of Voice", fmt.Sprintf("%.1f%%", agg.TargetStats.ShareOfVoice))
	addKV(sheet, "Competitors Ahead", fmt.Sprintf("%d", summary.CompetitorsAhead))
	addKV(sheet, "Competitors Found", fmt.Sprintf("%d", agg.Overall.TotalCompetitorsFound))
	if agg.Overall.TopCompetitor != "" {
		addKV(sheet, "Top Competitor", agg.Overall.TopCompetitor)
	}
	for i, threat := range summary.MainThreats {
		addKV(sheet, fmt.Sprintf("Threat %d", i+1), threat)
	}
	addKV(sheet, "Recommendation", summary.Recommendation)

	return nil
}

func addCompetitorSheet(file *xlsx.File, agg *aggregate.Result) error {
	sheet, err := file.AddSheet("Competitors")
	if err != nil {
		return eris.Wrap(err, "export: add competitor sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Business", "Avg Rank", "Top 3", "Top 10", "Top 20", "Share of Voice %", "Rating", "Reviews", "Rank Change"} {
		header.AddCell().Value = h
	}

	writeStatsRow(sheet, agg.TargetStats, true)
	for _, c := range agg.CompetitorStats {
		writeStatsRow(sheet, c, false)
	}

	return nil
}

func writeStatsRow(sheet *xlsx.Sheet, s aggregate.CompetitorStats, isTarget bool) {
	row := sheet.AddRow()

	name := s.BusinessName
	if isTarget {
		name += " (you)"
	}
	row.AddCell().Value = name
	row.AddCell().Value = formatRank(s.AvgRank)
	row.AddCell().SetInt(s.TimesInTop3)
	row.AddCell().SetInt(s.TimesInTop10)
	row.AddCell().SetInt(s.TimesInTop20)
	row.AddCell().SetFloatWithFormat(s.ShareOfVoice, "0.0")

	if s.Rating != nil {
		row.AddCell().SetFloatWithFormat(*s.Rating, "0.0")
	} else {
		row.AddCell()
	}
	if s.ReviewCount != nil {
		row.AddCell().SetInt(*s.ReviewCount)
	} else {
		row.AddCell()
	}
	if s.RankChange != nil {
		row.AddCell().SetFloatWithFormat(*s.RankChange, "+0.0;-0.0")
	} else {
		row.AddCell()
	}
}

func addKV(sheet *xlsx.Sheet, key, value string) {
	row := sheet.AddRow()
	row.AddCell().Value = key
	row.AddCell().Value = value
}

func formatRank(avgRank float64) string {
	if avgRank == 0 {
		return "not ranking"
	}
	return fmt.Sprintf("%.1f", avgRank)
}
