package aggregate

// Position is the qualitative competitive state of the target business.
type Position string

const (
	PositionDominant   Position = "dominant"
	PositionStrong     Position = "strong"
	PositionModerate   Position = "moderate"
	PositionWeak       Position = "weak"
	PositionNotRanking Position = "not_ranking"
)

// Summary is a qualitative reading of a scan aggregation: where the target
// stands, who is ahead, and what to do next.
type Summary struct {
	TargetPosition   Position `json:"target_position"`
	CompetitorsAhead int      `json:"competitors_ahead"`
	MainThreats      []string `json:"main_threats"`
	Recommendation   string   `json:"recommendation"`
}

// recommendations is a fixed lookup keyed by position. Deliberately not a
// model or heuristic.
var recommendations = map[Position]string{
	PositionDominant:   "Maintain your lead: keep review velocity up and refresh photos and posts so competitors cannot close the gap.",
	PositionStrong:     "Push into the top 3: target the grid areas where you rank 4-10 with localized content and citation cleanup.",
	PositionModerate:   "Visibility is inconsistent across the area: audit your category selection and build reviews to stabilize rankings.",
	PositionWeak:       "Rankings are poor across most of the grid: verify your listing data, then invest in reviews and local links before rescanning.",
	PositionNotRanking: "You are not appearing in local results: confirm the listing exists, is verified, and matches the scanned keywords.",
}

// Summarize derives the competitive summary from an aggregation result.
// A zero average rank or zero top-20 appearances both mean the target is not
// ranking, whether that came from the synthesized never-observed row or a
// target that only appeared below the tracked depth.
func Summarize(result *Result) Summary {
	target := result.TargetStats

	var position Position
	switch {
	case target.AvgRank == 0 || target.TimesInTop20 == 0:
		position = PositionNotRanking
	default:
		position = Position(TierFor(target.AvgRank))
	}

	ahead := 0
	for _, c := range result.CompetitorStats {
		if c.AvgRank > 0 && (target.AvgRank == 0 || c.AvgRank < target.AvgRank) {
			ahead++
		}
	}

	var threats []string
	for _, c := range result.CompetitorStats {
		if c.ShareOfVoice > target.ShareOfVoice {
			threats = append(threats, c.BusinessName)
			if len(threats) == 3 {
				break
			}
		}
	}

	return Summary{
		TargetPosition:   position,
		CompetitorsAhead: ahead,
		MainThreats:      threats,
		Recommendation:   recommendations[position],
	}
}
