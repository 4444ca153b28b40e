package exporter

import (
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// Column layouts of the persisted tables. Downstream readers depend on these
// names and their order.
var (
	MatchOutcomeHeaders = []string{
		"season", "match_id", "date", "team_id", "opponent_id", "is_home",
		"win_prob", "draw_prob", "loss_prob", "expected_points",
		"result", "points", "goals_for", "goals_against", "n_injured_squad",
	}
	StandingsHeaders = []string{
		"season", "position", "team_id", "played", "won", "drawn", "lost",
		"goals_for", "goals_against", "goal_diff", "points",
	}
	PointValueHeaders = []string{
		"season", "gbp_per_point", "total_gbp", "total_points", "teams",
	}
	RotationPanelHeaders = []string{
		"season", "match_id", "date", "team_id", "opponent_id", "is_home",
		"player_id", "player_name", "started", "minutes", "expected_points",
		"days_rest", "difficulty_label",
	}
	InjuryPanelHeaders = []string{
		"season", "match_id", "date", "team_id", "opponent_id", "player_id",
		"player_name", "expected_points", "unavailable", "n_injured_squad",
		"match_index", "minutes", "started",
	}
	RotationProxyHeaders = []string{
		"player_id", "player_name", "team_id", "season", "n_matches", "n_starts",
		"start_rate_all", "n_hard", "n_hard_starts", "start_rate_hard", "n_easy",
		"n_easy_starts", "start_rate_easy", "rotation_elasticity", "q_low", "q_high",
		"degenerate_terciles",
	}
	InjuryProxyHeaders = []string{
		"player_id", "player_name", "team_id", "season", "beta_unavailable",
		"standard_error", "p_value", "n_unavailable", "n_available", "n_matches",
		"n_opp_clusters", "se_method", "estimation_status", "failure_reason",
		"xpts_per_match_present", "xpts_season_total", "gbp_per_point",
		"value_gbp_per_match", "value_gbp_season_total",
	}
	CombinedHeaders = []string{
		"player_id", "player_name", "team_id", "season", "has_rotation", "has_injury",
		"rotation_elasticity", "start_rate_hard", "start_rate_easy", "n_matches_rotation",
		"n_hard", "n_easy", "beta_unavailable", "standard_error", "p_value", "se_method",
		"estimation_status", "n_unavailable", "n_available", "xpts_season_total",
		"value_gbp_season_total",
	}
)

// MatchOutcomeTable encodes the match outcome table
func MatchOutcomeTable(rows []domain.MatchOutcome) Table {
	records := make([][]string, 0, len(rows))
	for _, o := range rows {
		result, points, gf, ga := "", "", "", ""
		if o.HasResult {
			result, points = o.Result, formatInt(o.Points)
			gf, ga = formatInt(o.GoalsFor), formatInt(o.GoalsAgainst)
		}
		records = append(records, []string{
			o.Season.String(), formatInt(o.MatchID), formatDate(o.Date),
			string(o.TeamID), string(o.OpponentID), formatBool(o.IsHome),
			formatFloat(o.WinProb), formatFloat(o.DrawProb), formatFloat(o.LossProb),
			formatFloat(o.ExpectedPoints), result, points, gf, ga, formatInt(o.NInjuredSquad),
		})
	}
	return Table{Name: "match_outcomes", Headers: MatchOutcomeHeaders, Records: records}
}

// StandingsTable encodes league tables
func StandingsTable(rows []domain.StandingsRow) Table {
	records := make([][]string, 0, len(rows))
	for _, s := range rows {
		records = append(records, []string{
			s.Season.String(), formatInt(s.Position), string(s.TeamID),
			formatInt(s.Played), formatInt(s.Won), formatInt(s.Drawn), formatInt(s.Lost),
			formatInt(s.GoalsFor), formatInt(s.GoalsAgainst), formatInt(s.GoalDiff),
			formatInt(s.Points),
		})
	}
	return Table{Name: "standings", Headers: StandingsHeaders, Records: records}
}

// PointValueTable encodes the per-season value of a league point
func PointValueTable(rows []domain.PointValue) Table {
	records := make([][]string, 0, len(rows))
	for _, v := range rows {
		records = append(records, []string{
			v.Season.String(), formatFloat(v.GBPPerPoint), formatFloat(v.TotalGBP),
			formatInt(v.TotalPoints), formatInt(v.Teams),
		})
	}
	return Table{Name: "points_to_pounds", Headers: PointValueHeaders, Records: records}
}

// RotationPanelTable encodes the rotation panel
func RotationPanelTable(rows []domain.RotationPanelRow) Table {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Season.String(), formatInt(r.MatchID), formatDate(r.Date),
			string(r.TeamID), string(r.OpponentID), formatBool(r.IsHome),
			string(r.PlayerID), r.PlayerName, formatBool(r.Started), formatInt(r.Minutes),
			formatFloat(r.ExpectedPoints), formatInt(r.DaysRest), string(r.Difficulty),
		})
	}
	return Table{Name: "rotation_panel", Headers: RotationPanelHeaders, Records: records}
}

// InjuryPanelTable encodes the injury panel
func InjuryPanelTable(rows []domain.InjuryPanelRow) Table {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Season.String(), formatInt(r.MatchID), formatDate(r.Date),
			string(r.TeamID), string(r.OpponentID), string(r.PlayerID), r.PlayerName,
			formatFloat(r.ExpectedPoints), formatBool(r.Unavailable), formatInt(r.NInjuredSquad),
			formatInt(r.MatchIndex), formatInt(r.Minutes), formatBool(r.Started),
		})
	}
	return Table{Name: "injury_panel", Headers: InjuryPanelHeaders, Records: records}
}

// RotationProxyTable encodes rotation proxies
func RotationProxyTable(rows []domain.RotationProxy) Table {
	records := make([][]string, 0, len(rows))
	for _, p := range rows {
		records = append(records, rotationRecord(p))
	}
	return Table{Name: "rotation_proxy", Headers: RotationProxyHeaders, Records: records}
}

func rotationRecord(p domain.RotationProxy) []string {
	return []string{
		string(p.PlayerID), p.PlayerName, string(p.TeamID), p.Season.String(),
		formatInt(p.NMatches), formatInt(p.NStarts), formatFloat(p.StartRateAll),
		formatInt(p.NHard), formatInt(p.NHardStarts), formatFloat(p.StartRateHard),
		formatInt(p.NEasy), formatInt(p.NEasyStarts), formatFloat(p.StartRateEasy),
		formatFloat(p.RotationElasticity), formatFloat(p.QLow), formatFloat(p.QHigh),
		formatBool(p.DegenerateTerciles),
	}
}

// InjuryProxyTable encodes injury proxies, failed rows included
func InjuryProxyTable(rows []domain.InjuryProxy) Table {
	records := make([][]string, 0, len(rows))
	for _, p := range rows {
		records = append(records, []string{
			string(p.PlayerID), p.PlayerName, string(p.TeamID), p.Season.String(),
			formatFloat(p.BetaUnavailable), formatFloat(p.StandardError), formatFloat(p.PValue),
			formatInt(p.NUnavailable), formatInt(p.NAvailable), formatInt(p.NMatches),
			formatInt(p.NOppClusters), string(p.SEMethod), string(p.Status), p.FailureReason,
			formatFloat(p.XPtsPerMatchPresent), formatFloat(p.XPtsSeasonTotal),
			formatFloat(p.GBPPerPoint), formatFloat(p.ValueGBPPerMatch),
			formatFloat(p.ValueGBPSeasonTotal),
		})
	}
	return Table{Name: "injury_proxy", Headers: InjuryProxyHeaders, Records: records}
}

// CombinedTable encodes the combined proxy table; cells of a missing proxy are empty
func CombinedTable(rows []domain.CombinedProxyRow) Table {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{
			string(r.PlayerID), r.PlayerName, string(r.TeamID), r.Season.String(),
			formatBool(r.HasRotation), formatBool(r.HasInjury),
		}
		if p := r.Rotation; p != nil {
			rec = append(rec,
				formatFloat(p.RotationElasticity), formatFloat(p.StartRateHard),
				formatFloat(p.StartRateEasy), formatInt(p.NMatches),
				formatInt(p.NHard), formatInt(p.NEasy))
		} else {
			rec = append(rec, "", "", "", "", "", "")
		}
		if p := r.Injury; p != nil {
			rec = append(rec,
				formatFloat(p.BetaUnavailable), formatFloat(p.StandardError),
				formatFloat(p.PValue), string(p.SEMethod), string(p.Status),
				formatInt(p.NUnavailable), formatInt(p.NAvailable),
				formatFloat(p.XPtsSeasonTotal), formatFloat(p.ValueGBPSeasonTotal))
		} else {
			rec = append(rec, "", "", "", "", "", "", "", "", "")
		}
		records = append(records, rec)
	}
	return Table{Name: "combined_proxies", Headers: CombinedHeaders, Records: records}
}
