package dataprocessing

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// The readers below decode the tables persisted by earlier stages, so that any
// stage can be rerun from disk. Unlike the raw loaders they are strict: a bad
// cell means the artifact is corrupt and the whole read fails.

// record resolves named columns once and decodes cells of one row at a time.
// The first failure sticks and is reported by Err.
type record struct {
	t    *Table
	cols map[string]int
	row  []string
	line int
	err  error
}

func newRecord(t *Table, names ...string) (*record, error) {
	r := &record{t: t, cols: make(map[string]int, len(names))}
	for _, n := range names {
		idx, err := t.Require(n)
		if err != nil {
			return nil, err
		}
		r.cols[n] = idx
	}
	return r, nil
}

func (r *record) next(i int) {
	r.row = r.t.Rows[i]
	r.line = i + 2
}

func (r *record) fail(col, value string) {
	if r.err == nil {
		r.err = apperrors.NewParsingError(
			fmt.Sprintf("%s line %d: bad %s %q", r.t.Source, r.line, col, value), nil)
	}
}

func (r *record) strAt(col string) string {
	return Cell(r.row, r.cols[col])
}

func (r *record) intAt(col string) int {
	v := r.strAt(col)
	i, ok := parseInt(v)
	if !ok {
		r.fail(col, v)
	}
	return i
}

// optIntAt reads an empty cell as zero.
func (r *record) optIntAt(col string) int {
	if r.strAt(col) == "" {
		return 0
	}
	return r.intAt(col)
}

// floatAt reads an empty cell as NaN, the encoding of a missing estimate.
func (r *record) floatAt(col string) float64 {
	v := r.strAt(col)
	if v == "" {
		return math.NaN()
	}
	f, ok := parseFloat(v)
	if !ok {
		r.fail(col, v)
	}
	return f
}

func (r *record) boolAt(col string) bool {
	v := r.strAt(col)
	b, ok := parseBool(v)
	if !ok {
		r.fail(col, v)
	}
	return b
}

func (r *record) dateAt(col string) time.Time {
	v := r.strAt(col)
	d, ok := parseDate(v)
	if !ok {
		r.fail(col, v)
	}
	return d
}

func (r *record) seasonAt(col string) domain.Season {
	v := r.strAt(col)
	s, err := domain.ParseSeason(v)
	if err != nil {
		r.fail(col, v)
	}
	return s
}

// ReadMatchOutcomes decodes the match outcome table.
func ReadMatchOutcomes(t *Table) ([]domain.MatchOutcome, error) {
	r, err := newRecord(t, "season", "match_id", "date", "team_id", "opponent_id", "is_home",
		"win_prob", "draw_prob", "loss_prob", "expected_points",
		"result", "points", "goals_for", "goals_against", "n_injured_squad")
	if err != nil {
		return nil, err
	}
	out := make([]domain.MatchOutcome, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		o := domain.MatchOutcome{
			Season:         r.seasonAt("season"),
			MatchID:        r.intAt("match_id"),
			Date:           r.dateAt("date"),
			TeamID:         domain.TeamID(r.strAt("team_id")),
			OpponentID:     domain.TeamID(r.strAt("opponent_id")),
			IsHome:         r.boolAt("is_home"),
			WinProb:        r.floatAt("win_prob"),
			DrawProb:       r.floatAt("draw_prob"),
			LossProb:       r.floatAt("loss_prob"),
			ExpectedPoints: r.floatAt("expected_points"),
			NInjuredSquad:  r.optIntAt("n_injured_squad"),
		}
		if res := r.strAt("result"); res != "" {
			o.Result = res
			o.Points = r.intAt("points")
			o.GoalsFor = r.intAt("goals_for")
			o.GoalsAgainst = r.intAt("goals_against")
			o.HasResult = true
		}
		out = append(out, o)
	}
	return out, r.err
}

// ReadStandings decodes league tables.
func ReadStandings(t *Table) ([]domain.StandingsRow, error) {
	r, err := newRecord(t, "season", "position", "team_id", "played", "won", "drawn", "lost",
		"goals_for", "goals_against", "goal_diff", "points")
	if err != nil {
		return nil, err
	}
	out := make([]domain.StandingsRow, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		out = append(out, domain.StandingsRow{
			Season:       r.seasonAt("season"),
			Position:     r.intAt("position"),
			TeamID:       domain.TeamID(r.strAt("team_id")),
			Played:       r.intAt("played"),
			Won:          r.intAt("won"),
			Drawn:        r.intAt("drawn"),
			Lost:         r.intAt("lost"),
			GoalsFor:     r.intAt("goals_for"),
			GoalsAgainst: r.intAt("goals_against"),
			GoalDiff:     r.intAt("goal_diff"),
			Points:       r.intAt("points"),
		})
	}
	return out, r.err
}

// ReadPointValues decodes the per-season value of a league point.
func ReadPointValues(t *Table) ([]domain.PointValue, error) {
	r, err := newRecord(t, "season", "gbp_per_point", "total_gbp", "total_points", "teams")
	if err != nil {
		return nil, err
	}
	out := make([]domain.PointValue, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		out = append(out, domain.PointValue{
			Season:      r.seasonAt("season"),
			GBPPerPoint: r.floatAt("gbp_per_point"),
			TotalGBP:    r.floatAt("total_gbp"),
			TotalPoints: r.intAt("total_points"),
			Teams:       r.intAt("teams"),
		})
	}
	return out, r.err
}

// ReadRotationPanel decodes the rotation panel.
func ReadRotationPanel(t *Table) ([]domain.RotationPanelRow, error) {
	r, err := newRecord(t, "season", "match_id", "date", "team_id", "opponent_id", "is_home",
		"player_id", "player_name", "started", "minutes", "expected_points",
		"days_rest", "difficulty_label")
	if err != nil {
		return nil, err
	}
	out := make([]domain.RotationPanelRow, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		row := domain.RotationPanelRow{
			Season:         r.seasonAt("season"),
			MatchID:        r.intAt("match_id"),
			Date:           r.dateAt("date"),
			TeamID:         domain.TeamID(r.strAt("team_id")),
			OpponentID:     domain.TeamID(r.strAt("opponent_id")),
			IsHome:         r.boolAt("is_home"),
			PlayerID:       domain.PlayerID(r.strAt("player_id")),
			PlayerName:     r.strAt("player_name"),
			Started:        r.boolAt("started"),
			Minutes:        r.intAt("minutes"),
			ExpectedPoints: r.floatAt("expected_points"),
			DaysRest:       r.intAt("days_rest"),
			Difficulty:     domain.Difficulty(r.strAt("difficulty_label")),
		}
		if !row.Difficulty.IsValid() {
			r.fail("difficulty_label", string(row.Difficulty))
		}
		out = append(out, row)
	}
	return out, r.err
}

// ReadInjuryPanel decodes the injury panel.
func ReadInjuryPanel(t *Table) ([]domain.InjuryPanelRow, error) {
	r, err := newRecord(t, "season", "match_id", "date", "team_id", "opponent_id", "player_id",
		"player_name", "expected_points", "unavailable", "n_injured_squad",
		"match_index", "minutes", "started")
	if err != nil {
		return nil, err
	}
	out := make([]domain.InjuryPanelRow, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		out = append(out, domain.InjuryPanelRow{
			Season:         r.seasonAt("season"),
			MatchID:        r.intAt("match_id"),
			Date:           r.dateAt("date"),
			TeamID:         domain.TeamID(r.strAt("team_id")),
			OpponentID:     domain.TeamID(r.strAt("opponent_id")),
			PlayerID:       domain.PlayerID(r.strAt("player_id")),
			PlayerName:     r.strAt("player_name"),
			ExpectedPoints: r.floatAt("expected_points"),
			Unavailable:    r.boolAt("unavailable"),
			NInjuredSquad:  r.intAt("n_injured_squad"),
			MatchIndex:     r.intAt("match_index"),
			Minutes:        r.intAt("minutes"),
			Started:        r.boolAt("started"),
		})
	}
	return out, r.err
}

// ReadRotationProxies decodes rotation proxies.
func ReadRotationProxies(t *Table) ([]domain.RotationProxy, error) {
	r, err := newRecord(t, "player_id", "player_name", "team_id", "season", "n_matches",
		"n_starts", "start_rate_all", "n_hard", "n_hard_starts", "start_rate_hard",
		"n_easy", "n_easy_starts", "start_rate_easy", "rotation_elasticity",
		"q_low", "q_high", "degenerate_terciles")
	if err != nil {
		return nil, err
	}
	out := make([]domain.RotationProxy, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		out = append(out, domain.RotationProxy{
			PlayerID:           domain.PlayerID(r.strAt("player_id")),
			PlayerName:         r.strAt("player_name"),
			TeamID:             domain.TeamID(r.strAt("team_id")),
			Season:             r.seasonAt("season"),
			NMatches:           r.intAt("n_matches"),
			NStarts:            r.intAt("n_starts"),
			StartRateAll:       r.floatAt("start_rate_all"),
			NHard:              r.intAt("n_hard"),
			NHardStarts:        r.intAt("n_hard_starts"),
			StartRateHard:      r.floatAt("start_rate_hard"),
			NEasy:              r.intAt("n_easy"),
			NEasyStarts:        r.intAt("n_easy_starts"),
			StartRateEasy:      r.floatAt("start_rate_easy"),
			RotationElasticity: r.floatAt("rotation_elasticity"),
			QLow:               r.floatAt("q_low"),
			QHigh:              r.floatAt("q_high"),
			DegenerateTerciles: r.boolAt("degenerate_terciles"),
		})
	}
	return out, r.err
}

// ReadInjuryProxies decodes injury proxies, failed rows included.
func ReadInjuryProxies(t *Table) ([]domain.InjuryProxy, error) {
	r, err := newRecord(t, "player_id", "player_name", "team_id", "season", "beta_unavailable",
		"standard_error", "p_value", "n_unavailable", "n_available", "n_matches",
		"n_opp_clusters", "se_method", "estimation_status", "failure_reason",
		"xpts_per_match_present", "xpts_season_total", "gbp_per_point",
		"value_gbp_per_match", "value_gbp_season_total")
	if err != nil {
		return nil, err
	}
	out := make([]domain.InjuryProxy, 0, len(t.Rows))
	for i := range t.Rows {
		r.next(i)
		out = append(out, domain.InjuryProxy{
			PlayerID:            domain.PlayerID(r.strAt("player_id")),
			PlayerName:          r.strAt("player_name"),
			TeamID:              domain.TeamID(r.strAt("team_id")),
			Season:              r.seasonAt("season"),
			BetaUnavailable:     r.floatAt("beta_unavailable"),
			StandardError:       r.floatAt("standard_error"),
			PValue:              r.floatAt("p_value"),
			NUnavailable:        r.intAt("n_unavailable"),
			NAvailable:          r.intAt("n_available"),
			NMatches:            r.intAt("n_matches"),
			NOppClusters:        r.intAt("n_opp_clusters"),
			SEMethod:            domain.SEMethod(r.strAt("se_method")),
			Status:              domain.EstimationStatus(r.strAt("estimation_status")),
			FailureReason:       r.strAt("failure_reason"),
			XPtsPerMatchPresent: r.floatAt("xpts_per_match_present"),
			XPtsSeasonTotal:     r.floatAt("xpts_season_total"),
			GBPPerPoint:         r.floatAt("gbp_per_point"),
			ValueGBPPerMatch:    r.floatAt("value_gbp_per_match"),
			ValueGBPSeasonTotal: r.floatAt("value_gbp_season_total"),
		})
	}
	return out, r.err
}
