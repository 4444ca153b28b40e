package domain

import (
	"time"
)

// MatchRecord is one raw row of the match/odds source with team names still in
// source spelling.
type MatchRecord struct {
	Line      int       `json:"line"`
	Season    Season    `json:"season" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	HomeTeam  string    `json:"home_team" validate:"required"`
	AwayTeam  string    `json:"away_team" validate:"required"`
	OddsHome  float64   `json:"odds_home"`
	OddsDraw  float64   `json:"odds_draw"`
	OddsAway  float64   `json:"odds_away"`
	Result    string    `json:"result" validate:"omitempty,oneof=H D A"`
	HomeGoals int       `json:"home_goals" validate:"min=0"`
	AwayGoals int       `json:"away_goals" validate:"min=0"`
	HasGoals  bool      `json:"has_goals"`
}

// MatchOutcome is one side of one match, priced from the betting market.
type MatchOutcome struct {
	Season         Season    `json:"season"`
	MatchID        int       `json:"match_id"`
	Date           time.Time `json:"date"`
	TeamID         TeamID    `json:"team_id"`
	OpponentID     TeamID    `json:"opponent_id"`
	IsHome         bool      `json:"is_home"`
	WinProb        float64   `json:"win_prob"`
	DrawProb       float64   `json:"draw_prob"`
	LossProb       float64   `json:"loss_prob"`
	ExpectedPoints float64   `json:"expected_points"`

	// Result fields are populated only when the source carries them.
	Result       string `json:"result,omitempty"`
	Points       int    `json:"points"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	HasResult    bool   `json:"has_result"`

	// NInjuredSquad is attached by the injury sub-builder.
	NInjuredSquad int `json:"n_injured_squad"`
}

// Key returns the join key used by the rotation sub-builder.
func (m MatchOutcome) Key() MatchKey {
	return MatchKey{Season: m.Season, Date: m.Date, TeamID: m.TeamID}
}

// MatchKey identifies a team's fixture on a given date.
type MatchKey struct {
	Season Season
	Date   time.Time
	TeamID TeamID
}

// StandingsRow is one line of a season's final league table.
type StandingsRow struct {
	Season       Season `json:"season"`
	Position     int    `json:"position"`
	TeamID       TeamID `json:"team_id"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	GoalDiff     int    `json:"goal_diff"`
	Points       int    `json:"points"`
}

// PrizeMoney is the league prize paid to one club for one season.
type PrizeMoney struct {
	Season   Season  `json:"season" validate:"required"`
	TeamID   TeamID  `json:"team_id" validate:"required"`
	TotalGBP float64 `json:"total_gbp" validate:"gte=0"`
}

// PointValue maps one season's league points onto currency.
type PointValue struct {
	Season      Season  `json:"season"`
	GBPPerPoint float64 `json:"gbp_per_point"`
	TotalGBP    float64 `json:"total_gbp"`
	TotalPoints int     `json:"total_points"`
	Teams       int     `json:"teams"`
}
