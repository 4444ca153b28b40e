package domain

import (
	"time"
)

// Difficulty is the within-team-season tercile label of a match.
type Difficulty string

const (
	DifficultyHard   Difficulty = "hard"
	DifficultyMedium Difficulty = "medium"
	DifficultyEasy   Difficulty = "easy"
)

// IsValid reports whether d is one of the three labels
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyHard, DifficultyMedium, DifficultyEasy:
		return true
	}
	return false
}

// Terciles holds the 1/3 and 2/3 expected-points quantiles of one team-season.
type Terciles struct {
	Low  float64 `json:"q_low"`
	High float64 `json:"q_high"`
}

// Label classifies x. Both boundaries are inclusive, hard wins when they coincide.
func (t Terciles) Label(x float64) Difficulty {
	if x <= t.Low {
		return DifficultyHard
	}
	if x >= t.High {
		return DifficultyEasy
	}
	return DifficultyMedium
}

// Degenerate reports a season whose terciles collapse into one point.
func (t Terciles) Degenerate() bool {
	return t.Low == t.High
}

// RotationPanelRow is one player's appearance aligned to a priced match.
type RotationPanelRow struct {
	Season         Season     `json:"season"`
	MatchID        int        `json:"match_id"`
	Date           time.Time  `json:"date"`
	TeamID         TeamID     `json:"team_id"`
	OpponentID     TeamID     `json:"opponent_id"`
	IsHome         bool       `json:"is_home"`
	PlayerID       PlayerID   `json:"player_id"`
	PlayerName     string     `json:"player_name"`
	Started        bool       `json:"started"`
	Minutes        int        `json:"minutes"`
	ExpectedPoints float64    `json:"expected_points"`
	DaysRest       int        `json:"days_rest"`
	Difficulty     Difficulty `json:"difficulty_label"`
}

// Key returns the estimation group of the row.
func (r RotationPanelRow) Key() PlayerTeamSeason {
	return PlayerTeamSeason{PlayerID: r.PlayerID, TeamID: r.TeamID, Season: r.Season}
}

// InjuryPanelRow is one team fixture seen from one injury-listed player.
type InjuryPanelRow struct {
	Season         Season    `json:"season"`
	MatchID        int       `json:"match_id"`
	Date           time.Time `json:"date"`
	TeamID         TeamID    `json:"team_id"`
	OpponentID     TeamID    `json:"opponent_id"`
	PlayerID       PlayerID  `json:"player_id"`
	PlayerName     string    `json:"player_name"`
	ExpectedPoints float64   `json:"expected_points"`
	Unavailable    bool      `json:"unavailable"`
	NInjuredSquad  int       `json:"n_injured_squad"`
	MatchIndex     int       `json:"match_index"`
	Minutes        int       `json:"minutes"`
	Started        bool      `json:"started"`
}

// Key returns the estimation group of the row.
func (r InjuryPanelRow) Key() PlayerTeamSeason {
	return PlayerTeamSeason{PlayerID: r.PlayerID, TeamID: r.TeamID, Season: r.Season}
}
