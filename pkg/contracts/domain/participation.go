package domain

import (
	"time"
)

// ParticipationRecord is one player's involvement in one team fixture.
type ParticipationRecord struct {
	Season     Season    `json:"season" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	TeamID     TeamID    `json:"team_id" validate:"required"`
	PlayerID   PlayerID  `json:"player_id" validate:"required"`
	PlayerName string    `json:"player_name"`
	Started    bool      `json:"started"`
	Minutes    int       `json:"minutes" validate:"min=0"`
}

// Key returns the fixture the record joins to.
func (p ParticipationRecord) Key() MatchKey {
	return MatchKey{Season: p.Season, Date: p.Date, TeamID: p.TeamID}
}

// InjurySpell is one absence interval for a player at a club, bounds inclusive.
type InjurySpell struct {
	Season     Season    `json:"season" validate:"required"`
	TeamID     TeamID    `json:"team_id" validate:"required"`
	PlayerID   PlayerID  `json:"player_id" validate:"required"`
	PlayerName string    `json:"player_name"`
	Start      time.Time `json:"injury_start" validate:"required"`
	End        time.Time `json:"injury_end" validate:"required"`
}

// Contains reports whether date falls inside the spell.
func (s InjurySpell) Contains(date time.Time) bool {
	return !date.Before(s.Start) && !date.After(s.End)
}

// Normalized returns the spell with its bounds in order and whether they were swapped.
func (s InjurySpell) Normalized() (InjurySpell, bool) {
	if s.Start.After(s.End) {
		s.Start, s.End = s.End, s.Start
		return s, true
	}
	return s, false
}
