package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk date format for every table the pipeline reads or writes.
const DateLayout = "2006-01-02"

// Season is the starting year of a league season, e.g. 2019 for 2019-2020.
type Season int

// ParseSeason accepts "2019", "2019-2020", "2019/20" or "2019_2020".
// Only the first four digits are significant.
func ParseSeason(label string) (Season, error) {
	s := strings.TrimSpace(label)
	if len(s) < 4 {
		return 0, fmt.Errorf("season label %q too short", label)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, fmt.Errorf("season label %q: %w", label, err)
	}
	if year < 1888 || year > 2200 {
		return 0, fmt.Errorf("season label %q out of range", label)
	}
	return Season(year), nil
}

// Label returns the long form, e.g. "2019-2020".
func (s Season) Label() string {
	return fmt.Sprintf("%d-%d", int(s), int(s)+1)
}

// String implements fmt.Stringer
func (s Season) String() string {
	return strconv.Itoa(int(s))
}

// TeamID is a canonical club identifier such as "Man City".
type TeamID string

// PlayerID is the normalised identity key of a player.
type PlayerID string

// TeamSeason keys everything that is computed per club and season.
type TeamSeason struct {
	TeamID TeamID
	Season Season
}

// String implements fmt.Stringer
func (k TeamSeason) String() string {
	return fmt.Sprintf("%s/%d", k.TeamID, k.Season)
}

// PlayerTeamSeason is the unit of estimation for both proxies.
type PlayerTeamSeason struct {
	PlayerID PlayerID
	TeamID   TeamID
	Season   Season
}

// String implements fmt.Stringer
func (k PlayerTeamSeason) String() string {
	return fmt.Sprintf("%s@%s/%d", k.PlayerID, k.TeamID, k.Season)
}

// Less orders keys by season, team, then player.
func (k PlayerTeamSeason) Less(o PlayerTeamSeason) bool {
	if k.Season != o.Season {
		return k.Season < o.Season
	}
	if k.TeamID != o.TeamID {
		return k.TeamID < o.TeamID
	}
	return k.PlayerID < o.PlayerID
}

// ParseDate parses a DateLayout date, also accepting a trailing time component
// and the day-first layout used by football-data.co.uk files.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if len(v) >= 10 && v[4] == '-' {
		return time.Parse(DateLayout, v[:10])
	}
	for _, layout := range []string{"02/01/2006", "02/01/06"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}
