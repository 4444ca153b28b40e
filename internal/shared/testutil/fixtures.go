package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Fixture is one priced league match.
type Fixture struct {
	Round     int
	Home      string
	Away      string
	HomeGoals int
	AwayGoals int
	// Decimal prices for home, draw and away.
	Odds [3]float64
}

// Appearance is one player-match row of the participation source.
type Appearance struct {
	Round   int
	Team    string
	Player  string
	Started bool
	Minutes int
}

// Spell is one absence of the injury source.
type Spell struct {
	Team   string
	Player string
	From   string
	To     string
}

// League is a small raw dataset for one season laid out the way the default
// path configuration expects it under the raw directory.
type League struct {
	Season      int
	Kickoff     time.Time
	Fixtures    []Fixture
	Appearances []Appearance
	Spells      []Spell
	// Prize money per club in pounds; no file is written when empty.
	Prizes map[string]float64
}

// DefaultLeague returns a four-club double round robin in 2019 with one
// Arsenal player who is rested in the hardest fixture and injured for two
// rounds.
func DefaultLeague() League {
	return League{
		Season:  2019,
		Kickoff: time.Date(2019, 8, 10, 0, 0, 0, 0, time.UTC),
		Fixtures: []Fixture{
			{1, "Arsenal", "Chelsea", 2, 1, [3]float64{2.0, 3.4, 3.8}},
			{1, "Liverpool", "Everton", 3, 0, [3]float64{1.5, 4.2, 6.5}},
			{2, "Everton", "Arsenal", 1, 1, [3]float64{3.0, 3.3, 2.4}},
			{2, "Chelsea", "Liverpool", 0, 2, [3]float64{3.1, 3.5, 2.2}},
			{3, "Arsenal", "Liverpool", 1, 3, [3]float64{3.5, 3.6, 2.0}},
			{3, "Everton", "Chelsea", 2, 2, [3]float64{3.2, 3.4, 2.2}},
			{4, "Chelsea", "Arsenal", 2, 0, [3]float64{2.1, 3.5, 3.4}},
			{4, "Everton", "Liverpool", 0, 1, [3]float64{5.0, 4.0, 1.6}},
			{5, "Arsenal", "Everton", 3, 1, [3]float64{1.4, 4.6, 8.0}},
			{5, "Liverpool", "Chelsea", 2, 1, [3]float64{1.7, 3.9, 4.8}},
			{6, "Liverpool", "Arsenal", 4, 0, [3]float64{1.3, 5.5, 9.0}},
			{6, "Chelsea", "Everton", 1, 0, [3]float64{1.6, 4.0, 5.5}},
		},
		Appearances: []Appearance{
			{1, "Arsenal", "Bukayo Saka", true, 90},
			{2, "Arsenal", "Bukayo Saka", true, 78},
			{3, "Arsenal", "Bukayo Saka", true, 90},
			{6, "Arsenal", "Bukayo Saka", false, 15},
		},
		Spells: []Spell{
			{"Arsenal", "Bukayo Saka", "2019-08-30", "2019-09-08"},
		},
		Prizes: map[string]float64{
			"Liverpool": 175_000_000,
			"Chelsea":   160_000_000,
			"Arsenal":   155_000_000,
			"Everton":   140_000_000,
		},
	}
}

// RoundDate returns the match date of a round, one week apart from Kickoff.
func (l League) RoundDate(round int) time.Time {
	return l.Kickoff.AddDate(0, 0, 7*(round-1))
}

// Write lays the dataset out under rawDir: odds/E0_<season>.csv,
// understat/understat_<season>.csv, injuries/injuries_<season>.csv and
// pl_prize_money.csv.
func (l League) Write(t *testing.T, rawDir string) {
	t.Helper()

	var b strings.Builder
	b.WriteString("Div,Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR,B365H,B365D,B365A\n")
	for _, f := range l.Fixtures {
		fmt.Fprintf(&b, "E0,%s,%s,%s,%d,%d,%s,%.2f,%.2f,%.2f\n",
			l.RoundDate(f.Round).Format("02/01/2006"), f.Home, f.Away,
			f.HomeGoals, f.AwayGoals, result(f.HomeGoals, f.AwayGoals),
			f.Odds[0], f.Odds[1], f.Odds[2])
	}
	WriteFile(t, rawDir, fmt.Sprintf("odds/E0_%d.csv", l.Season), b.String())

	b.Reset()
	b.WriteString("date,team,player_name,started,minutes\n")
	for _, a := range l.Appearances {
		fmt.Fprintf(&b, "%s,%s,%s,%t,%d\n",
			l.RoundDate(a.Round).Format("2006-01-02"), a.Team, a.Player, a.Started, a.Minutes)
	}
	WriteFile(t, rawDir, fmt.Sprintf("understat/understat_%d.csv", l.Season), b.String())

	b.Reset()
	b.WriteString("team,player_name,injury_start,injury_end\n")
	for _, s := range l.Spells {
		fmt.Fprintf(&b, "%s,%s,%s,%s\n", s.Team, s.Player, s.From, s.To)
	}
	WriteFile(t, rawDir, fmt.Sprintf("injuries/injuries_%d.csv", l.Season), b.String())

	if len(l.Prizes) == 0 {
		return
	}
	b.Reset()
	b.WriteString("season,team,pl_total_gbp\n")
	teams := make([]string, 0, len(l.Prizes))
	for team := range l.Prizes {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		fmt.Fprintf(&b, "%d,%s,%.0f\n", l.Season, team, l.Prizes[team])
	}
	WriteFile(t, rawDir, "pl_prize_money.csv", b.String())
}

func result(home, away int) string {
	switch {
	case home > away:
		return "H"
	case home < away:
		return "A"
	}
	return "D"
}
