package odds

import (
	"sort"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// BuildStandings aggregates result-bearing outcome rows into final league
// tables, ordered per season by points, goal difference, goals scored, team.
func BuildStandings(outcomes []domain.MatchOutcome) []domain.StandingsRow {
	type key struct {
		season domain.Season
		team   domain.TeamID
	}
	table := make(map[key]*domain.StandingsRow)

	for _, o := range outcomes {
		if !o.HasResult {
			continue
		}
		k := key{o.Season, o.TeamID}
		row, ok := table[k]
		if !ok {
			row = &domain.StandingsRow{Season: o.Season, TeamID: o.TeamID}
			table[k] = row
		}
		row.Played++
		row.GoalsFor += o.GoalsFor
		row.GoalsAgainst += o.GoalsAgainst
		row.Points += o.Points
		switch o.Points {
		case 3:
			row.Won++
		case 1:
			row.Drawn++
		default:
			row.Lost++
		}
	}

	rows := make([]domain.StandingsRow, 0, len(table))
	for _, r := range table {
		r.GoalDiff = r.GoalsFor - r.GoalsAgainst
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	})

	pos := 0
	for i := range rows {
		if i == 0 || rows[i].Season != rows[i-1].Season {
			pos = 0
		}
		pos++
		rows[i].Position = pos
	}
	return rows
}
