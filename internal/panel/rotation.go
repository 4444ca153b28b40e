package panel

import (
	"context"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/internal/odds"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// BuildRotation aligns participation rows to priced matches and labels each
// row with its team-season difficulty tercile.
func (b *Builder) BuildRotation(ctx context.Context, outcomes []domain.MatchOutcome, participation []domain.ParticipationRecord) ([]domain.RotationPanelRow, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(RotationStage)
	diag.RowsIn = len(participation)

	if err := odds.CheckUnique(outcomes); err != nil {
		return nil, diag, err
	}

	byKey := make(map[domain.MatchKey]domain.MatchOutcome, len(outcomes))
	for _, o := range outcomes {
		byKey[o.Key()] = o
	}

	terciles := TeamSeasonTerciles(outcomes)
	for _, k := range sortedTeamSeasons(terciles) {
		if terciles[k].Degenerate() {
			diag.Flag(domain.ReasonDegenerateTerciles, k.String())
			b.logger.WarnContext(ctx, "degenerate terciles",
				"team", string(k.TeamID),
				"season", int(k.Season),
				"q", terciles[k].Low)
		}
	}

	records, dups := dedupParticipation(participation)
	diag.Add(domain.ReasonDuplicateParticipation, dups)

	rows := make([]domain.RotationPanelRow, 0, len(records))
	for _, r := range records {
		m, ok := byKey[r.Key()]
		if !ok {
			diag.Add(domain.ReasonNoMatchingFixture, 1)
			continue
		}
		q := terciles[domain.TeamSeason{TeamID: m.TeamID, Season: m.Season}]
		rows = append(rows, domain.RotationPanelRow{
			Season:         m.Season,
			MatchID:        m.MatchID,
			Date:           m.Date,
			TeamID:         m.TeamID,
			OpponentID:     m.OpponentID,
			IsHome:         m.IsHome,
			PlayerID:       r.PlayerID,
			PlayerName:     r.PlayerName,
			Started:        r.Started,
			Minutes:        r.Minutes,
			ExpectedPoints: m.ExpectedPoints,
			Difficulty:     q.Label(m.ExpectedPoints),
		})
	}

	assignDaysRest(rows, b.cfg.MaxDaysRest)

	sort.SliceStable(rows, func(i, j int) bool {
		a, c := rows[i], rows[j]
		if a.Season != c.Season {
			return a.Season < c.Season
		}
		if a.TeamID != c.TeamID {
			return a.TeamID < c.TeamID
		}
		if !a.Date.Equal(c.Date) {
			return a.Date.Before(c.Date)
		}
		return a.PlayerID < c.PlayerID
	})

	diag.RowsOut = len(rows)
	if n := diag.Count(domain.ReasonNoMatchingFixture); n > 0 {
		b.logger.WarnContext(ctx, "participation rows without a priced fixture",
			"dropped", n,
			"rows_in", len(participation))
	}
	b.logger.InfoContext(ctx, "rotation panel built",
		"rows_in", diag.RowsIn,
		"rows_out", diag.RowsOut,
		"duplicates", dups,
		"team_seasons", len(terciles))
	return rows, diag.Sorted(), nil
}

// assignDaysRest sets the days since each player's previous row for the same
// team, ordered by date. Players are keyed by name, so scoping by team keeps
// namesakes at different clubs on separate sequences. The first row and gaps
// beyond maxRest get maxRest.
func assignDaysRest(rows []domain.RotationPanelRow, maxRest int) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, c := rows[order[i]], rows[order[j]]
		if a.PlayerID != c.PlayerID {
			return a.PlayerID < c.PlayerID
		}
		if a.TeamID != c.TeamID {
			return a.TeamID < c.TeamID
		}
		return a.Date.Before(c.Date)
	})

	for n, idx := range order {
		rest := maxRest
		if n > 0 {
			prev := rows[order[n-1]]
			if prev.PlayerID == rows[idx].PlayerID && prev.TeamID == rows[idx].TeamID {
				rest = int(rows[idx].Date.Sub(prev.Date).Hours() / 24)
			}
		}
		rows[idx].DaysRest = clip(rest, 0, maxRest)
	}
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
