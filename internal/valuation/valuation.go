// Package valuation prices a league point in pounds for each season.
package valuation

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// StageName labels the diagnostics of the point valuation.
const StageName = "valuation"

// PointValues divides each season's total prize money by the total league
// points of the clubs present in both the standings and the prize table.
func PointValues(ctx context.Context, logger *slog.Logger, standings []domain.StandingsRow, prizes []domain.PrizeMoney) ([]domain.PointValue, *domain.Diagnostics) {
	if logger == nil {
		logger = slog.Default()
	}
	diag := domain.NewDiagnostics(StageName)
	diag.RowsIn = len(standings)

	type key struct {
		season domain.Season
		team   domain.TeamID
	}
	prize := make(map[key]float64, len(prizes))
	for _, p := range prizes {
		prize[key{p.Season, p.TeamID}] += p.TotalGBP
	}

	acc := make(map[domain.Season]*domain.PointValue)
	for _, s := range standings {
		gbp, ok := prize[key{s.Season, s.TeamID}]
		if !ok {
			diag.Flag(domain.ReasonStandingsWithoutPrize, domain.TeamSeason{TeamID: s.TeamID, Season: s.Season}.String())
			continue
		}
		v, ok := acc[s.Season]
		if !ok {
			v = &domain.PointValue{Season: s.Season}
			acc[s.Season] = v
		}
		v.TotalGBP += gbp
		v.TotalPoints += s.Points
		v.Teams++
	}

	out := make([]domain.PointValue, 0, len(acc))
	for _, v := range acc {
		if v.TotalPoints > 0 {
			v.GBPPerPoint = v.TotalGBP / float64(v.TotalPoints)
		} else {
			v.GBPPerPoint = math.NaN()
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })

	diag.RowsOut = len(out)
	for _, v := range out {
		logger.InfoContext(ctx, "point value",
			"season", int(v.Season),
			"teams", v.Teams,
			"gbp_per_point", v.GBPPerPoint)
	}
	if n := diag.Count(domain.ReasonStandingsWithoutPrize); n > 0 {
		logger.WarnContext(ctx, "standings rows without prize money", "count", n)
	}
	return out, diag.Sorted()
}

// BySeason indexes values by season.
func BySeason(values []domain.PointValue) map[domain.Season]domain.PointValue {
	out := make(map[domain.Season]domain.PointValue, len(values))
	for _, v := range values {
		out[v.Season] = v
	}
	return out
}
