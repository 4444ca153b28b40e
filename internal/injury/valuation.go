package injury

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// ApplyPointValues interprets each successful coefficient as expected points
// gained per match the player is present and converts it to pounds with the
// season's value of a league point. Seasons without a value keep NaN currency
// fields and are reported in the returned list.
func ApplyPointValues(ctx context.Context, logger *slog.Logger, proxies []domain.InjuryProxy, values map[domain.Season]domain.PointValue) []domain.Season {
	if logger == nil {
		logger = slog.Default()
	}
	missing := make(map[domain.Season]bool)
	for i := range proxies {
		p := &proxies[i]
		if !p.OK() {
			continue
		}
		p.XPtsPerMatchPresent = -p.BetaUnavailable
		p.XPtsSeasonTotal = p.XPtsPerMatchPresent * float64(p.NMatches)

		v, ok := values[p.Season]
		if !ok || math.IsNaN(v.GBPPerPoint) {
			missing[p.Season] = true
			continue
		}
		p.GBPPerPoint = v.GBPPerPoint
		p.ValueGBPPerMatch = p.XPtsPerMatchPresent * v.GBPPerPoint
		p.ValueGBPSeasonTotal = p.XPtsSeasonTotal * v.GBPPerPoint
	}

	out := make([]domain.Season, 0, len(missing))
	for s := range missing {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	for _, s := range out {
		logger.WarnContext(ctx, "no point value for season, currency fields left empty", "season", int(s))
	}
	return out
}
