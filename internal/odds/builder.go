package odds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// StageName labels the diagnostics of the match outcome stage.
const StageName = "matches"

// TeamResolver canonicalises source team names.
type TeamResolver interface {
	CanonicalizeTeam(raw string) (domain.TeamID, error)
}

// Builder turns raw match rows into the long-form match outcome table.
type Builder struct {
	cfg      config.PipelineConfig
	resolver TeamResolver
	logger   *slog.Logger
}

// NewBuilder creates a match outcome builder
func NewBuilder(cfg config.PipelineConfig, resolver TeamResolver, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, resolver: resolver, logger: logger}
}

type pricedMatch struct {
	rec   domain.MatchRecord
	home  domain.TeamID
	away  domain.TeamID
	probs Probabilities
}

// Build prices every record and emits one row per side. Rows with unresolved
// teams or invalid prices are excluded and counted; a season whose invalid
// price fraction exceeds the configured threshold fails with a DataQualityError.
func (b *Builder) Build(ctx context.Context, records []domain.MatchRecord) ([]domain.MatchOutcome, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(StageName)
	diag.RowsIn = len(records)

	seasonTotal := make(map[domain.Season]int)
	seasonInvalid := make(map[domain.Season]int)
	bySeason := make(map[domain.Season][]pricedMatch)

	for _, rec := range records {
		seasonTotal[rec.Season]++

		home, errHome := b.resolver.CanonicalizeTeam(rec.HomeTeam)
		away, errAway := b.resolver.CanonicalizeTeam(rec.AwayTeam)
		if err := errors.Join(errHome, errAway); err != nil {
			diag.Add(domain.ReasonUnresolvedTeam, 1)
			b.logger.WarnContext(ctx, "dropping match with unresolved team",
				"season", int(rec.Season),
				"line", rec.Line,
				"home", rec.HomeTeam,
				"away", rec.AwayTeam)
			continue
		}

		probs, err := FromPrices(rec.OddsHome, rec.OddsDraw, rec.OddsAway)
		if err != nil {
			seasonInvalid[rec.Season]++
			diag.Add(domain.ReasonInvalidOdds, 1)
			b.logger.WarnContext(ctx, "dropping match with invalid odds",
				"season", int(rec.Season),
				"line", rec.Line,
				"error", err)
			continue
		}

		bySeason[rec.Season] = append(bySeason[rec.Season], pricedMatch{rec: rec, home: home, away: away, probs: probs})
	}

	seasons := make([]domain.Season, 0, len(seasonTotal))
	for s := range seasonTotal {
		seasons = append(seasons, s)
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i] < seasons[j] })

	for _, s := range seasons {
		if seasonInvalid[s] == 0 {
			continue
		}
		fraction := float64(seasonInvalid[s]) / float64(seasonTotal[s])
		if fraction > b.cfg.InvalidOddsThreshold {
			return nil, diag, apperrors.NewDataQualityError(int(s), fraction, b.cfg.InvalidOddsThreshold)
		}
	}

	var out []domain.MatchOutcome
	for _, s := range seasons {
		matches := bySeason[s]
		sort.SliceStable(matches, func(i, j int) bool {
			a, c := matches[i], matches[j]
			if !a.rec.Date.Equal(c.rec.Date) {
				return a.rec.Date.Before(c.rec.Date)
			}
			if a.home != c.home {
				return a.home < c.home
			}
			return a.away < c.away
		})
		for i, m := range matches {
			homeRow, awayRow := sides(m, i+1)
			out = append(out, homeRow, awayRow)
		}
	}

	diag.RowsOut = len(out)
	b.logger.InfoContext(ctx, "match outcomes built",
		"matches_in", len(records),
		"rows_out", len(out),
		"seasons", len(seasons),
		"invalid_odds", diag.Count(domain.ReasonInvalidOdds),
		"unresolved_team", diag.Count(domain.ReasonUnresolvedTeam))
	return out, diag, nil
}

func sides(m pricedMatch, matchID int) (domain.MatchOutcome, domain.MatchOutcome) {
	home := domain.MatchOutcome{
		Season:         m.rec.Season,
		MatchID:        matchID,
		Date:           m.rec.Date,
		TeamID:         m.home,
		OpponentID:     m.away,
		IsHome:         true,
		WinProb:        m.probs.Home,
		DrawProb:       m.probs.Draw,
		LossProb:       m.probs.Away,
		ExpectedPoints: m.probs.HomeExpectedPoints(),
	}
	away := domain.MatchOutcome{
		Season:         m.rec.Season,
		MatchID:        matchID,
		Date:           m.rec.Date,
		TeamID:         m.away,
		OpponentID:     m.home,
		IsHome:         false,
		WinProb:        m.probs.Away,
		DrawProb:       m.probs.Draw,
		LossProb:       m.probs.Home,
		ExpectedPoints: m.probs.AwayExpectedPoints(),
	}

	if m.rec.Result != "" || m.rec.HasGoals {
		result := m.rec.Result
		if result == "" {
			result = resultFromGoals(m.rec.HomeGoals, m.rec.AwayGoals)
		}
		home.HasResult, away.HasResult = true, true
		home.GoalsFor, home.GoalsAgainst = m.rec.HomeGoals, m.rec.AwayGoals
		away.GoalsFor, away.GoalsAgainst = m.rec.AwayGoals, m.rec.HomeGoals
		switch result {
		case "H":
			home.Result, home.Points = "W", 3
			away.Result, away.Points = "L", 0
		case "A":
			home.Result, home.Points = "L", 0
			away.Result, away.Points = "W", 3
		default:
			home.Result, home.Points = "D", 1
			away.Result, away.Points = "D", 1
		}
	}
	return home, away
}

func resultFromGoals(home, away int) string {
	switch {
	case home > away:
		return "H"
	case home < away:
		return "A"
	}
	return "D"
}

// CheckUnique asserts the table holds at most one row per (season, date, team).
func CheckUnique(outcomes []domain.MatchOutcome) error {
	seen := make(map[domain.MatchKey]struct{}, len(outcomes))
	dups := 0
	first := ""
	for _, o := range outcomes {
		k := o.Key()
		if _, ok := seen[k]; ok {
			if dups == 0 {
				first = fmt.Sprintf("%d/%s/%s", int(k.Season), k.Date.Format(domain.DateLayout), k.TeamID)
			}
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	if dups > 0 {
		return apperrors.NewKeyUniquenessError("match_outcomes", dups, first)
	}
	return nil
}
