package panel

import (
	"log/slog"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/internal/stats"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// Stage names for the diagnostics of each sub-builder.
const (
	RotationStage = "rotation_panel"
	InjuryStage   = "injury_panel"
)

// Builder constructs the rotation and injury panels.
type Builder struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// NewBuilder creates a panel builder
func NewBuilder(cfg config.PipelineConfig, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// TeamSeasonTerciles computes expected-points terciles over each team-season's
// matches. Each outcome row is one team's view of one match, so every match
// contributes exactly once to its team's thresholds.
func TeamSeasonTerciles(outcomes []domain.MatchOutcome) map[domain.TeamSeason]domain.Terciles {
	xpts := make(map[domain.TeamSeason][]float64)
	for _, o := range outcomes {
		k := domain.TeamSeason{TeamID: o.TeamID, Season: o.Season}
		xpts[k] = append(xpts[k], o.ExpectedPoints)
	}
	out := make(map[domain.TeamSeason]domain.Terciles, len(xpts))
	for k, v := range xpts {
		out[k] = stats.Terciles(v)
	}
	return out
}

type participationKey struct {
	match  domain.MatchKey
	player domain.PlayerID
}

// dedupParticipation collapses repeated (season, date, team, player) rows,
// keeping the largest minutes and any start. The result is in input order of
// first occurrence.
func dedupParticipation(records []domain.ParticipationRecord) ([]domain.ParticipationRecord, int) {
	index := make(map[participationKey]int, len(records))
	out := make([]domain.ParticipationRecord, 0, len(records))
	dups := 0
	for _, r := range records {
		k := participationKey{r.Key(), r.PlayerID}
		if i, ok := index[k]; ok {
			dups++
			if r.Minutes > out[i].Minutes {
				out[i].Minutes = r.Minutes
			}
			out[i].Started = out[i].Started || r.Started
			if out[i].PlayerName == "" {
				out[i].PlayerName = r.PlayerName
			}
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out, dups
}

// sortedTeamSeasons returns the keys of m in (season, team) order.
func sortedTeamSeasons[V any](m map[domain.TeamSeason]V) []domain.TeamSeason {
	keys := make([]domain.TeamSeason, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Season != keys[j].Season {
			return keys[i].Season < keys[j].Season
		}
		return keys[i].TeamID < keys[j].TeamID
	})
	return keys
}
