// Package rotation estimates how much more often a player starts hard
// fixtures than easy ones within a team-season.
package rotation

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// StageName labels the diagnostics of the rotation estimator.
const StageName = "rotation"

// Estimator computes RotationProxy rows from the rotation panel.
type Estimator struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// NewEstimator creates a rotation estimator
func NewEstimator(cfg config.PipelineConfig, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{cfg: cfg, logger: logger}
}

type outcome struct {
	proxy  domain.RotationProxy
	reason domain.Reason
	kept   bool
}

// Estimate groups the panel by player-team-season and computes one proxy per
// retained group. terciles supplies the audit thresholds per team-season and
// may be nil.
func (e *Estimator) Estimate(ctx context.Context, rows []domain.RotationPanelRow, terciles map[domain.TeamSeason]domain.Terciles) ([]domain.RotationProxy, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(StageName)
	diag.RowsIn = len(rows)

	groups := make(map[domain.PlayerTeamSeason][]domain.RotationPanelRow)
	for _, r := range rows {
		groups[r.Key()] = append(groups[r.Key()], r)
	}
	keys := make([]domain.PlayerTeamSeason, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	results := make([]outcome, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.EffectiveWorkers())
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			q, ok := terciles[domain.TeamSeason{TeamID: k.TeamID, Season: k.Season}]
			if !ok {
				q = domain.Terciles{Low: math.NaN(), High: math.NaN()}
			}
			results[i] = e.estimateGroup(k, groups[k], q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, diag, err
	}

	proxies := make([]domain.RotationProxy, 0, len(results))
	degenerate := make(map[domain.TeamSeason]bool)
	for i, res := range results {
		if res.proxy.DegenerateTerciles {
			degenerate[domain.TeamSeason{TeamID: keys[i].TeamID, Season: keys[i].Season}] = true
		}
		if !res.kept {
			diag.Add(res.reason, 1)
			continue
		}
		proxies = append(proxies, res.proxy)
	}
	for _, ts := range sortedKeys(degenerate) {
		diag.Flag(domain.ReasonDegenerateTerciles, ts.String())
	}

	diag.RowsOut = len(proxies)
	e.logger.InfoContext(ctx, "rotation proxies estimated",
		"groups", len(keys),
		"retained", len(proxies),
		"insufficient_support", diag.Count(domain.ReasonInsufficientSupport),
		"undefined_elasticity", diag.Count(domain.ReasonUndefinedElasticity),
		"workers", e.cfg.EffectiveWorkers())
	return proxies, diag.Sorted(), nil
}

func (e *Estimator) estimateGroup(k domain.PlayerTeamSeason, rows []domain.RotationPanelRow, q domain.Terciles) outcome {
	p := domain.RotationProxy{
		PlayerID: k.PlayerID,
		TeamID:   k.TeamID,
		Season:   k.Season,
		NMatches: len(rows),
		QLow:     q.Low,
		QHigh:    q.High,
		// NaN thresholds compare unequal, so missing terciles are not degenerate.
		DegenerateTerciles: q.Degenerate(),
	}
	for _, r := range rows {
		if p.PlayerName == "" {
			p.PlayerName = r.PlayerName
		}
		if r.Started {
			p.NStarts++
		}
		switch r.Difficulty {
		case domain.DifficultyHard:
			p.NHard++
			if r.Started {
				p.NHardStarts++
			}
		case domain.DifficultyEasy:
			p.NEasy++
			if r.Started {
				p.NEasyStarts++
			}
		}
	}
	p.StartRateAll = rate(p.NStarts, p.NMatches)
	p.StartRateHard = rate(p.NHardStarts, p.NHard)
	p.StartRateEasy = rate(p.NEasyStarts, p.NEasy)
	p.RotationElasticity = p.StartRateHard - p.StartRateEasy

	if p.NMatches < e.cfg.RotationMinMatches || p.NHard < e.cfg.RotationMinHard || p.NEasy < e.cfg.RotationMinEasy {
		return outcome{proxy: p, reason: domain.ReasonInsufficientSupport}
	}
	if math.IsNaN(p.RotationElasticity) || math.IsInf(p.RotationElasticity, 0) {
		return outcome{proxy: p, reason: domain.ReasonUndefinedElasticity}
	}
	return outcome{proxy: p, kept: true}
}

func rate(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

func sortedKeys(m map[domain.TeamSeason]bool) []domain.TeamSeason {
	out := make([]domain.TeamSeason, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}
