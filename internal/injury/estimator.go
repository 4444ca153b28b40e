// Package injury estimates, per player-team-season, the association between
// a player's unavailability and the team's expected points.
package injury

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/stats"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// StageName labels the diagnostics of the injury estimator.
const StageName = "injury"

// Column positions of the fixed regressors in the design matrix.
const (
	colIntercept = iota
	colUnavailable
	colSquad
	fixedColumns
)

// Estimator fits one regression per player-team-season of the injury panel.
type Estimator struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// NewEstimator creates an injury estimator
func NewEstimator(cfg config.PipelineConfig, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{cfg: cfg, logger: logger}
}

// Estimate returns one InjuryProxy per group that meets the support
// thresholds. Groups below them are only counted in the diagnostics; groups
// whose regression fails are kept with NaN estimates. A failure in one group
// never affects the others.
func (e *Estimator) Estimate(ctx context.Context, rows []domain.InjuryPanelRow) ([]domain.InjuryProxy, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(StageName)
	diag.RowsIn = len(rows)

	groups := make(map[domain.PlayerTeamSeason][]domain.InjuryPanelRow)
	for _, r := range rows {
		groups[r.Key()] = append(groups[r.Key()], r)
	}
	keys := make([]domain.PlayerTeamSeason, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	proxies := make([]domain.InjuryProxy, len(keys))
	errs := make([]error, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.EffectiveWorkers())
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			proxies[i], errs[i] = e.estimateGroup(k, groups[k])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, diag, err
	}

	retained := make([]domain.InjuryProxy, 0, len(proxies))
	for i, err := range errs {
		if errors.Is(err, apperrors.ErrInsufficientSupport) {
			diag.Add(domain.ReasonInsufficientSupport, 1)
			continue
		}
		retained = append(retained, proxies[i])
		if err == nil {
			continue
		}
		diag.Flag(domain.ReasonEstimationFailure, keys[i].String())
		e.logger.WarnContext(ctx, "injury regression failed",
			"group", keys[i].String(),
			"reason", proxies[i].FailureReason,
			"error", err)
	}

	ok := 0
	for _, p := range retained {
		if p.OK() {
			ok++
		}
	}
	diag.RowsOut = len(retained)
	e.logger.InfoContext(ctx, "injury proxies estimated",
		"groups", len(keys),
		"ok", ok,
		"insufficient_support", diag.Count(domain.ReasonInsufficientSupport),
		"estimation_failure", diag.Count(domain.ReasonEstimationFailure),
		"workers", e.cfg.EffectiveWorkers())
	return retained, diag.Sorted(), nil
}

func (e *Estimator) estimateGroup(k domain.PlayerTeamSeason, rows []domain.InjuryPanelRow) (domain.InjuryProxy, error) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].MatchIndex < rows[j].MatchIndex })

	p := domain.InjuryProxy{
		PlayerID:            k.PlayerID,
		TeamID:              k.TeamID,
		Season:              k.Season,
		NMatches:            len(rows),
		BetaUnavailable:     math.NaN(),
		StandardError:       math.NaN(),
		PValue:              math.NaN(),
		XPtsPerMatchPresent: math.NaN(),
		XPtsSeasonTotal:     math.NaN(),
		GBPPerPoint:         math.NaN(),
		ValueGBPPerMatch:    math.NaN(),
		ValueGBPSeasonTotal: math.NaN(),
		Status:              domain.EstimationFailed,
	}
	opponents := make(map[domain.TeamID]struct{})
	for _, r := range rows {
		if p.PlayerName == "" {
			p.PlayerName = r.PlayerName
		}
		if r.Unavailable {
			p.NUnavailable++
		} else {
			p.NAvailable++
		}
		opponents[r.OpponentID] = struct{}{}
	}
	p.NOppClusters = len(opponents)

	if p.NUnavailable < e.cfg.InjuryMinUnavailable || p.NAvailable < e.cfg.InjuryMinAvailable {
		p.FailureReason = domain.FailureInsufficientSupport
		return p, apperrors.NewInsufficientSupportError(k.String(), "too few matches on one side of the unavailability split")
	}

	x, y, clusters := design(rows)
	res, err := stats.FitOLS(x, y, stats.OLSOptions{Clusters: clusters, MinClusters: e.cfg.MinOpponentClusters})
	if err != nil {
		switch {
		case errors.Is(err, stats.ErrNoResidualDF):
			p.FailureReason = domain.FailureNoResidualDF
		case errors.Is(err, stats.ErrSingular):
			p.FailureReason = domain.FailureSingularDesign
		default:
			p.FailureReason = err.Error()
		}
		return p, apperrors.NewEstimationError(k.String(), err)
	}

	beta, se, pv := res.Coef[colUnavailable], res.StdErr[colUnavailable], res.PValues[colUnavailable]
	if math.IsNaN(beta) || math.IsInf(beta, 0) || math.IsNaN(se) || math.IsInf(se, 0) {
		p.FailureReason = domain.FailureNonFinite
		return p, apperrors.NewEstimationError(k.String(), errors.New("non-finite coefficient or standard error"))
	}

	p.BetaUnavailable = beta
	p.StandardError = se
	p.PValue = pv
	p.Status = domain.EstimationOK
	p.SEMethod = domain.SEMethodHC1
	if res.Kind == stats.CovCluster {
		p.SEMethod = domain.SEMethodClustered
	}
	return p, nil
}

// design builds [1, unavailable, n_injured_squad, opponent dummies..., match_index].
// The first opponent in lexical order is the omitted category.
func design(rows []domain.InjuryPanelRow) (*mat.Dense, []float64, []string) {
	seen := make(map[domain.TeamID]struct{})
	var opps []domain.TeamID
	for _, r := range rows {
		if _, ok := seen[r.OpponentID]; !ok {
			seen[r.OpponentID] = struct{}{}
			opps = append(opps, r.OpponentID)
		}
	}
	sort.Slice(opps, func(i, j int) bool { return opps[i] < opps[j] })
	dummy := make(map[domain.TeamID]int, len(opps))
	for i, o := range opps[1:] {
		dummy[o] = fixedColumns + i
	}

	n := len(rows)
	k := fixedColumns + len(opps) - 1 + 1
	x := mat.NewDense(n, k, nil)
	y := make([]float64, n)
	clusters := make([]string, n)
	for i, r := range rows {
		x.Set(i, colIntercept, 1)
		if r.Unavailable {
			x.Set(i, colUnavailable, 1)
		}
		x.Set(i, colSquad, float64(r.NInjuredSquad))
		if c, ok := dummy[r.OpponentID]; ok {
			x.Set(i, c, 1)
		}
		x.Set(i, k-1, float64(r.MatchIndex))
		y[i] = r.ExpectedPoints
		clusters[i] = string(r.OpponentID)
	}
	return x, y, clusters
}
