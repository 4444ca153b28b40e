package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaxCondition is the largest condition number of XᵀX accepted as non-singular.
const MaxCondition = 1e12

var (
	// ErrSingular is returned when XᵀX is not positive definite or too ill-conditioned.
	ErrSingular = errors.New("singular design matrix")
	// ErrNoResidualDF is returned when there are no more rows than columns.
	ErrNoResidualDF = errors.New("no residual degrees of freedom")
)

// CovarianceKind selects the sandwich estimator.
type CovarianceKind int

const (
	// CovHC1 is White's estimator scaled by n/(n-k).
	CovHC1 CovarianceKind = iota
	// CovCluster is the Liang-Zeger estimator with the small-sample factor
	// G/(G-1)·(n-1)/(n-k).
	CovCluster
)

// String implements fmt.Stringer
func (c CovarianceKind) String() string {
	if c == CovCluster {
		return "cluster"
	}
	return "hc1"
}

// OLSOptions controls the covariance estimator of FitOLS.
type OLSOptions struct {
	// Clusters holds one label per row. Clustering is used when it is set and
	// has at least MinClusters distinct labels; otherwise HC1.
	Clusters    []string
	MinClusters int
}

// OLSResult holds coefficient estimates and robust inference.
type OLSResult struct {
	Coef      []float64
	StdErr    []float64
	PValues   []float64
	Residuals []float64
	N         int
	K         int
	Clusters  int
	Kind      CovarianceKind
	Cond      float64
}

// FitOLS regresses y on the columns of x. P-values use the normal reference
// distribution.
func FitOLS(x *mat.Dense, y []float64, opts OLSOptions) (*OLSResult, error) {
	n, k := x.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("design has %d rows, response has %d", n, len(y))
	}
	if opts.Clusters != nil && len(opts.Clusters) != n {
		return nil, fmt.Errorf("design has %d rows, clusters has %d", n, len(opts.Clusters))
	}
	if n-k <= 0 {
		return nil, ErrNoResidualDF
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, ErrSingular
	}
	cond := chol.Cond()
	if math.IsNaN(cond) || cond > MaxCondition {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingular, cond)
	}

	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(yv, &fitted)

	var bread mat.SymDense
	if err := chol.InverseTo(&bread); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	res := &OLSResult{
		N:    n,
		K:    k,
		Cond: cond,
	}

	groups := clusterIndex(opts.Clusters)
	res.Clusters = len(groups)

	meat := mat.NewSymDense(k, nil)
	var scale float64
	if opts.Clusters != nil && len(groups) >= opts.MinClusters && len(groups) > 1 {
		res.Kind = CovCluster
		score := mat.NewVecDense(k, nil)
		for _, rows := range groups {
			score.Zero()
			for _, i := range rows {
				score.AddScaledVec(score, resid.AtVec(i), x.RowView(i))
			}
			meat.SymRankOne(meat, 1, score)
		}
		g := float64(len(groups))
		scale = g / (g - 1) * float64(n-1) / float64(n-k)
	} else {
		res.Kind = CovHC1
		for i := 0; i < n; i++ {
			e := resid.AtVec(i)
			meat.SymRankOne(meat, e*e, x.RowView(i))
		}
		scale = float64(n) / float64(n-k)
	}

	var cov mat.Dense
	cov.Product(&bread, meat, &bread)
	cov.Scale(scale, &cov)

	res.Coef = make([]float64, k)
	res.StdErr = make([]float64, k)
	res.PValues = make([]float64, k)
	res.Residuals = make([]float64, n)
	for j := 0; j < k; j++ {
		res.Coef[j] = beta.AtVec(j)
		v := cov.At(j, j)
		if v < 0 {
			v = 0
		}
		res.StdErr[j] = math.Sqrt(v)
		res.PValues[j] = twoSidedP(res.Coef[j], res.StdErr[j])
	}
	for i := 0; i < n; i++ {
		res.Residuals[i] = resid.AtVec(i)
	}
	return res, nil
}

func twoSidedP(coef, se float64) float64 {
	if se == 0 || math.IsNaN(se) {
		return math.NaN()
	}
	z := math.Abs(coef / se)
	return 2 * distuv.UnitNormal.Survival(z)
}

// clusterIndex groups row indices by label in label order.
func clusterIndex(labels []string) [][]int {
	if labels == nil {
		return nil
	}
	byLabel := make(map[string][]int)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	keys := make([]string, 0, len(byLabel))
	for l := range byLabel {
		keys = append(keys, l)
	}
	sort.Strings(keys)
	out := make([][]int, 0, len(keys))
	for _, l := range keys {
		out = append(out, byLabel[l])
	}
	return out
}
