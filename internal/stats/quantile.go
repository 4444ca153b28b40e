package stats

import (
	"math"
	"sort"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// Quantile returns the p-quantile of values by linear interpolation between
// order statistics (Hyndman-Fan type 7). values need not be sorted and is not
// modified. NaN is returned for an empty input.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Terciles returns the 1/3 and 2/3 quantiles of values.
func Terciles(values []float64) domain.Terciles {
	if len(values) == 0 {
		return domain.Terciles{Low: math.NaN(), High: math.NaN()}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return domain.Terciles{
		Low:  quantileSorted(sorted, 1.0/3.0),
		High: quantileSorted(sorted, 2.0/3.0),
	}
}
