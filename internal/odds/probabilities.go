package odds

import (
	"fmt"
	"math"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
)

// Probabilities is a margin-free home/draw/away distribution.
type Probabilities struct {
	Home float64
	Draw float64
	Away float64
}

// FromPrices inverts three decimal prices and removes the overround so the
// result sums to one.
func FromPrices(home, draw, away float64) (Probabilities, error) {
	for _, p := range []float64{home, draw, away} {
		if !(p > 0) || math.IsInf(p, 0) {
			return Probabilities{}, apperrors.NewInvalidOddsError(
				fmt.Sprintf("non-positive or non-finite price in (%v, %v, %v)", home, draw, away))
		}
	}

	rh, rd, ra := 1/home, 1/draw, 1/away
	overround := rh + rd + ra
	p := Probabilities{Home: rh / overround, Draw: rd / overround, Away: ra / overround}
	if !finite(p.Home) || !finite(p.Draw) || !finite(p.Away) {
		return Probabilities{}, apperrors.NewInvalidOddsError(
			fmt.Sprintf("non-finite probabilities from (%v, %v, %v)", home, draw, away))
	}
	return p, nil
}

// Overround returns the bookmaker margin embedded in the raw prices.
func Overround(home, draw, away float64) float64 {
	return 1/home + 1/draw + 1/away - 1
}

// ExpectedPoints is 3·P(win) + P(draw).
func ExpectedPoints(win, draw float64) float64 {
	return 3*win + draw
}

// HomeExpectedPoints returns the home side's expected points.
func (p Probabilities) HomeExpectedPoints() float64 {
	return ExpectedPoints(p.Home, p.Draw)
}

// AwayExpectedPoints returns the away side's expected points.
func (p Probabilities) AwayExpectedPoints() float64 {
	return ExpectedPoints(p.Away, p.Draw)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
