package odds

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

type mapResolver map[string]domain.TeamID

func (m mapResolver) CanonicalizeTeam(raw string) (domain.TeamID, error) {
	if id, ok := m[raw]; ok {
		return id, nil
	}
	return "", apperrors.NewUnresolvedEntityError("team", raw)
}

var teams = mapResolver{
	"Arsenal":   "Arsenal",
	"Chelsea":   "Chelsea",
	"Liverpool": "Liverpool",
	"Everton":   "Everton",
}

func day(d int) time.Time {
	return time.Date(2019, time.August, d, 0, 0, 0, 0, time.UTC)
}

func TestFromPrices(t *testing.T) {
	tests := []struct {
		name             string
		home, draw, away float64
		wantErr          bool
	}{
		{"typical", 2.10, 3.40, 3.60, false},
		{"heavy favourite", 1.20, 7.00, 15.00, false},
		{"fair book", 3.0, 3.0, 3.0, false},
		{"zero home", 0, 3.4, 3.6, true},
		{"negative away", 2.1, 3.4, -1, true},
		{"nan draw", 2.1, math.NaN(), 3.6, true},
		{"inf home", math.Inf(1), 3.4, 3.6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromPrices(tt.home, tt.draw, tt.away)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidOdds))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 1.0, p.Home+p.Draw+p.Away, 1e-12)
			assert.GreaterOrEqual(t, p.HomeExpectedPoints(), 0.0)
			assert.LessOrEqual(t, p.HomeExpectedPoints(), 3.0)
			assert.GreaterOrEqual(t, p.AwayExpectedPoints(), 0.0)
			assert.LessOrEqual(t, p.AwayExpectedPoints(), 3.0)
		})
	}
}

func TestFromPricesRemovesMargin(t *testing.T) {
	p, err := FromPrices(1.9, 1.9, 1.9)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, p.Home, 1e-12)
	assert.InDelta(t, 4.0/3, p.HomeExpectedPoints(), 1e-12)
	assert.InDelta(t, 3/1.9-1, Overround(1.9, 1.9, 1.9), 1e-12)
}

func TestBuildEmitsTwoRowsPerMatch(t *testing.T) {
	b := NewBuilder(config.Default().Pipeline, teams, nil)
	records := []domain.MatchRecord{
		{Season: 2019, Date: day(17), HomeTeam: "Liverpool", AwayTeam: "Arsenal", OddsHome: 1.5, OddsDraw: 4.5, OddsAway: 6.5, Result: "H", HomeGoals: 3, AwayGoals: 1, HasGoals: true},
		{Season: 2019, Date: day(10), HomeTeam: "Chelsea", AwayTeam: "Everton", OddsHome: 2.0, OddsDraw: 3.4, OddsAway: 3.8, Result: "D", HasGoals: true},
	}

	out, diag, err := b.Build(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, 2, diag.RowsIn)
	assert.Equal(t, 4, diag.RowsOut)

	// earliest match gets id 1
	assert.Equal(t, 1, out[0].MatchID)
	assert.Equal(t, domain.TeamID("Chelsea"), out[0].TeamID)
	assert.True(t, out[0].IsHome)
	assert.Equal(t, domain.TeamID("Everton"), out[1].TeamID)
	assert.Equal(t, domain.TeamID("Chelsea"), out[1].OpponentID)
	assert.Equal(t, 1, out[1].Points)

	home, away := out[2], out[3]
	assert.Equal(t, 2, home.MatchID)
	assert.Equal(t, home.WinProb, away.LossProb)
	assert.Equal(t, home.DrawProb, away.DrawProb)
	assert.Equal(t, 3, home.Points)
	assert.Equal(t, "W", home.Result)
	assert.Equal(t, 0, away.Points)
	assert.Equal(t, 1, away.GoalsFor)
	assert.Equal(t, 3, away.GoalsAgainst)
	assert.InDelta(t, 3*away.WinProb+away.DrawProb, away.ExpectedPoints, 1e-12)
}

func TestBuildExcludesInvalidAndUnresolved(t *testing.T) {
	cfg := config.Default().Pipeline
	cfg.InvalidOddsThreshold = 0.5
	b := NewBuilder(cfg, teams, nil)

	records := []domain.MatchRecord{
		{Season: 2019, Date: day(10), HomeTeam: "Chelsea", AwayTeam: "Everton", OddsHome: 0, OddsDraw: 3.4, OddsAway: 3.8},
		{Season: 2019, Date: day(11), HomeTeam: "Chelsea", AwayTeam: "Arsenal", OddsHome: 2, OddsDraw: 3.4, OddsAway: 3.8},
		{Season: 2019, Date: day(12), HomeTeam: "Real Madrid", AwayTeam: "Arsenal", OddsHome: 2, OddsDraw: 3.4, OddsAway: 3.8},
	}
	out, diag, err := b.Build(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, diag.Count(domain.ReasonInvalidOdds))
	assert.Equal(t, 1, diag.Count(domain.ReasonUnresolvedTeam))
	// ids are assigned after filtering
	assert.Equal(t, 1, out[0].MatchID)
	assert.False(t, out[0].HasResult)
}

func TestBuildFailsSeasonAboveThreshold(t *testing.T) {
	b := NewBuilder(config.Default().Pipeline, teams, nil)
	records := []domain.MatchRecord{
		{Season: 2020, Date: day(10), HomeTeam: "Chelsea", AwayTeam: "Everton", OddsHome: 0, OddsDraw: 3.4, OddsAway: 3.8},
		{Season: 2020, Date: day(11), HomeTeam: "Chelsea", AwayTeam: "Arsenal", OddsHome: 2, OddsDraw: 3.4, OddsAway: 3.8},
	}
	_, _, err := b.Build(context.Background(), records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataQuality))
	assert.True(t, apperrors.IsFatal(err))
}

func TestCheckUnique(t *testing.T) {
	rows := []domain.MatchOutcome{
		{Season: 2019, Date: day(10), TeamID: "Chelsea"},
		{Season: 2019, Date: day(10), TeamID: "Everton"},
	}
	require.NoError(t, CheckUnique(rows))

	rows = append(rows, domain.MatchOutcome{Season: 2019, Date: day(10), TeamID: "Chelsea"})
	err := CheckUnique(rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrKeyUniqueness))
	assert.Contains(t, err.Error(), "2019/2019-08-10/Chelsea")
}

func TestBuildStandings(t *testing.T) {
	b := NewBuilder(config.Default().Pipeline, teams, nil)
	records := []domain.MatchRecord{
		{Season: 2019, Date: day(10), HomeTeam: "Chelsea", AwayTeam: "Everton", OddsHome: 2, OddsDraw: 3.4, OddsAway: 3.8, Result: "H", HomeGoals: 2, AwayGoals: 0, HasGoals: true},
		{Season: 2019, Date: day(11), HomeTeam: "Arsenal", AwayTeam: "Liverpool", OddsHome: 2, OddsDraw: 3.4, OddsAway: 3.8, Result: "H", HomeGoals: 1, AwayGoals: 0, HasGoals: true},
		{Season: 2019, Date: day(18), HomeTeam: "Everton", AwayTeam: "Arsenal", OddsHome: 2, OddsDraw: 3.4, OddsAway: 3.8, Result: "D", HomeGoals: 1, AwayGoals: 1, HasGoals: true},
	}
	out, _, err := b.Build(context.Background(), records)
	require.NoError(t, err)

	table := BuildStandings(out)
	require.Len(t, table, 4)
	assert.Equal(t, domain.TeamID("Arsenal"), table[0].TeamID)
	assert.Equal(t, 4, table[0].Points)
	assert.Equal(t, 1, table[0].Position)
	assert.Equal(t, domain.TeamID("Chelsea"), table[1].TeamID)
	assert.Equal(t, 2, table[1].GoalDiff)
	assert.Equal(t, domain.TeamID("Everton"), table[2].TeamID)
	assert.Equal(t, 1, table[2].Drawn)
	assert.Equal(t, 4, table[3].Position)
	assert.Equal(t, 1, table[3].Lost)
}
