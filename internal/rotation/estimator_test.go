package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

var q = domain.Terciles{Low: 0.8 + 0.2*2.0/3.0, High: 1.8 + 0.4/3.0}

// panelFor labels six matches of the tercile example and marks starts.
func panelFor(player domain.PlayerID, started []bool) []domain.RotationPanelRow {
	xpts := []float64{0.5, 0.8, 1.0, 1.8, 2.2, 2.9}
	rows := make([]domain.RotationPanelRow, len(xpts))
	for i, x := range xpts {
		rows[i] = domain.RotationPanelRow{
			Season:         2019,
			MatchID:        i + 1,
			Date:           time.Date(2019, 8, 10+7*i, 0, 0, 0, 0, time.UTC),
			TeamID:         "Arsenal",
			PlayerID:       player,
			PlayerName:     string(player),
			Started:        started[i],
			ExpectedPoints: x,
			Difficulty:     q.Label(x),
		}
	}
	return rows
}

func terciles() map[domain.TeamSeason]domain.Terciles {
	return map[domain.TeamSeason]domain.Terciles{{TeamID: "Arsenal", Season: 2019}: q}
}

func TestEstimateWorkedExample(t *testing.T) {
	rows := panelFor("rotated", []bool{true, true, false, false, false, false})

	out, diag, err := NewEstimator(config.Default().Pipeline, nil).Estimate(context.Background(), rows, terciles())
	require.NoError(t, err)
	require.Len(t, out, 1)

	p := out[0]
	assert.Equal(t, 6, p.NMatches)
	assert.Equal(t, 2, p.NHard)
	assert.Equal(t, 2, p.NEasy)
	assert.Equal(t, 1.0, p.StartRateHard)
	assert.Equal(t, 0.0, p.StartRateEasy)
	assert.Equal(t, 1.0, p.RotationElasticity)
	assert.Equal(t, p.StartRateHard-p.StartRateEasy, p.RotationElasticity)
	assert.InDelta(t, 2.0/6.0, p.StartRateAll, 1e-12)
	assert.Equal(t, 2, p.NStarts)
	assert.Equal(t, q.Low, p.QLow)
	assert.False(t, p.DegenerateTerciles)
	assert.Equal(t, 1, diag.RowsOut)
}

func TestEstimateRetention(t *testing.T) {
	tests := []struct {
		name   string
		rows   []domain.RotationPanelRow
		reason domain.Reason
	}{
		{
			name:   "too few matches",
			rows:   panelFor("short", []bool{true, true, true, true, true, true})[4:],
			reason: domain.ReasonInsufficientSupport,
		},
		{
			name:   "no easy matches",
			rows:   panelFor("no-easy", []bool{true, true, true, true, true, true})[:4],
			reason: domain.ReasonInsufficientSupport,
		},
		{
			name:   "no hard matches",
			rows:   panelFor("no-hard", []bool{true, true, true, true, true, true})[2:],
			reason: domain.ReasonInsufficientSupport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag, err := NewEstimator(config.Default().Pipeline, nil).Estimate(context.Background(), tt.rows, terciles())
			require.NoError(t, err)
			assert.Empty(t, out)
			assert.Equal(t, 1, diag.Count(tt.reason))
		})
	}
}

func TestEstimateManyGroups(t *testing.T) {
	cfg := config.Default().Pipeline
	cfg.Workers = 3

	var rows []domain.RotationPanelRow
	players := []domain.PlayerID{"e", "a", "d", "c", "b"}
	for _, p := range players {
		rows = append(rows, panelFor(p, []bool{true, false, true, false, true, true})...)
	}
	out, diag, err := NewEstimator(cfg, nil).Estimate(context.Background(), rows, terciles())
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Equal(t, 30, diag.RowsIn)
	for i, want := range []domain.PlayerID{"a", "b", "c", "d", "e"} {
		assert.Equal(t, want, out[i].PlayerID)
		assert.Equal(t, -0.5, out[i].RotationElasticity)
		assert.GreaterOrEqual(t, out[i].NMatches, 3)
		assert.GreaterOrEqual(t, out[i].NHard, 1)
		assert.GreaterOrEqual(t, out[i].NEasy, 1)
	}
}

func TestEstimateDegenerateSeason(t *testing.T) {
	flat := domain.Terciles{Low: 1.2, High: 1.2}
	rows := panelFor("p", []bool{true, true, true, true, true, true})
	for i := range rows {
		rows[i].ExpectedPoints = 1.2
		rows[i].Difficulty = flat.Label(1.2)
	}
	ts := map[domain.TeamSeason]domain.Terciles{{TeamID: "Arsenal", Season: 2019}: flat}

	out, diag, err := NewEstimator(config.Default().Pipeline, nil).Estimate(context.Background(), rows, ts)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, diag.Count(domain.ReasonInsufficientSupport))
	assert.Equal(t, []string{"Arsenal/2019"}, diag.Groups[domain.ReasonDegenerateTerciles])
}

func TestEstimateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewEstimator(config.Default().Pipeline, nil).Estimate(ctx, panelFor("p", make([]bool, 6)), terciles())
	assert.ErrorIs(t, err, context.Canceled)
}
