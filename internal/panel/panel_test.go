package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2019, time.August, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

// sixMatches is one team-season with the expected points of the tercile example.
func sixMatches(team domain.TeamID) []domain.MatchOutcome {
	xpts := []float64{0.5, 0.8, 1.0, 1.8, 2.2, 2.9}
	out := make([]domain.MatchOutcome, len(xpts))
	for i, x := range xpts {
		out[i] = domain.MatchOutcome{
			Season:         2019,
			MatchID:        i + 1,
			Date:           day(7 * i),
			TeamID:         team,
			OpponentID:     domain.TeamID("Opp" + string(rune('A'+i))),
			ExpectedPoints: x,
		}
	}
	return out
}

func newBuilder() *Builder {
	return NewBuilder(config.Default().Pipeline, nil)
}

func TestBuildRotationLabelsAndJoins(t *testing.T) {
	outcomes := sixMatches("Arsenal")
	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "saka", Started: true, Minutes: 90},
		{Season: 2019, Date: day(7), TeamID: "Arsenal", PlayerID: "saka", Started: true, Minutes: 80},
		{Season: 2019, Date: day(14), TeamID: "Arsenal", PlayerID: "saka", Started: false, Minutes: 20},
		{Season: 2019, Date: day(35), TeamID: "Arsenal", PlayerID: "saka", Started: false, Minutes: 10},
		// no fixture on this date
		{Season: 2019, Date: day(3), TeamID: "Arsenal", PlayerID: "saka", Started: true, Minutes: 90},
		// duplicate of the first row
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "saka", Started: false, Minutes: 95},
	}

	rows, diag, err := newBuilder().BuildRotation(context.Background(), outcomes, participation)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, 6, diag.RowsIn)
	assert.Equal(t, 4, diag.RowsOut)
	assert.Equal(t, 1, diag.Count(domain.ReasonNoMatchingFixture))
	assert.Equal(t, 1, diag.Count(domain.ReasonDuplicateParticipation))

	assert.Equal(t, domain.DifficultyHard, rows[0].Difficulty)
	assert.Equal(t, domain.DifficultyHard, rows[1].Difficulty)
	assert.Equal(t, domain.DifficultyMedium, rows[2].Difficulty)
	assert.Equal(t, domain.DifficultyEasy, rows[3].Difficulty)

	// duplicate folded into max minutes, any start
	assert.Equal(t, 95, rows[0].Minutes)
	assert.True(t, rows[0].Started)

	assert.Equal(t, 30, rows[0].DaysRest)
	assert.Equal(t, 7, rows[1].DaysRest)
	assert.Equal(t, 7, rows[2].DaysRest)
	assert.Equal(t, 21, rows[3].DaysRest)
	assert.Equal(t, 6, rows[3].MatchID)
}

func TestBuildRotationDaysRestCap(t *testing.T) {
	cfg := config.Default().Pipeline
	cfg.MaxDaysRest = 10
	outcomes := sixMatches("Arsenal")
	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "p"},
		{Season: 2019, Date: day(35), TeamID: "Arsenal", PlayerID: "p"},
	}
	rows, _, err := NewBuilder(cfg, nil).BuildRotation(context.Background(), outcomes, participation)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 10, rows[0].DaysRest)
	assert.Equal(t, 10, rows[1].DaysRest)
}

func TestBuildRotationDaysRestPerTeam(t *testing.T) {
	outcomes := append(sixMatches("Arsenal"), sixMatches("Everton")...)
	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "ben-davies"},
		{Season: 2019, Date: day(7), TeamID: "Arsenal", PlayerID: "ben-davies"},
		{Season: 2019, Date: day(7), TeamID: "Everton", PlayerID: "ben-davies"},
		{Season: 2019, Date: day(21), TeamID: "Everton", PlayerID: "ben-davies"},
	}

	rows, _, err := newBuilder().BuildRotation(context.Background(), outcomes, participation)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	rest := make(map[domain.TeamID][]int)
	for _, r := range rows {
		rest[r.TeamID] = append(rest[r.TeamID], r.DaysRest)
	}
	assert.Equal(t, []int{30, 7}, rest["Arsenal"])
	assert.Equal(t, []int{30, 14}, rest["Everton"])
}

func TestBuildRotationRejectsDuplicateFixtures(t *testing.T) {
	outcomes := sixMatches("Arsenal")
	outcomes = append(outcomes, outcomes[2])

	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(14), TeamID: "Arsenal", PlayerID: "p", Started: true},
	}
	rows, _, err := newBuilder().BuildRotation(context.Background(), outcomes, participation)
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errors.Is(err, apperrors.ErrKeyUniqueness))
	assert.True(t, apperrors.IsFatal(err))
}

func TestBuildRotationFlagsDegenerateSeason(t *testing.T) {
	outcomes := sixMatches("Arsenal")
	for i := range outcomes {
		outcomes[i].ExpectedPoints = 1.3
	}
	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "p", Started: true},
	}
	rows, diag, err := newBuilder().BuildRotation(context.Background(), outcomes, participation)
	require.NoError(t, err)
	assert.Equal(t, 1, diag.Count(domain.ReasonDegenerateTerciles))
	assert.Equal(t, []string{"Arsenal/2019"}, diag.Groups[domain.ReasonDegenerateTerciles])
	assert.Equal(t, domain.DifficultyHard, rows[0].Difficulty)
}

func TestBuildRotationIsDeterministic(t *testing.T) {
	outcomes := append(sixMatches("Arsenal"), sixMatches("Chelsea")...)
	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(7), TeamID: "Chelsea", PlayerID: "b"},
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "a"},
		{Season: 2019, Date: day(0), TeamID: "Chelsea", PlayerID: "b"},
		{Season: 2019, Date: day(14), TeamID: "Arsenal", PlayerID: "c"},
	}
	first, _, err := newBuilder().BuildRotation(context.Background(), outcomes, participation)
	require.NoError(t, err)
	second, _, err := newBuilder().BuildRotation(context.Background(), outcomes, participation)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.TeamID("Arsenal"), first[0].TeamID)
	assert.Equal(t, domain.TeamID("Chelsea"), first[3].TeamID)
}

func TestBuildInjury(t *testing.T) {
	outcomes := append(sixMatches("Arsenal"), sixMatches("Chelsea")...)
	spells := []domain.InjurySpell{
		{Season: 2019, TeamID: "Arsenal", PlayerID: "a", PlayerName: "A", Start: day(7), End: day(14)},
		{Season: 2019, TeamID: "Arsenal", PlayerID: "a", Start: day(35), End: day(30)},
		{Season: 2019, TeamID: "Arsenal", PlayerID: "b", Start: day(14), End: day(14)},
		{Season: 2019, TeamID: "Everton", PlayerID: "c", Start: day(0), End: day(40)},
	}
	participation := []domain.ParticipationRecord{
		{Season: 2019, Date: day(0), TeamID: "Arsenal", PlayerID: "a", Started: true, Minutes: 90},
	}

	res, diag, err := newBuilder().BuildInjury(context.Background(), outcomes, spells, participation)
	require.NoError(t, err)
	require.Len(t, res.Rows, 12)

	assert.Equal(t, 1, diag.Count(domain.ReasonSwappedSpell))
	assert.Equal(t, 1, diag.Count(domain.ReasonSpellWithoutFixtures))

	a := res.Rows[:6]
	var flags []bool
	for i, r := range a {
		assert.Equal(t, domain.PlayerID("a"), r.PlayerID)
		assert.Equal(t, "A", r.PlayerName)
		assert.Equal(t, i, r.MatchIndex)
		flags = append(flags, r.Unavailable)
	}
	assert.Equal(t, []bool{false, true, true, false, false, true}, flags)

	// both players out on day 14
	assert.Equal(t, 2, a[2].NInjuredSquad)
	assert.Equal(t, 1, a[1].NInjuredSquad)
	assert.Equal(t, 0, a[0].NInjuredSquad)

	assert.Equal(t, 90, a[0].Minutes)
	assert.True(t, a[0].Started)
	assert.Equal(t, 0, a[1].Minutes)
	assert.False(t, a[1].Started)

	require.Len(t, res.Outcomes, 12)
	assert.Equal(t, 2, res.Outcomes[2].NInjuredSquad)
	assert.Equal(t, 0, res.Outcomes[8].NInjuredSquad)
	// input table is not mutated
	assert.Equal(t, 0, outcomes[2].NInjuredSquad)
}

func TestBuildInjuryRejectsDuplicateFixtures(t *testing.T) {
	outcomes := sixMatches("Arsenal")
	outcomes = append(outcomes, outcomes[0])
	_, _, err := newBuilder().BuildInjury(context.Background(), outcomes, nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrKeyUniqueness))
}
