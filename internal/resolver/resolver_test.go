package resolver

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

func TestCanonicalizeTeam(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want domain.TeamID
	}{
		{"transfermarkt name", "Manchester United", "Man United"},
		{"understat short form", "Manchester Utd", "Man United"},
		{"odds file name", "Man United", "Man United"},
		{"fc suffix", "Arsenal FC", "Arsenal"},
		{"ampersand variant", "Brighton & Hove Albion", "Brighton"},
		{"spelled out variant", "Brighton and Hove Albion", "Brighton"},
		{"apostrophe canonical", "Nott'm Forest", "Nott'm Forest"},
		{"long form", "Nottingham Forest", "Nott'm Forest"},
		{"case and spacing", "  wolverhampton   WANDERERS ", "Wolves"},
		{"utd variant", "Sheffield Utd", "Sheffield United"},
		{"prefix club", "AFC Bournemouth", "Bournemouth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CanonicalizeTeam(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeTeamUnknown(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	_, err = r.CanonicalizeTeam("Real Madrid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnresolvedEntity))
	assert.False(t, apperrors.IsFatal(err))
}

func TestTeamsCoversLeague(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	teams := r.Teams()
	assert.Len(t, teams, 27)
	assert.True(t, sort.SliceIsSorted(teams, func(i, j int) bool { return teams[i] < teams[j] }))
	assert.Contains(t, teams, domain.TeamID("Luton"))
}

func TestNewFromYAMLRejectsConflicts(t *testing.T) {
	doc := []byte(`
teams:
  - id: A
    aliases: [Shared]
  - id: B
    aliases: [shared]
`)
	_, err := NewFromYAML(doc, 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))

	_, err = NewFromYAML([]byte("teams: []"), 16)
	assert.Error(t, err)
}

func TestNormalizePlayerName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Martin Ødegaard", "martin odegaard"},
		{"Son Heung-Min", "son heung-min"},
		{"  N'Golo   Kanté ", "n'golo kante"},
		{"Rúben Dias", "ruben dias"},
		{"Ilkay Gündogan", "ilkay gundogan"},
		{"Emile Smith Rowe.", "emile smith rowe"},
		{"Dara O’Shea", "dara o'shea"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePlayerName(tt.raw))
		})
	}
}

func TestResolvePlayer(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	a, err := r.ResolvePlayer("Rúben Dias")
	require.NoError(t, err)
	b, err := r.ResolvePlayer("RUBEN DIAS")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// second lookup is served from the cache
	again, err := r.ResolvePlayer("Rúben Dias")
	require.NoError(t, err)
	assert.Equal(t, a, again)

	for _, raw := range []string{"", "nan", "Unknown", "..."} {
		_, err := r.ResolvePlayer(raw)
		assert.ErrorIs(t, err, apperrors.ErrUnresolvedEntity, raw)
		_, err = r.ResolvePlayer(raw)
		assert.ErrorIs(t, err, apperrors.ErrUnresolvedEntity, raw)
	}
}
