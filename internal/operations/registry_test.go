package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// fakeStep is a Step whose Execute is supplied by the test.
type fakeStep struct {
	BaseStage
	run   func(ctx context.Context, state *OperationState) (*domain.Diagnostics, error)
	calls int
}

func newFakeStep(id string, deps ...string) *fakeStep {
	return &fakeStep{BaseStage: NewBaseStage(id, "Fake "+id, deps)}
}

func (f *fakeStep) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	f.calls++
	if f.run == nil {
		d := domain.NewDiagnostics(f.ID())
		d.RowsIn, d.RowsOut = 1, 1
		return d, nil
	}
	return f.run(ctx, state)
}

func stepIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("a")))

	assert.Error(t, r.Register(newFakeStep("a")), "duplicate ID")
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newFakeStep("")))

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("b"))
	assert.Equal(t, 1, r.Count())

	s, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Fake a", s.Name())
	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryDependencyOrder(t *testing.T) {
	tests := []struct {
		name    string
		steps   []*fakeStep
		want    []string
		wantErr string
	}{
		{
			name: "pipeline shape",
			steps: []*fakeStep{
				newFakeStep(StageIDMatches),
				newFakeStep(StageIDPanels, StageIDMatches),
				newFakeStep(StageIDRotation, StageIDPanels),
				newFakeStep(StageIDInjury, StageIDPanels),
				newFakeStep(StageIDCombine, StageIDRotation, StageIDInjury),
				newFakeStep(StageIDReport, StageIDCombine),
			},
			want: []string{"matches", "panels", "rotation", "injury", "combine", "report"},
		},
		{
			name: "registered out of order",
			steps: []*fakeStep{
				newFakeStep("c", "b"),
				newFakeStep("b", "a"),
				newFakeStep("a"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "independent steps keep registration order",
			steps: []*fakeStep{
				newFakeStep("z"),
				newFakeStep("y"),
				newFakeStep("x", "z"),
			},
			want: []string{"z", "y", "x"},
		},
		{
			name: "cycle",
			steps: []*fakeStep{
				newFakeStep("a", "b"),
				newFakeStep("b", "a"),
			},
			wantErr: "cycle",
		},
		{
			name: "unknown dependency",
			steps: []*fakeStep{
				newFakeStep("a", "ghost"),
			},
			wantErr: "non-existent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}
			ordered, err := r.GetDependencyOrder()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepIDs(ordered))
		})
	}
}

func TestRegistryGetDependents(t *testing.T) {
	r := NewRegistry()
	for _, s := range []*fakeStep{
		newFakeStep("matches"),
		newFakeStep("panels", "matches"),
		newFakeStep("rotation", "panels"),
		newFakeStep("injury", "panels"),
		newFakeStep("combine", "rotation", "injury"),
	} {
		require.NoError(t, r.Register(s))
	}

	assert.Equal(t, []string{"panels", "rotation", "injury", "combine"}, r.GetDependents("matches"))
	assert.Equal(t, []string{"combine"}, r.GetDependents("injury"))
	assert.Empty(t, r.GetDependents("combine"))
}
