package operations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/exporter"
	"github.com/olol2/Conor-Keenan-Project/internal/shared/testutil"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// diamond registers a -> (b, c) -> d and returns the steps by ID.
func diamond(t *testing.T, m *Manager) map[string]*fakeStep {
	t.Helper()
	steps := map[string]*fakeStep{
		"a": newFakeStep("a"),
		"b": newFakeStep("b", "a"),
		"c": newFakeStep("c", "a"),
		"d": newFakeStep("d", "b", "c"),
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.RegisterStage(steps[id]))
	}
	return steps
}

func newTestManager(t *testing.T) (*Manager, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	m, err := NewManager(nil, nil, logger)
	require.NoError(t, err)
	return m, handler
}

func newTestState(t *testing.T) *OperationState {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	paths, err := cfg.Paths.Resolve()
	require.NoError(t, err)
	return NewOperationState("test-run", cfg, paths)
}

func TestManagerExecuteAll(t *testing.T) {
	m, handler := newTestManager(t)
	steps := diamond(t, m)
	state := newTestState(t)

	require.NoError(t, m.Execute(context.Background(), state, nil))

	assert.Equal(t, OperationStatusCompleted, state.Status)
	for id, s := range steps {
		assert.Equal(t, 1, s.calls, id)
		assert.Equal(t, StepStatusCompleted, state.GetStage(id).GetStatus(), id)
	}
	assert.Len(t, state.Diagnostics, 4)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "all_stages_completed")
	testutil.AssertNoErrors(t, handler)
}

func TestManagerNonFatalFailureSkipsDependents(t *testing.T) {
	m, handler := newTestManager(t)
	steps := diamond(t, m)
	steps["b"].run = func(context.Context, *OperationState) (*domain.Diagnostics, error) {
		return nil, apperrors.NewEstimationError("b", errors.New("singular design"))
	}
	state := newTestState(t)

	err := m.Execute(context.Background(), state, nil)
	require.Error(t, err)
	assert.False(t, IsFatal(err))

	assert.Equal(t, OperationStatusFailed, state.Status)
	assert.Equal(t, StepStatusCompleted, state.GetStage("a").GetStatus())
	assert.Equal(t, StepStatusFailed, state.GetStage("b").GetStatus())
	assert.Equal(t, StepStatusCompleted, state.GetStage("c").GetStatus(), "sibling still runs")
	assert.Equal(t, StepStatusSkipped, state.GetStage("d").GetStatus())
	assert.Zero(t, steps["d"].calls)
	assert.True(t, handler.ContainsAttr("dependency", "b"))
}

func TestManagerFatalFailureAborts(t *testing.T) {
	m, handler := newTestManager(t)
	steps := diamond(t, m)
	steps["a"].run = func(context.Context, *OperationState) (*domain.Diagnostics, error) {
		return nil, apperrors.NewDataQualityError(2019, 1, 0.05)
	}
	state := newTestState(t)

	err := m.Execute(context.Background(), state, nil)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, apperrors.ErrDataQuality)

	assert.Equal(t, OperationStatusFailed, state.Status)
	for _, id := range []string{"b", "c", "d"} {
		assert.Equal(t, StepStatusPending, state.GetStage(id).GetStatus(), id)
		assert.Zero(t, steps[id].calls, id)
	}
	testutil.AssertLogContains(t, handler, slog.LevelError, "pipeline_aborted")
}

func TestManagerCancellation(t *testing.T) {
	m, _ := newTestManager(t)
	steps := diamond(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	steps["a"].run = func(context.Context, *OperationState) (*domain.Diagnostics, error) {
		cancel()
		return nil, nil
	}
	state := newTestState(t)

	err := m.Execute(ctx, state, nil)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OperationStatusCancelled, state.Status)
	assert.Zero(t, steps["b"].calls)
}

func TestManagerPlan(t *testing.T) {
	m, _ := newTestManager(t)
	diamond(t, m)

	all, err := m.Plan(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, stepIDs(all))

	subset, err := m.Plan([]string{"d", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, stepIDs(subset), "dependency order, not request order")

	_, err = m.Plan([]string{"nope"})
	assert.Error(t, err)

	state := newTestState(t)
	assert.Error(t, m.Execute(context.Background(), state, []string{"nope"}))
	assert.Equal(t, OperationStatusFailed, state.Status)
}

func TestManagerPartialRunTreatsUnplannedDependenciesAsSatisfied(t *testing.T) {
	m, _ := newTestManager(t)
	steps := diamond(t, m)
	state := newTestState(t)

	require.NoError(t, m.Execute(context.Background(), state, []string{"d"}))
	assert.Equal(t, 1, steps["d"].calls)
	assert.Zero(t, steps["a"].calls)
	assert.Nil(t, state.GetStage("a"))
}

func TestManagerValidationFailure(t *testing.T) {
	m, _ := newTestManager(t)
	step := &fakeStep{BaseStage: NewBaseStage("needs-input", "Needs input", nil, "/does/not/exist.csv")}
	require.NoError(t, m.RegisterStage(step))
	state := newTestState(t)

	err := m.Execute(context.Background(), state, nil)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.False(t, IsFatal(err))
	assert.Zero(t, step.calls)
}

func TestManagerWriteMetadata(t *testing.T) {
	m, _ := newTestManager(t)
	diamond(t, m)
	state := newTestState(t)
	state.AddSeasons(2020, 2019)
	require.NoError(t, m.Execute(context.Background(), state, nil))

	path, err := m.WriteMetadata(state, exporter.BuildInfo{Version: "v1.2.3", Commit: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, state.Paths.Metadata("run_test-run.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var meta struct {
		RunID string `json:"run_id"`
		Build struct {
			Version string `json:"version"`
			Commit  string `json:"commit"`
		} `json:"build"`
		ArtifactLayout string   `json:"artifact_layout"`
		Status         string   `json:"status"`
		Seasons        []int    `json:"seasons"`
		Stages         []string `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "test-run", meta.RunID)
	assert.Equal(t, "v1.2.3", meta.Build.Version)
	assert.Equal(t, "abc123", meta.Build.Commit)
	assert.Equal(t, exporter.ArtifactLayout, meta.ArtifactLayout)
	assert.Equal(t, "completed", meta.Status)
	assert.Equal(t, []int{2019, 2020}, meta.Seasons)
	assert.Equal(t, []string{"a:completed", "b:completed", "c:completed", "d:completed"}, meta.Stages)
}
