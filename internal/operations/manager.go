package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olol2/Conor-Keenan-Project/internal/exporter"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a new pipeline manager
func NewManager(registry *Registry, tracer *OperationTracer, logger *slog.Logger) (*Manager, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		var err error
		if tracer, err = NewOperationTracer(nil); err != nil {
			return nil, err
		}
	}
	return &Manager{registry: registry, tracer: tracer, logger: logger}, nil
}

// RegisterStage registers a Step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Plan returns the steps to run in dependency order. An empty selection
// means every registered step.
func (m *Manager) Plan(only []string) ([]Step, error) {
	ordered, err := m.registry.GetDependencyOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency order: %w", err)
	}
	if len(only) == 0 {
		return ordered, nil
	}

	selected := make(map[string]bool, len(only))
	for _, id := range only {
		if !m.registry.Has(id) {
			return nil, fmt.Errorf("requested step not found: %s", id)
		}
		selected[id] = true
	}
	steps := make([]Step, 0, len(only))
	for _, s := range ordered {
		if selected[s.ID()] {
			steps = append(steps, s)
		}
	}
	return steps, nil
}

// Execute runs the planned steps sequentially. A fatal error stops the run;
// a non-fatal failure skips the steps that depend on the failed one.
func (m *Manager) Execute(ctx context.Context, state *OperationState, only []string) error {
	steps, err := m.Plan(only)
	if err != nil {
		state.Fail(err)
		return err
	}

	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID()
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, state.ID, ids)
	defer span.End()

	state.Start()
	m.logger.InfoContext(ctx, "executing_pipeline",
		slog.String("run_id", state.ID),
		slog.Any("stages", ids))

	var failures []error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			cancelErr := NewCancellationError(step.ID(), err)
			state.Cancel(cancelErr)
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("run_id", state.ID),
				slog.String("stage", step.ID()))
			return cancelErr
		}

		stepState := state.GetStage(step.ID())
		if dep := m.failedDependency(state, step); dep != "" {
			depErr := NewDependencyError(step.ID(), dep)
			stepState.Skip(depErr.Error())
			m.logger.WarnContext(ctx, "stage_skipped",
				slog.String("run_id", state.ID),
				slog.String("stage", step.ID()),
				slog.String("dependency", dep))
			continue
		}

		m.logger.InfoContext(ctx, "executing_stage",
			slog.String("run_id", state.ID),
			slog.String("stage", step.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			if IsFatal(err) {
				state.Fail(err)
				m.logger.ErrorContext(ctx, "pipeline_aborted",
					slog.String("run_id", state.ID),
					slog.String("stage", step.ID()),
					slog.String("error", err.Error()))
				return err
			}
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		err := errors.Join(failures...)
		state.Fail(err)
		return err
	}
	state.Complete()
	m.logger.InfoContext(ctx, "all_stages_completed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return nil
}

// failedDependency returns the first dependency of step that ran in this
// operation without completing. Dependencies outside the plan are satisfied
// by artifacts on disk, which Validate checks.
func (m *Manager) failedDependency(state *OperationState, step Step) string {
	for _, dep := range step.GetDependencies() {
		if ds := state.GetStage(dep); ds != nil && ds.GetStatus() != StepStatusCompleted {
			return dep
		}
	}
	return ""
}

func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())

	if err := step.Validate(state); err != nil {
		valErr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(valErr)
		m.logger.WarnContext(ctx, "validation_failed",
			slog.String("run_id", state.ID),
			slog.String("stage", step.ID()),
			slog.String("error", err.Error()))
		return valErr
	}

	stageCtx, span := m.tracer.TraceStageExecution(ctx, state.ID, step.ID())
	defer span.End()

	stepState.Start()
	start := time.Now()
	diag, err := step.Execute(stageCtx, state)
	duration := time.Since(start)

	state.RecordDiagnostics(diag)
	m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, diag, err)

	if err != nil {
		execErr := NewExecutionError(step.ID(), err)
		stepState.Fail(execErr)
		m.logger.ErrorContext(ctx, "stage_failed",
			slog.String("run_id", state.ID),
			slog.String("stage", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return execErr
	}

	stepState.Complete()
	attrs := []any{
		slog.String("run_id", state.ID),
		slog.String("stage", step.ID()),
		slog.Duration("duration", duration),
	}
	if diag != nil {
		attrs = append(attrs, slog.Int("rows_in", diag.RowsIn), slog.Int("rows_out", diag.RowsOut))
	}
	m.logger.InfoContext(ctx, "stage_completed", attrs...)
	return nil
}

// WriteMetadata writes the run record into the metadata directory and
// returns its path.
func (m *Manager) WriteMetadata(state *OperationState, build exporter.BuildInfo) (string, error) {
	state.mu.RLock()
	end := time.Now()
	if state.EndTime != nil {
		end = *state.EndTime
	}
	meta := exporter.RunMetadata{
		RunID:       state.ID,
		Build:       build,
		StartedAt:   state.StartTime,
		FinishedAt:  end,
		DurationSec: end.Sub(state.StartTime).Seconds(),
		Status:      string(state.Status),
		Config:      state.Config,
		Inputs:      state.Inputs,
		Outputs:     append([]string(nil), state.Outputs...),
		Diagnostics: append(state.Diagnostics[:0:0], state.Diagnostics...),
	}
	if state.Error != nil {
		meta.Error = state.Error.Error()
	}
	for _, id := range m.registry.ListIDs() {
		if s, ok := state.Steps[id]; ok {
			meta.Stages = append(meta.Stages, fmt.Sprintf("%s:%s", id, s.GetStatus()))
		}
	}
	state.mu.RUnlock()
	meta.Seasons = state.SeasonList()

	path := state.Paths.Metadata(fmt.Sprintf("run_%s.json", state.ID))
	if err := exporter.WriteRunMetadata(path, meta); err != nil {
		return "", err
	}
	m.logger.Info("run metadata written", slog.String("path", path))
	return path, nil
}
