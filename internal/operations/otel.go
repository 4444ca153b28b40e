package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/olol2/Conor-Keenan-Project/internal/infrastructure"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer on the run's providers. Nil providers
// give a no-op tracer.
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	var tracer trace.Tracer = noop.NewTracerProvider().Tracer(infrastructure.ServiceName)
	var meter metric.Meter = metricnoop.NewMeterProvider().Meter(infrastructure.MeterName)
	if providers != nil {
		tracer, meter = providers.Tracer, providers.Meter
	}

	metrics, err := infrastructure.CreatePipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}, nil
}

// TraceOperationExecution creates a span for the entire run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, runID string, stages []string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.StringSlice("run.stages", stages),
		),
	)
}

// TraceStageExecution creates a span for one step
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// RecordStageCompletion puts the stage accounting on the span and the metrics
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, diag *domain.Diagnostics, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	stageAttr := attribute.String("stage", stageID)

	span.SetAttributes(
		attribute.String("stage.status", status),
		attribute.Float64("stage.duration_seconds", duration.Seconds()),
	)
	pt.metrics.StageRuns.Add(ctx, 1, metric.WithAttributes(stageAttr, attribute.String("status", status)))
	pt.metrics.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(stageAttr))

	if diag != nil {
		span.SetAttributes(
			attribute.Int("stage.rows_in", diag.RowsIn),
			attribute.Int("stage.rows_out", diag.RowsOut),
		)
		pt.metrics.RowsIn.Add(ctx, int64(diag.RowsIn), metric.WithAttributes(stageAttr))
		pt.metrics.RowsOut.Add(ctx, int64(diag.RowsOut), metric.WithAttributes(stageAttr))
		for _, reason := range diag.Reasons() {
			n := diag.Counts[reason]
			span.SetAttributes(attribute.Int("stage.excluded."+string(reason), n))
			pt.metrics.RowsExcluded.Add(ctx, int64(n),
				metric.WithAttributes(stageAttr, attribute.String("reason", string(reason))))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "stage completed")
}

// RecordEstimations counts per-group estimation outcomes
func (pt *OperationTracer) RecordEstimations(ctx context.Context, estimator, status string, n int) {
	if n == 0 {
		return
	}
	pt.metrics.Estimations.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("estimator", estimator),
		attribute.String("status", status),
	))
}
