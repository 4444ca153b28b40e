package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/olol2/Conor-Keenan-Project/internal/combine"
	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/internal/dataprocessing"
	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/exporter"
	"github.com/olol2/Conor-Keenan-Project/internal/files"
	"github.com/olol2/Conor-Keenan-Project/internal/injury"
	"github.com/olol2/Conor-Keenan-Project/internal/odds"
	"github.com/olol2/Conor-Keenan-Project/internal/panel"
	"github.com/olol2/Conor-Keenan-Project/internal/report"
	"github.com/olol2/Conor-Keenan-Project/internal/rotation"
	"github.com/olol2/Conor-Keenan-Project/internal/valuation"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// RegisterPipeline registers the six pipeline steps on m. Artifact paths are
// resolved from paths, which must match the paths of the states m executes.
func RegisterPipeline(m *Manager, paths config.Paths, resolver dataprocessing.EntityResolver) error {
	deps := stageDeps{resolver: resolver, tracer: m.tracer, logger: m.logger}
	steps := []Step{
		newMatchesStage(deps),
		newPanelsStage(paths, deps),
		newRotationStage(paths, deps),
		newInjuryStage(paths, deps),
		newCombineStage(paths, deps),
		newReportStage(paths, deps),
	}
	for _, s := range steps {
		if err := m.RegisterStage(s); err != nil {
			return err
		}
	}
	return nil
}

type stageDeps struct {
	resolver dataprocessing.EntityResolver
	tracer   *OperationTracer
	logger   *slog.Logger
}

func (d stageDeps) stageLogger(id string) *slog.Logger {
	return d.logger.With("stage", id)
}

// readArtifact decodes a persisted table with one of the dataprocessing
// readers.
func readArtifact[T any](path string, decode func(*dataprocessing.Table) ([]T, error)) ([]T, error) {
	t, err := dataprocessing.ReadTable(path)
	if err != nil {
		return nil, err
	}
	rows, err := decode(t)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// artifact pairs a table with its destination.
type artifact struct {
	path  string
	table exporter.Table
}

// writeArtifacts writes every table to its path and records the outputs.
func writeArtifacts(state *OperationState, w *exporter.CSVWriter, artifacts ...artifact) error {
	for _, a := range artifacts {
		if err := w.WriteTable(a.path, a.table); err != nil {
			return err
		}
		state.AddOutputs(a.path)
	}
	return nil
}

// sourceFiles discovers the per-season files of one raw input and keeps
// those inside the configured season window.
func sourceFiles(state *OperationState, kind, glob string) ([]files.FileInfo, error) {
	found, err := files.NewDiscovery(state.Paths.RawDir).FindByPattern(glob)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to discover "+kind+" files", err)
	}
	found = files.FilterSeasons(found, state.Config.Seasons.First, state.Config.Seasons.Last)
	if len(found) == 0 {
		return nil, apperrors.NewStorageError(fmt.Sprintf("no %s files match %s", kind, glob), nil)
	}
	for _, f := range found {
		state.AddInputs(kind, f.Path)
	}
	return found, nil
}

// loadAll reads every file of one raw input through load, recording the
// loader diagnostics in the run state.
func loadAll[T any](state *OperationState, found []files.FileInfo, stage string, load func(*dataprocessing.Table, domain.Season) ([]T, *domain.Diagnostics, error)) ([]T, error) {
	diag := domain.NewDiagnostics(stage)
	var out []T
	for _, f := range found {
		t, err := dataprocessing.ReadTable(f.Path)
		if err != nil {
			return nil, err
		}
		rows, d, err := load(t, f.Season)
		if err != nil {
			return nil, err
		}
		diag.Merge(d)
		out = append(out, rows...)
	}
	state.RecordDiagnostics(diag)
	return out, nil
}

// MatchesStage prices every match from the betting market and derives the
// league tables.
type MatchesStage struct {
	BaseStage
	deps stageDeps
}

// newMatchesStage creates the match outcome step
func newMatchesStage(deps stageDeps) *MatchesStage {
	return &MatchesStage{
		BaseStage: NewBaseStage(StageIDMatches, StageNameMatches, nil),
		deps:      deps,
	}
}

// Execute implements Step
func (s *MatchesStage) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	logger := s.deps.stageLogger(s.ID())
	loader := dataprocessing.NewLoader(state.Config, s.deps.resolver, logger)

	found, err := sourceFiles(state, InputMatches, state.Paths.MatchesGlob)
	if err != nil {
		return nil, err
	}
	records, err := loadAll(state, found, dataprocessing.MatchesStage, loader.Matches)
	if err != nil {
		return nil, err
	}

	builder := odds.NewBuilder(state.Config.Pipeline, s.deps.resolver, logger)
	outcomes, diag, err := builder.Build(ctx, records)
	if err != nil {
		return diag, err
	}
	if err := odds.CheckUnique(outcomes); err != nil {
		return diag, err
	}
	standings := odds.BuildStandings(outcomes)

	for _, o := range outcomes {
		state.AddSeasons(o.Season)
	}

	w := exporter.NewCSVWriter(logger)
	return diag, writeArtifacts(state, w,
		artifact{state.Paths.Processed(config.MatchOutcomesFile), exporter.MatchOutcomeTable(outcomes)},
		artifact{state.Paths.Processed(config.StandingsFile), exporter.StandingsTable(standings)},
	)
}

// PanelsStage aligns participation and injury spells to priced matches.
type PanelsStage struct {
	BaseStage
	deps stageDeps
}

// newPanelsStage creates the panel step
func newPanelsStage(paths config.Paths, deps stageDeps) *PanelsStage {
	return &PanelsStage{
		BaseStage: NewBaseStage(StageIDPanels, StageNamePanels, []string{StageIDMatches},
			paths.Processed(config.MatchOutcomesFile)),
		deps: deps,
	}
}

// Execute implements Step
func (s *PanelsStage) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	logger := s.deps.stageLogger(s.ID())
	loader := dataprocessing.NewLoader(state.Config, s.deps.resolver, logger)

	outcomesPath := state.Paths.Processed(config.MatchOutcomesFile)
	outcomes, err := readArtifact(outcomesPath, dataprocessing.ReadMatchOutcomes)
	if err != nil {
		return nil, err
	}

	partFiles, err := sourceFiles(state, InputParticipation, state.Paths.ParticipationGlob)
	if err != nil {
		return nil, err
	}
	participation, err := loadAll(state, partFiles, dataprocessing.ParticipationStage, loader.Participation)
	if err != nil {
		return nil, err
	}
	injuryFiles, err := sourceFiles(state, InputInjuries, state.Paths.InjuriesGlob)
	if err != nil {
		return nil, err
	}
	spells, err := loadAll(state, injuryFiles, dataprocessing.InjuriesStage, loader.Injuries)
	if err != nil {
		return nil, err
	}

	builder := panel.NewBuilder(state.Config.Pipeline, logger)
	rotationRows, diag, err := builder.BuildRotation(ctx, outcomes, participation)
	if err != nil {
		return diag, err
	}
	injuryResult, injuryDiag, err := builder.BuildInjury(ctx, outcomes, spells, participation)
	state.RecordDiagnostics(injuryDiag)
	if err != nil {
		return diag, err
	}

	w := exporter.NewCSVWriter(logger)
	return diag, writeArtifacts(state, w,
		artifact{state.Paths.Processed(config.RotationPanelFile), exporter.RotationPanelTable(rotationRows)},
		artifact{state.Paths.Processed(config.InjuryPanelFile), exporter.InjuryPanelTable(injuryResult.Rows)},
		artifact{outcomesPath, exporter.MatchOutcomeTable(injuryResult.Outcomes)},
	)
}

// RotationStage estimates the rotation elasticity of every player-team-season.
type RotationStage struct {
	BaseStage
	deps stageDeps
}

// newRotationStage creates the rotation proxy step
func newRotationStage(paths config.Paths, deps stageDeps) *RotationStage {
	return &RotationStage{
		BaseStage: NewBaseStage(StageIDRotation, StageNameRotation, []string{StageIDPanels},
			paths.Processed(config.RotationPanelFile), paths.Processed(config.MatchOutcomesFile)),
		deps: deps,
	}
}

// Execute implements Step
func (s *RotationStage) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	logger := s.deps.stageLogger(s.ID())

	rows, err := readArtifact(state.Paths.Processed(config.RotationPanelFile), dataprocessing.ReadRotationPanel)
	if err != nil {
		return nil, err
	}
	outcomes, err := readArtifact(state.Paths.Processed(config.MatchOutcomesFile), dataprocessing.ReadMatchOutcomes)
	if err != nil {
		return nil, err
	}

	est := rotation.NewEstimator(state.Config.Pipeline, logger)
	proxies, diag, err := est.Estimate(ctx, rows, panel.TeamSeasonTerciles(outcomes))
	if err != nil {
		return diag, err
	}
	s.deps.tracer.RecordEstimations(ctx, StageIDRotation, "ok", len(proxies))
	s.deps.tracer.RecordEstimations(ctx, StageIDRotation, "excluded",
		diag.Count(domain.ReasonInsufficientSupport)+diag.Count(domain.ReasonUndefinedElasticity))

	w := exporter.NewCSVWriter(logger)
	return diag, writeArtifacts(state, w,
		artifact{state.Paths.Result(config.RotationProxyFile), exporter.RotationProxyTable(proxies)})
}

// InjuryStage estimates the unavailability coefficient of every injury-listed
// player-team-season and values it in points and pounds.
type InjuryStage struct {
	BaseStage
	deps stageDeps
}

// newInjuryStage creates the injury proxy step
func newInjuryStage(paths config.Paths, deps stageDeps) *InjuryStage {
	return &InjuryStage{
		BaseStage: NewBaseStage(StageIDInjury, StageNameInjury, []string{StageIDPanels},
			paths.Processed(config.InjuryPanelFile), paths.Processed(config.StandingsFile)),
		deps: deps,
	}
}

// Execute implements Step
func (s *InjuryStage) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	logger := s.deps.stageLogger(s.ID())

	rows, err := readArtifact(state.Paths.Processed(config.InjuryPanelFile), dataprocessing.ReadInjuryPanel)
	if err != nil {
		return nil, err
	}
	values, err := s.pointValues(ctx, state, logger)
	if err != nil {
		return nil, err
	}

	est := injury.NewEstimator(state.Config.Pipeline, logger)
	proxies, diag, err := est.Estimate(ctx, rows)
	if err != nil {
		return diag, err
	}
	missing := injury.ApplyPointValues(ctx, logger, proxies, valuation.BySeason(values))
	diag.Add(domain.ReasonMissingPointValue, len(missing))

	ok := 0
	for _, p := range proxies {
		if p.OK() {
			ok++
		}
	}
	s.deps.tracer.RecordEstimations(ctx, StageIDInjury, string(domain.EstimationOK), ok)
	s.deps.tracer.RecordEstimations(ctx, StageIDInjury, string(domain.EstimationFailed), len(proxies)-ok)

	w := exporter.NewCSVWriter(logger)
	artifacts := []artifact{{state.Paths.Result(config.InjuryProxyFile), exporter.InjuryProxyTable(proxies)}}
	if values != nil {
		artifacts = append(artifacts, artifact{state.Paths.Processed(config.PointValuesFile), exporter.PointValueTable(values)})
	}
	return diag, writeArtifacts(state, w, artifacts...)
}

// pointValues prices a league point per season. Without a prize money file
// the proxies keep empty currency fields.
func (s *InjuryStage) pointValues(ctx context.Context, state *OperationState, logger *slog.Logger) ([]domain.PointValue, error) {
	prizePath := state.Paths.PrizeMoneyFile
	if prizePath == "" || !files.FileExists(prizePath) {
		logger.WarnContext(ctx, "no prize money file, currency values left empty", "path", prizePath)
		return nil, nil
	}
	state.AddInputs(InputPrizeMoney, prizePath)

	standings, err := readArtifact(state.Paths.Processed(config.StandingsFile), dataprocessing.ReadStandings)
	if err != nil {
		return nil, err
	}
	t, err := dataprocessing.ReadTable(prizePath, "Season")
	if err != nil {
		return nil, err
	}
	loader := dataprocessing.NewLoader(state.Config, s.deps.resolver, logger)
	prizes, loadDiag, err := loader.PrizeMoney(t)
	state.RecordDiagnostics(loadDiag)
	if err != nil {
		return nil, err
	}

	values, diag := valuation.PointValues(ctx, logger, standings, prizes)
	state.RecordDiagnostics(diag)
	return values, nil
}

// CombineStage joins both proxy tables.
type CombineStage struct {
	BaseStage
	deps stageDeps
}

// newCombineStage creates the combination step
func newCombineStage(paths config.Paths, deps stageDeps) *CombineStage {
	return &CombineStage{
		BaseStage: NewBaseStage(StageIDCombine, StageNameCombine, []string{StageIDRotation, StageIDInjury},
			paths.Result(config.RotationProxyFile), paths.Result(config.InjuryProxyFile)),
		deps: deps,
	}
}

// Execute implements Step
func (s *CombineStage) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	logger := s.deps.stageLogger(s.ID())

	rot, err := readArtifact(state.Paths.Result(config.RotationProxyFile), dataprocessing.ReadRotationProxies)
	if err != nil {
		return nil, err
	}
	inj, err := readArtifact(state.Paths.Result(config.InjuryProxyFile), dataprocessing.ReadInjuryProxies)
	if err != nil {
		return nil, err
	}

	rows, diag := combine.Combine(rot, inj)
	cov := combine.Summarize(rows)
	logger.InfoContext(ctx, "proxies combined",
		"total", cov.Total,
		"both", cov.Both,
		"rotation_only", cov.RotationOnly,
		"injury_only", cov.InjuryOnly)

	w := exporter.NewCSVWriter(logger)
	return diag, writeArtifacts(state, w,
		artifact{state.Paths.Result(config.CombinedProxiesFile), exporter.CombinedTable(rows)})
}

// ReportStage exports the workbook and the charts.
type ReportStage struct {
	BaseStage
	deps stageDeps
}

// newReportStage creates the report step
func newReportStage(paths config.Paths, deps stageDeps) *ReportStage {
	return &ReportStage{
		BaseStage: NewBaseStage(StageIDReport, StageNameReport, []string{StageIDCombine},
			paths.Result(config.CombinedProxiesFile)),
		deps: deps,
	}
}

// workbookSheets lists the artifacts copied into the workbook, in sheet order.
func workbookSheets(p config.Paths) []string {
	return []string{
		p.Result(config.CombinedProxiesFile),
		p.Result(config.RotationProxyFile),
		p.Result(config.InjuryProxyFile),
		p.Processed(config.PointValuesFile),
		p.Processed(config.StandingsFile),
		p.Processed(config.MatchOutcomesFile),
	}
}

// Execute implements Step
func (s *ReportStage) Execute(ctx context.Context, state *OperationState) (*domain.Diagnostics, error) {
	logger := s.deps.stageLogger(s.ID())
	cfg := state.Config.Report
	diag := domain.NewDiagnostics(report.StageName)

	if cfg.Workbook {
		var sheets []exporter.Table
		for _, path := range workbookSheets(state.Paths) {
			if !files.FileExists(path) {
				continue
			}
			t, err := dataprocessing.ReadTable(path)
			if err != nil {
				return diag, err
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			sheets = append(sheets, exporter.Table{Name: name, Headers: t.Header, Records: t.Rows})
		}
		out := state.Paths.Result(config.WorkbookFile)
		if err := exporter.WriteWorkbook(out, sheets); err != nil {
			return diag, err
		}
		state.AddOutputs(out)
		logger.InfoContext(ctx, "workbook written", "path", out, "sheets", len(sheets))
	}

	if !cfg.Charts {
		return diag, nil
	}

	combined, err := s.combinedRows(state)
	if err != nil {
		return diag, err
	}
	var values []domain.PointValue
	if path := state.Paths.Processed(config.PointValuesFile); files.FileExists(path) {
		if values, err = readArtifact(path, dataprocessing.ReadPointValues); err != nil {
			return diag, err
		}
	}

	renderer := report.NewRenderer(state.Paths.FiguresDir, report.DefaultChartConfig(), logger)
	written, chartDiag, err := renderer.RenderAll(combined, values)
	state.AddOutputs(written...)
	if err != nil {
		return chartDiag, err
	}
	return chartDiag, nil
}

// combinedRows rebuilds the combined rows from both proxy tables; the
// combined CSV carries only a subset of each proxy's columns.
func (s *ReportStage) combinedRows(state *OperationState) ([]domain.CombinedProxyRow, error) {
	rot, err := readArtifact(state.Paths.Result(config.RotationProxyFile), dataprocessing.ReadRotationProxies)
	if err != nil {
		return nil, err
	}
	inj, err := readArtifact(state.Paths.Result(config.InjuryProxyFile), dataprocessing.ReadInjuryProxies)
	if err != nil {
		return nil, err
	}
	rows, _ := combine.Combine(rot, inj)
	return rows, nil
}
