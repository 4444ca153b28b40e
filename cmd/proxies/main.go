package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/internal/exporter"
	"github.com/olol2/Conor-Keenan-Project/internal/infrastructure"
	"github.com/olol2/Conor-Keenan-Project/internal/operations"
	"github.com/olol2/Conor-Keenan-Project/internal/resolver"
	"github.com/olol2/Conor-Keenan-Project/internal/validation"
)

// Set at link time, e.g. -ldflags "-X main.buildCommit=$(git rev-parse HEAD)".
var (
	buildVersion = "0.3.0"
	buildCommit  = ""
	buildDate    = ""
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitAborted = 3
)

const shutdownWait = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

type options struct {
	configFile  string
	baseDir     string
	stages      string
	firstSeason int
	lastSeason  int
	plan        bool
	version     bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("proxies", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.configFile, "config", "", "path to the YAML config file (defaults to config.yaml or configs/config.yaml)")
	fs.StringVar(&o.baseDir, "base-dir", "", "directory every relative path resolves against (defaults to the working directory)")
	fs.StringVar(&o.stages, "stages", "", "comma-separated stage IDs to run (defaults to all): "+strings.Join(stageIDs(), ","))
	fs.IntVar(&o.firstSeason, "first-season", 0, "first season start year to admit")
	fs.IntVar(&o.lastSeason, "last-season", 0, "last season start year to admit")
	fs.BoolVar(&o.plan, "plan", false, "print the stages that would run and exit")
	fs.BoolVar(&o.version, "version", false, "print version information and exit")
	err := fs.Parse(args)
	return o, err
}

func stageIDs() []string {
	return []string{
		operations.StageIDMatches,
		operations.StageIDPanels,
		operations.StageIDRotation,
		operations.StageIDInjury,
		operations.StageIDCombine,
		operations.StageIDReport,
	}
}

// loadConfig applies flag overrides on top of defaults, file and environment.
func loadConfig(o options) (config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return config.Config{}, err
	}
	if o.baseDir != "" {
		cfg.Paths.BaseDir = o.baseDir
	}
	if o.firstSeason != 0 {
		cfg.Seasons.First = o.firstSeason
	}
	if o.lastSeason != 0 {
		cfg.Seasons.Last = o.lastSeason
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// readsSources reports whether any planned step reads the raw inputs.
func readsSources(steps []operations.Step) bool {
	for _, s := range steps {
		if s.ID() == operations.StageIDMatches || s.ID() == operations.StageIDPanels {
			return true
		}
	}
	return false
}

func splitStages(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func run(ctx context.Context, args []string, out io.Writer) int {
	o, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	build := exporter.NewBuildInfo(buildVersion, buildCommit, buildDate)
	if o.version {
		fmt.Fprintln(out, build)
		return exitOK
	}

	// A missing .env file is not an error; variables may come from the shell.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.String("error", err.Error()))
	}

	cfg, err := loadConfig(o)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return exitUsage
	}
	paths, err := cfg.Paths.Resolve()
	if err != nil {
		slog.Error("failed to resolve paths", slog.String("error", err.Error()))
		return exitUsage
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("failed to create output directories", slog.String("error", err.Error()))
		return exitFailure
	}

	cfg.Logging.FilePath = paths.Under(cfg.Logging.FilePath)
	cfg.Telemetry.TraceFile = paths.Under(cfg.Telemetry.TraceFile)
	cfg.Telemetry.MetricsFile = paths.Under(cfg.Telemetry.MetricsFile)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, build.Version, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", slog.String("error", err.Error()))
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		logger.Error("failed to create pipeline tracer", slog.String("error", err.Error()))
		return exitFailure
	}
	manager, err := operations.NewManager(operations.NewRegistry(), tracer, logger)
	if err != nil {
		logger.Error("failed to create pipeline manager", slog.String("error", err.Error()))
		return exitFailure
	}
	res, err := resolver.New()
	if err != nil {
		logger.Error("failed to load team aliases", slog.String("error", err.Error()))
		return exitFailure
	}
	if err := operations.RegisterPipeline(manager, paths, res); err != nil {
		logger.Error("failed to register pipeline", slog.String("error", err.Error()))
		return exitFailure
	}

	only := splitStages(o.stages)
	steps, err := manager.Plan(only)
	if err != nil {
		fmt.Fprintln(out, err)
		return exitUsage
	}
	if o.plan {
		for _, s := range steps {
			fmt.Fprintf(out, "%s\t%s\n", s.ID(), s.Name())
		}
		return exitOK
	}

	if readsSources(steps) {
		report, err := validation.NewSourceValidator(logger).Preflight(paths)
		if err != nil {
			logger.Error("raw sources unavailable", slog.String("error", err.Error()))
			return exitUsage
		}
		for _, problem := range report.Problems {
			logger.Warn("unusable source file", slog.String("problem", problem))
		}
	}

	runID := infrastructure.GenerateRunID()
	ctx = infrastructure.WithRunID(ctx, runID)
	state := operations.NewOperationState(runID, cfg, paths)

	logger.InfoContext(ctx, "starting pipeline",
		slog.String("version", build.Version),
		slog.String("commit", build.Commit),
		slog.String("base_dir", paths.BaseDir),
		slog.Int("first_season", cfg.Seasons.First),
		slog.Int("last_season", cfg.Seasons.Last))

	runErr := manager.Execute(ctx, state, only)

	if path, err := manager.WriteMetadata(state, build); err != nil {
		logger.ErrorContext(ctx, "failed to write run metadata", slog.String("error", err.Error()))
	} else {
		fmt.Fprintf(out, "run %s %s, metadata: %s\n", runID, state.Status, path)
	}

	switch {
	case runErr == nil:
		return exitOK
	case operations.IsFatal(runErr):
		logger.ErrorContext(ctx, "pipeline aborted", slog.String("error", runErr.Error()))
		return exitAborted
	default:
		logger.WarnContext(ctx, "pipeline finished with failed stages", slog.String("error", runErr.Error()))
		return exitFailure
	}
}
