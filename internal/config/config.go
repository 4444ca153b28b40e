package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "PROXY"

// Config is the complete pipeline configuration. It is built once by Load and
// passed by value into every stage.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Seasons   SeasonsConfig   `yaml:"seasons" envconfig:"SEASONS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
}

// PathsConfig contains file system locations, relative to BaseDir unless absolute
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	ResultsDir   string `yaml:"results_dir" envconfig:"RESULTS_DIR" validate:"required"`
	MetadataDir  string `yaml:"metadata_dir" envconfig:"METADATA_DIR" validate:"required"`
	FiguresDir   string `yaml:"figures_dir" envconfig:"FIGURES_DIR" validate:"required"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`

	// Glob patterns under RawDir, one file per season.
	MatchesPattern       string `yaml:"matches_pattern" envconfig:"MATCHES_PATTERN" validate:"required"`
	ParticipationPattern string `yaml:"participation_pattern" envconfig:"PARTICIPATION_PATTERN" validate:"required"`
	InjuriesPattern      string `yaml:"injuries_pattern" envconfig:"INJURIES_PATTERN" validate:"required"`
	// PrizeMoneyFile is optional; .csv or .xlsx.
	PrizeMoneyFile string `yaml:"prize_money_file" envconfig:"PRIZE_MONEY_FILE"`
}

// SeasonsConfig bounds the seasons admitted into the pipeline, by starting year
type SeasonsConfig struct {
	First int `yaml:"first" envconfig:"FIRST" validate:"gte=1888"`
	Last  int `yaml:"last" envconfig:"LAST" validate:"gtefield=First"`
}

// PipelineConfig holds the numeric policies of every stage
type PipelineConfig struct {
	MaxDaysRest          int      `yaml:"max_days_rest" envconfig:"MAX_DAYS_REST" validate:"gte=1"`
	InvalidOddsThreshold float64  `yaml:"invalid_odds_threshold" envconfig:"INVALID_ODDS_THRESHOLD" validate:"gte=0,lte=1"`
	OddsPrefixes         []string `yaml:"odds_prefixes" envconfig:"ODDS_PREFIXES" validate:"min=1,dive,required"`

	RotationMinMatches int `yaml:"rotation_min_matches" envconfig:"ROTATION_MIN_MATCHES" validate:"gte=1"`
	RotationMinHard    int `yaml:"rotation_min_hard" envconfig:"ROTATION_MIN_HARD" validate:"gte=1"`
	RotationMinEasy    int `yaml:"rotation_min_easy" envconfig:"ROTATION_MIN_EASY" validate:"gte=1"`

	InjuryMinUnavailable int `yaml:"injury_min_unavailable" envconfig:"INJURY_MIN_UNAVAILABLE" validate:"gte=1"`
	InjuryMinAvailable   int `yaml:"injury_min_available" envconfig:"INJURY_MIN_AVAILABLE" validate:"gte=1"`
	MinOpponentClusters  int `yaml:"min_opponent_clusters" envconfig:"MIN_OPPONENT_CLUSTERS" validate:"gte=2"`

	// Workers bounds the estimator fan-out; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=file stdout none"`
	TraceFile      string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	MetricsFile    string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// ReportConfig selects the optional report artifacts
type ReportConfig struct {
	Workbook bool `yaml:"workbook" envconfig:"WORKBOOK"`
	Charts   bool `yaml:"charts" envconfig:"CHARTS"`
}

// Load builds the configuration from defaults, then the YAML file (explicit path
// or the first of the well-known locations), then PROXY_* environment variables.
func Load(configFile string) (Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a PROXY_* variable keep their file or default value.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and cross-field rules
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires file_path", c.Logging.Output)
	}
	if c.Telemetry.TracingEnabled && c.Telemetry.TraceExporter == "file" && c.Telemetry.TraceFile == "" {
		return fmt.Errorf("trace exporter file requires trace_file")
	}
	if c.Telemetry.MetricsEnabled && c.Telemetry.MetricsFile == "" {
		return fmt.Errorf("metrics require metrics_file")
	}
	return nil
}

// EffectiveWorkers resolves Workers against GOMAXPROCS
func (c PipelineConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// SeasonInRange reports whether season lies inside the configured window
func (c SeasonsConfig) SeasonInRange(season int) bool {
	return season >= c.First && season <= c.Last
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() Config {
	return Config{
		Paths: PathsConfig{
			RawDir:               "data/raw",
			ProcessedDir:         "data/processed",
			ResultsDir:           "results",
			MetadataDir:          "results/metadata",
			FiguresDir:           "results/figures",
			LogsDir:              "logs",
			MatchesPattern:       "odds/*.csv",
			ParticipationPattern: "understat/*.csv",
			InjuriesPattern:      "injuries/*.csv",
			PrizeMoneyFile:       "pl_prize_money.csv",
		},
		Seasons: SeasonsConfig{
			First: 2019,
			Last:  2024,
		},
		Pipeline: PipelineConfig{
			MaxDaysRest:          30,
			InvalidOddsThreshold: 0.05,
			OddsPrefixes:         []string{"B365", "PS", "Max", "Avg"},
			RotationMinMatches:   3,
			RotationMinHard:      1,
			RotationMinEasy:      1,
			InjuryMinUnavailable: 2,
			InjuryMinAvailable:   2,
			MinOpponentClusters:  10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pipeline.log",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TracingEnabled: false,
			TraceExporter:  "file",
			TraceFile:      "results/metadata/trace.json",
			SampleRatio:    1.0,
			MetricsEnabled: true,
			MetricsFile:    "results/metadata/metrics.prom",
		},
		Report: ReportConfig{
			Workbook: true,
			Charts:   true,
		},
	}
}
