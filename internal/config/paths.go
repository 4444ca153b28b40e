package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved directory and well-known artifact of a run
type Paths struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string
	ResultsDir   string
	MetadataDir  string
	FiguresDir   string
	LogsDir      string

	MatchesGlob       string
	ParticipationGlob string
	InjuriesGlob      string
	PrizeMoneyFile    string
}

// Well-known artifact names
const (
	MatchOutcomesFile   = "match_outcomes.csv"
	StandingsFile       = "standings.csv"
	PointValuesFile     = "points_to_pounds.csv"
	RotationPanelFile   = "rotation_panel.csv"
	InjuryPanelFile     = "injury_panel.csv"
	RotationProxyFile   = "rotation_proxy.csv"
	InjuryProxyFile     = "injury_proxy.csv"
	CombinedProxiesFile = "combined_proxies.csv"
	WorkbookFile        = "proxies.xlsx"
)

// Resolve turns the configured locations into absolute paths. An empty BaseDir
// resolves against the current working directory.
func (c PathsConfig) Resolve() (Paths, error) {
	base := c.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve base dir: %w", err)
	}

	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	raw := join(c.RawDir)
	under := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(raw, p)
	}

	return Paths{
		BaseDir:           base,
		RawDir:            raw,
		ProcessedDir:      join(c.ProcessedDir),
		ResultsDir:        join(c.ResultsDir),
		MetadataDir:       join(c.MetadataDir),
		FiguresDir:        join(c.FiguresDir),
		LogsDir:           join(c.LogsDir),
		MatchesGlob:       under(c.MatchesPattern),
		ParticipationGlob: under(c.ParticipationPattern),
		InjuriesGlob:      under(c.InjuriesPattern),
		PrizeMoneyFile:    under(c.PrizeMoneyFile),
	}, nil
}

// EnsureDirectories creates the output directories if they don't exist
func (p Paths) EnsureDirectories() error {
	directories := []string{
		p.ProcessedDir,
		p.ResultsDir,
		p.MetadataDir,
		p.FiguresDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// Processed returns the path of an intermediate artifact
func (p Paths) Processed(name string) string {
	return filepath.Join(p.ProcessedDir, name)
}

// Result returns the path of a final artifact
func (p Paths) Result(name string) string {
	return filepath.Join(p.ResultsDir, name)
}

// Metadata returns the path of a run-metadata artifact
func (p Paths) Metadata(name string) string {
	return filepath.Join(p.MetadataDir, name)
}

// Figure returns the path of a chart
func (p Paths) Figure(name string) string {
	return filepath.Join(p.FiguresDir, name)
}

// Under resolves a configured file path against BaseDir
func (p Paths) Under(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
