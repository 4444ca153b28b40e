// Package validation checks the raw source tree before a pipeline run.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olol2/Conor-Keenan-Project/internal/config"
	"github.com/olol2/Conor-Keenan-Project/internal/files"
)

// Source kinds checked by Preflight
const (
	SourceMatches       = "matches"
	SourceParticipation = "participation"
	SourceInjuries      = "injuries"
	SourcePrizeMoney    = "prize_money"
)

// Report summarises the raw source tree.
type Report struct {
	// Files counts the usable files per source kind.
	Files map[string]int
	// Problems lists files that exist but cannot be read as tables.
	Problems []string
	// Missing lists source kinds without any usable file.
	Missing []string
}

// Ready reports whether every required source has at least one file.
func (r *Report) Ready() bool {
	for _, kind := range r.Missing {
		if kind != SourcePrizeMoney {
			return false
		}
	}
	return true
}

// SourceValidator provides file checks for the raw inputs
type SourceValidator struct {
	logger *slog.Logger
}

// NewSourceValidator creates a new source validator
func NewSourceValidator(logger *slog.Logger) *SourceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceValidator{logger: logger}
}

// Preflight checks the raw directory and every configured source. Only an
// unusable raw directory is an error; missing or unreadable files are
// reported so the run can decide.
func (v *SourceValidator) Preflight(paths config.Paths) (*Report, error) {
	if err := v.ValidateDirectory(paths.RawDir); err != nil {
		return nil, err
	}

	report := &Report{Files: make(map[string]int)}
	globs := []struct{ kind, glob string }{
		{SourceMatches, paths.MatchesGlob},
		{SourceParticipation, paths.ParticipationGlob},
		{SourceInjuries, paths.InjuriesGlob},
	}
	for _, g := range globs {
		matches, err := filepath.Glob(g.glob)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %s: %w", g.kind, g.glob, err)
		}
		sort.Strings(matches)
		for _, path := range matches {
			if err := v.ValidateTableFile(path); err != nil {
				report.Problems = append(report.Problems, err.Error())
				continue
			}
			report.Files[g.kind]++
		}
		if report.Files[g.kind] == 0 {
			report.Missing = append(report.Missing, g.kind)
			v.logger.Warn("no usable source files",
				slog.String("source", g.kind),
				slog.String("pattern", g.glob))
		}
	}

	if paths.PrizeMoneyFile != "" {
		if err := v.ValidateTableFile(paths.PrizeMoneyFile); err != nil {
			report.Missing = append(report.Missing, SourcePrizeMoney)
			v.logger.Warn("prize money file unavailable",
				slog.String("file", paths.PrizeMoneyFile),
				slog.String("error", err.Error()))
		} else {
			report.Files[SourcePrizeMoney] = 1
		}
	}

	v.logger.Info("sources validated",
		slog.String("raw_dir", paths.RawDir),
		slog.Int(SourceMatches, report.Files[SourceMatches]),
		slog.Int(SourceParticipation, report.Files[SourceParticipation]),
		slog.Int(SourceInjuries, report.Files[SourceInjuries]),
		slog.Int("problems", len(report.Problems)))
	return report, nil
}

// ValidateDirectory checks that dir exists and is a directory
func (v *SourceValidator) ValidateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *SourceValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateTableFile checks that path is a readable CSV or XLSX file and not
// an editor lock file.
func (v *SourceValidator) ValidateTableFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if _, ok := files.FormatOf(path); !ok {
		return fmt.Errorf("file %s is not a CSV or Excel file (extension: %s)", path, filepath.Ext(path))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}
	return nil
}
