package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// Format is the tabular encoding of an input file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Format  Format
	// Season is inferred from the file name; zero when the name carries none.
	Season domain.Season
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// FindByPattern finds the CSV and XLSX files matching a glob pattern, ordered
// by season then name.
func (d *Discovery) FindByPattern(pattern string) ([]FileInfo, error) {
	searchPattern := pattern
	if !filepath.IsAbs(pattern) {
		searchPattern = filepath.Join(d.basePath, pattern)
	}

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		format, ok := FormatOf(match)
		if !ok {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Format:  format,
			Season:  SeasonFromName(filepath.Base(match)),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Season != files[j].Season {
			return files[i].Season < files[j].Season
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FormatOf returns the tabular format implied by a file extension
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, true
	case ".xlsx", ".xlsm":
		return FormatXLSX, true
	}
	return "", false
}

// SeasonFromName returns the first plausible year in name, e.g. 2019 for
// "E0_2019-2020.csv" or "understat_2019_20.csv".
func SeasonFromName(name string) domain.Season {
	m := yearPattern.FindString(name)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return domain.Season(y)
}

// FilterSeasons keeps files whose inferred season lies in [first, last].
// Files without a season in their name are kept; their rows carry one.
func FilterSeasons(files []FileInfo, first, last int) []FileInfo {
	var filtered []FileInfo
	for _, f := range files {
		if f.Season == 0 || (int(f.Season) >= first && int(f.Season) <= last) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
