package report

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/internal/files"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// StageName identifies the report stage in logs and diagnostics.
const StageName = "report"

// Figure file names under the figures directory.
const (
	ScatterFile    = "rotation_vs_injury.html"
	HistogramFile  = "rotation_elasticity_hist.html"
	PointValueFile = "gbp_per_point.html"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Width  string
	Height string
	Theme  string
	Colors []string
	// Bins is the number of histogram buckets.
	Bins int
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "900px",
		Height: "500px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666"},
		Bins:   20,
	}
}

// Renderer writes figures into one directory.
type Renderer struct {
	dir    string
	config ChartConfig
	logger *slog.Logger
}

// NewRenderer creates a renderer writing into dir.
func NewRenderer(dir string, config ChartConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Bins <= 0 {
		config.Bins = DefaultChartConfig().Bins
	}
	if len(config.Colors) == 0 {
		config.Colors = DefaultChartConfig().Colors
	}
	return &Renderer{dir: dir, config: config, logger: logger}
}

// RenderAll writes every figure and returns the paths written. A figure
// without data is still written, with no series.
func (r *Renderer) RenderAll(combined []domain.CombinedProxyRow, values []domain.PointValue) ([]string, *domain.Diagnostics, error) {
	diag := domain.NewDiagnostics(StageName)
	diag.RowsIn = len(combined)

	var written []string
	jobs := []struct {
		file   string
		render func(io.Writer) (int, error)
	}{
		{ScatterFile, func(w io.Writer) (int, error) { return r.Scatter(w, combined) }},
		{HistogramFile, func(w io.Writer) (int, error) { return r.Histogram(w, combined) }},
		{PointValueFile, func(w io.Writer) (int, error) { return r.PointValues(w, values) }},
	}
	for _, job := range jobs {
		path := filepath.Join(r.dir, job.file)
		var points int
		err := files.AtomicWrite(path, func(w io.Writer) error {
			var err error
			points, err = job.render(w)
			return err
		})
		if err != nil {
			return written, diag, apperrors.NewStorageError("failed to render "+job.file, err)
		}
		r.logger.Info("figure written", "path", path, "points", points)
		diag.RowsOut += points
		written = append(written, path)
	}
	return written, diag, nil
}

func (r *Renderer) globalOptions(title, subtitle, xName, yName, xType string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  r.config.Width,
			Height: r.config.Height,
			Theme:  r.config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: xType}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Type: "value"}),
		charts.WithColorsOpts(opts.Colors(r.config.Colors)),
	}
}

// Scatter plots rotation elasticity against the injury-implied season value,
// one series per season, for player-team-seasons carrying both proxies.
func (r *Renderer) Scatter(w io.Writer, rows []domain.CombinedProxyRow) (int, error) {
	bySeason := make(map[domain.Season][]opts.ScatterData)
	n := 0
	for _, row := range rows {
		if !row.HasRotation || !row.HasInjury {
			continue
		}
		x, y := row.Rotation.RotationElasticity, row.Injury.XPtsSeasonTotal
		if !finite(x) || !finite(y) {
			continue
		}
		bySeason[row.Season] = append(bySeason[row.Season], opts.ScatterData{
			Name:  fmt.Sprintf("%s (%s)", row.PlayerName, row.TeamID),
			Value: []float64{x, y},
		})
		n++
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(r.globalOptions(
		"Rotation vs injury impact",
		fmt.Sprintf("%d player-seasons", n),
		"rotation elasticity", "xPts per season when present", "value")...)
	for _, season := range sortedSeasons(bySeason) {
		scatter.AddSeries(season.Label(), bySeason[season],
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	}
	if err := scatter.Render(w); err != nil {
		return 0, fmt.Errorf("failed to render chart: %w", err)
	}
	return n, nil
}

// Histogram bins the finite rotation elasticities into equal-width buckets.
func (r *Renderer) Histogram(w io.Writer, rows []domain.CombinedProxyRow) (int, error) {
	var values []float64
	for _, row := range rows {
		if row.HasRotation && finite(row.Rotation.RotationElasticity) {
			values = append(values, row.Rotation.RotationElasticity)
		}
	}
	labels, counts := Bin(values, r.config.Bins)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(
		"Rotation elasticity",
		fmt.Sprintf("%d player-seasons", len(values)),
		"start rate easy minus hard", "player-seasons", "category")...)
	bar.SetXAxis(labels).AddSeries("players", data)
	if err := bar.Render(w); err != nil {
		return 0, fmt.Errorf("failed to render chart: %w", err)
	}
	return len(values), nil
}

// PointValues charts the pounds paid per league point in each season.
func (r *Renderer) PointValues(w io.Writer, values []domain.PointValue) (int, error) {
	sorted := append([]domain.PointValue(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Season < sorted[j].Season })

	labels := make([]string, len(sorted))
	data := make([]opts.BarData, len(sorted))
	for i, v := range sorted {
		labels[i] = v.Season.Label()
		data[i] = opts.BarData{Value: math.Round(v.GBPPerPoint)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(
		"Prize money per league point", "", "season", "GBP per point", "category")...)
	bar.SetXAxis(labels).AddSeries("GBP per point", data)
	if err := bar.Render(w); err != nil {
		return 0, fmt.Errorf("failed to render chart: %w", err)
	}
	return len(sorted), nil
}

// Bin splits values into n equal-width buckets over [min, max] and labels
// each bucket by its lower edge. All values land in one bucket when they are
// equal; no values gives no buckets.
func Bin(values []float64, n int) ([]string, []int) {
	if len(values) == 0 || n <= 0 {
		return nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []string{fmt.Sprintf("%.2f", lo)}, []int{len(values)}
	}

	width := (hi - lo) / float64(n)
	counts := make([]int, n)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.2f", lo+float64(i)*width)
	}
	return labels, counts
}

func sortedSeasons[V any](m map[domain.Season]V) []domain.Season {
	seasons := make([]domain.Season, 0, len(m))
	for s := range m {
		seasons = append(seasons, s)
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i] < seasons[j] })
	return seasons
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
