package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsConfig_Resolve(t *testing.T) {
	base := t.TempDir()
	pc := Default().Paths
	pc.BaseDir = base

	paths, err := pc.Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data", "raw"), paths.RawDir)
	assert.Equal(t, filepath.Join(base, "results"), paths.ResultsDir)
	assert.Equal(t, filepath.Join(base, "data", "raw", "odds", "*.csv"), paths.MatchesGlob)
	assert.Equal(t, filepath.Join(base, "data", "raw", "pl_prize_money.csv"), paths.PrizeMoneyFile)
	assert.Equal(t, filepath.Join(base, "results", RotationProxyFile), paths.Result(RotationProxyFile))
	assert.Equal(t, filepath.Join(base, "data", "processed", RotationPanelFile), paths.Processed(RotationPanelFile))
}

func TestPathsConfig_ResolveKeepsAbsolute(t *testing.T) {
	abs := t.TempDir()
	pc := Default().Paths
	pc.BaseDir = t.TempDir()
	pc.ResultsDir = abs

	paths, err := pc.Resolve()
	require.NoError(t, err)
	assert.Equal(t, abs, paths.ResultsDir)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	pc := Default().Paths
	pc.BaseDir = t.TempDir()
	paths, err := pc.Resolve()
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.ProcessedDir, paths.ResultsDir, paths.MetadataDir, paths.FiguresDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, FileExists(paths.ResultsDir))
	assert.False(t, FileExists(filepath.Join(paths.ResultsDir, "missing.csv")))
}
