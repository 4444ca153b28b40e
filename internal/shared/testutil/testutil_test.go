package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", "key1", "value1", "key2", 42)

		records := handler.GetRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "test message", records[0].Message)
		assert.Equal(t, slog.LevelInfo, records[0].Level)
		assert.Equal(t, "value1", records[0].Attrs["key1"])
		assert.EqualValues(t, 42, records[0].Attrs["key2"])
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")

		assert.Equal(t, 4, handler.Count())
		require.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("stage", "matches").Info("stage done")
		logger.Info("run done")

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsAttr("stage", "matches"))
		assert.True(t, handler.ContainsMessage("run done"))
		AssertNoErrors(t, handler)
	})
}

func TestLeagueWrite(t *testing.T) {
	raw := t.TempDir()
	league := DefaultLeague()
	league.Write(t, raw)

	for _, name := range []string{
		"odds/E0_2019.csv",
		"understat/understat_2019.csv",
		"injuries/injuries_2019.csv",
		"pl_prize_money.csv",
	} {
		assert.FileExists(t, filepath.Join(raw, name))
	}

	data, err := os.ReadFile(filepath.Join(raw, "odds/E0_2019.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, len(league.Fixtures)+1)
	assert.Equal(t, "E0,10/08/2019,Arsenal,Chelsea,2,1,H,2.00,3.40,3.80", lines[1])

	prizes, err := os.ReadFile(filepath.Join(raw, "pl_prize_money.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(prizes), "2019,Arsenal,155000000\n")
}

func TestLeagueWriteWithoutPrizes(t *testing.T) {
	raw := t.TempDir()
	league := DefaultLeague()
	league.Prizes = nil
	league.Write(t, raw)

	assert.NoFileExists(t, filepath.Join(raw, "pl_prize_money.csv"))
}
