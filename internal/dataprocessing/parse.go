package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// parseInt accepts integral floats such as "90.0".
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, ok := parseFloat(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "1.0", "yes", "y":
		return true, true
	case "false", "f", "0", "0.0", "no", "n", "":
		return false, true
	}
	return false, false
}

func parseDate(s string) (time.Time, bool) {
	t, err := domain.ParseDate(s)
	return t, err == nil
}

// seasonOf reads the season cell when the column exists, else falls back to
// the season inferred from the file name.
func seasonOf(row []string, idx int, fallback domain.Season) (domain.Season, bool) {
	if v := Cell(row, idx); v != "" {
		s, err := domain.ParseSeason(v)
		return s, err == nil
	}
	return fallback, fallback != 0
}
