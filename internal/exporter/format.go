package exporter

import (
	"math"
	"strconv"
	"time"

	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

// formatFloat writes the shortest representation that round-trips; NaN and
// infinities are written as empty cells.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}
