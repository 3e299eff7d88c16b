package utils

import (
	"fmt"
	"math"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with a 1024 base and two decimals,
// e.g. 1536 -> "1.5 KB". Negative values are clamped to zero and TB is the
// largest unit.
func FormatBytes(bytes int64) string {
	value := math.Max(float64(bytes), 0)

	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%s %s", trimFloat(round2(value)), byteUnits[unit])
}

// UsagePercent returns used/total*100 rounded to two decimals,
// or zero when total is zero.
func UsagePercent(used, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(used) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
