package suite

import (
	"math"
	"strconv"
	"strings"
)

// pyFloat renders f the way Python's str() does, so one-liners read the
// same as the pytest harness they replace: 7.0, 0.1045, 1e-09.
func pyFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// pyStr renders an optional value, None when empty.
func pyStr(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
