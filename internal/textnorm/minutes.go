package textnorm

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// DefaultMinutes is used whenever a duration is missing or unusable.
const DefaultMinutes = 60

// Units accepted after a numeric duration string, e.g. "90 dk".
var minuteUnits = map[string]bool{
	"": true, "m": true, "min": true, "mins": true, "minute": true, "minutes": true,
	"dk": true, "dak": true, "dakika": true, "'": true,
}

// CoerceMinutes turns a loosely typed duration into a positive number of
// minutes. Missing, zero, negative and non-numeric values yield DefaultMinutes.
func CoerceMinutes(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return DefaultMinutes
		}
		f = n
	case string:
		n, ok := parseMinutesString(x)
		if !ok {
			return DefaultMinutes
		}
		f = n
	default:
		return DefaultMinutes
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultMinutes
	}
	n := int(math.Round(f))
	if n <= 0 {
		return DefaultMinutes
	}
	return n
}

func parseMinutesString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || s[end] == '.' || s[end] == ',' || (end == 0 && s[end] == '-')) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	unit := Fold(s[end:])
	if !minuteUnits[unit] {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
