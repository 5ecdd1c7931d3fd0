package flow

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Delay units accepted in DELAY node data.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
)

// CalculateDelayDuration computes how long a DELAY node suspends an enrollment.
// The amount comes from data["value"], falling back to data["duration"], and is
// truncated to an integer. Unknown units count as minutes.
func CalculateDelayDuration(data map[string]any) time.Duration {
	raw, ok := data["value"]
	if !ok || raw == nil {
		raw = data["duration"]
	}

	value := parseInt(raw)

	unit, _ := data["unit"].(string)

	return time.Duration(value) * unitDuration(unit)
}

func unitDuration(unit string) time.Duration {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UnitHours, "hour":
		return time.Hour
	case UnitDays, "day":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// parseInt mirrors integer parsing of loosely typed form input: a leading
// numeric prefix of a string is used, floats are truncated, anything else is 0.
func parseInt(raw any) int64 {
	switch v := raw.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return truncate(float64(v))
	case float64:
		return truncate(v)
	case json.Number:
		return parseIntString(v.String())
	case string:
		return parseIntString(v)
	default:
		return 0
	}
}

func truncate(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return int64(v)
}

func parseIntString(s string) int64 {
	s = strings.TrimSpace(s)

	negative := false

	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}

	var (
		result int64
		digits int
	)

	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}

		result = result*10 + int64(r-'0')
		digits++
	}

	if digits == 0 {
		return 0
	}

	if negative {
		return -result
	}

	return result
}
