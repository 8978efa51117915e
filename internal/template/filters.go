package template

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// applyFilter transforms value through one filter. Filters that do not
// apply to the value's type pass it through unchanged rather than failing
// the render.
func applyFilter(value any, f filterCall) any {
	switch f.name {
	case "upper":
		return strings.ToUpper(stringify(value))
	case "lower":
		return strings.ToLower(stringify(value))
	case "capitalize":
		return capitalize(stringify(value))
	case "truncate":
		n, err := strconv.Atoi(f.args[0])
		if err != nil || n < 0 {
			return value
		}
		return truncate(stringify(value), n)
	case "comma":
		if n, ok := toFloat64(value); ok {
			return humanize.Commaf(n)
		}
		return value
	case "round":
		places, err := strconv.Atoi(f.args[0])
		if err != nil || places < 0 {
			return value
		}
		if n, ok := toFloat64(value); ok {
			return strconv.FormatFloat(n, 'f', places, 64)
		}
		return value
	case "percent":
		if n, ok := toFloat64(value); ok {
			return strconv.FormatFloat(n*100, 'f', -1, 64) + "%"
		}
		return value
	case "bytes":
		if n, ok := toFloat64(value); ok && n >= 0 {
			return humanize.Bytes(uint64(n))
		}
		return value
	case "relative":
		if t, ok := toTime(value); ok {
			return humanize.Time(t)
		}
		return value
	case "date":
		if t, ok := toTime(value); ok {
			return t.Format("2006-01-02 15:04:05")
		}
		return value
	case "badge":
		return severityBadge(stringify(value))
	case "json":
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return value
		}
		return string(encoded)
	case "default":
		if value == nil || stringify(value) == "" {
			return f.args[0]
		}
		return value
	default:
		return value
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// toTime accepts time.Time values, RFC 3339 strings, and unix-second
// numbers. Values above a millisecond-epoch floor are treated as unix
// milliseconds.
func toTime(v any) (time.Time, bool) {
	const msEpochFloor = 1e12
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		if n, ok := toFloat64(v); ok && n > 0 {
			if n >= msEpochFloor {
				return time.UnixMilli(int64(n)), true
			}
			sec, frac := math.Modf(n)
			return time.Unix(int64(sec), int64(frac*1e9)), true
		}
		return time.Time{}, false
	}
}

func severityBadge(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return "🔴 CRITICAL"
	case "high":
		return "🟠 HIGH"
	case "medium":
		return "🟡 MEDIUM"
	case "low":
		return "🔵 LOW"
	case "info":
		return "⚪ INFO"
	default:
		return severity
	}
}
