// Package timerange resolves user-supplied time range expressions into
// concrete intervals. Expressions are validated against strict patterns
// before interpretation so they can never be interpolated unchecked into
// a generated query.
package timerange

import (
	"regexp"
	"strconv"
	"time"

	"github.com/logseer/logseer/internal/errors"
)

var (
	relativePattern = regexp.MustCompile(`^-(\d+)([hdwm])$`)
	absolutePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?)?$`)
)

// Interval is a concrete half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Preceding returns the equal-length interval immediately before this one,
// used as the default comparison window for drops_by/rises_by conditions.
func (iv Interval) Preceding() Interval {
	d := iv.Duration()
	return Interval{Start: iv.Start.Add(-d), End: iv.Start}
}

// Shift returns the interval moved back in time by offset.
func (iv Interval) Shift(offset time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-offset), End: iv.End.Add(-offset)}
}

// Resolve turns a time range expression into a concrete interval ending at
// now. Accepted forms:
//
//	-<N><unit>   with unit h (hours), d (days), w (weeks), m (months)
//	YYYY-MM-DD[THH:MM:SS[.mmm][Z]]  (ISO-8601, UTC)
//
// Any other input is rejected with a ValidationError.
func Resolve(expr string, now time.Time) (Interval, error) {
	if expr == "" {
		return Interval{}, errors.NewValidation("time_range", "empty time range")
	}

	if m := relativePattern.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return Interval{}, errors.NewValidation("time_range", "invalid relative amount %q", m[1])
		}
		var start time.Time
		switch m[2] {
		case "h":
			start = now.Add(-time.Duration(n) * time.Hour)
		case "d":
			start = now.AddDate(0, 0, -n)
		case "w":
			start = now.AddDate(0, 0, -7*n)
		case "m":
			start = now.AddDate(0, -n, 0)
		}
		return Interval{Start: start, End: now}, nil
	}

	if absolutePattern.MatchString(expr) {
		start, err := parseAbsolute(expr)
		if err != nil {
			return Interval{}, errors.NewValidation("time_range", "invalid timestamp %q: %v", expr, err)
		}
		if start.After(now) {
			return Interval{}, errors.NewValidation("time_range", "start %q is in the future", expr)
		}
		return Interval{Start: start, End: now}, nil
	}

	return Interval{}, errors.NewValidation("time_range", "unrecognized time range %q", expr)
}

// parseAbsolute parses the subset of ISO-8601 the pattern admits. The
// pattern guarantees shape; time.Parse rejects out-of-range components
// such as month 13 or day 40.
func parseAbsolute(expr string) (time.Time, error) {
	layouts := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05.000Z",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, expr)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Validate checks an expression without resolving it, for use at entity
// creation time.
func Validate(expr string) error {
	_, err := Resolve(expr, time.Now().UTC())
	return err
}
