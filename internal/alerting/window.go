package alerting

import (
	"time"

	"github.com/logseer/logseer/internal/errors"
)

// WindowIndefinite is the duration string for a silence with no end.
const WindowIndefinite = "indefinite"

// silenceWindows are the accepted silence duration presets.
var silenceWindows = map[string]time.Duration{
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"24h": 24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// ParseWindow converts a silence duration string into an end time relative
// to start. Indefinite silences return nil.
func ParseWindow(window string, start time.Time) (*time.Time, error) {
	if window == WindowIndefinite {
		return nil, nil
	}
	d, ok := silenceWindows[window]
	if !ok {
		return nil, errors.NewValidation("duration", "must be one of 1h, 4h, 24h, 1w, indefinite")
	}
	end := start.Add(d)
	return &end, nil
}
