package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/errors"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestResolve_Relative(t *testing.T) {
	tests := []struct {
		expr string
		want time.Time
	}{
		{"-24h", testNow.Add(-24 * time.Hour)},
		{"-1h", testNow.Add(-time.Hour)},
		{"-7d", testNow.AddDate(0, 0, -7)},
		{"-2w", testNow.AddDate(0, 0, -14)},
		{"-1m", testNow.AddDate(0, -1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			iv, err := Resolve(tt.expr, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, iv.Start)
			assert.Equal(t, testNow, iv.End)
		})
	}
}

func TestResolve_Absolute(t *testing.T) {
	tests := []struct {
		expr string
		want time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00Z", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00.250Z", time.Date(2024, 1, 15, 10, 0, 0, 250*int(time.Millisecond), time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			iv, err := Resolve(tt.expr, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, iv.Start)
			assert.Equal(t, testNow, iv.End)
		})
	}
}

func TestResolve_Rejected(t *testing.T) {
	tests := []string{
		"",
		"24h",       // missing leading dash
		"-24x",      // unknown unit
		"-0h",       // zero amount
		"-24 h",     // embedded space
		"2024-13-40",          // out-of-range components
		"2024-01-15T25:00:00", // bad hour
		"now-24h",
		"'; DROP TABLE logs--",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Resolve(expr, testNow)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestInterval_Preceding(t *testing.T) {
	iv, err := Resolve("-24h", testNow)
	require.NoError(t, err)

	prev := iv.Preceding()
	assert.Equal(t, iv.Start, prev.End)
	assert.Equal(t, iv.Duration(), prev.Duration())
	assert.Equal(t, testNow.Add(-48*time.Hour), prev.Start)
}

func TestInterval_Shift(t *testing.T) {
	iv, err := Resolve("-1h", testNow)
	require.NoError(t, err)

	shifted := iv.Shift(30 * time.Minute)
	assert.Equal(t, iv.Duration(), shifted.Duration())
	assert.Equal(t, testNow.Add(-30*time.Minute), shifted.End)
}
