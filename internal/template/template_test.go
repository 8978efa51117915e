package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testContext() *Context {
	return &Context{
		Meta: map[string]any{
			"alert_name":     "Disk Full",
			"alert_severity": "critical",
			"result_count":   42,
			"timestamp":      time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		},
		Rows: []map[string]any{
			{"host": "web-01", "level": "error", "bytes_sent": 1048576, "latency_ms": 12.5},
			{"host": "web-02", "level": "error", "bytes_sent": 2097152, "latency_ms": 7.5},
			{"host": "web-01", "level": "warn", "bytes_sent": 512, "latency_ms": 30.0},
		},
	}
}

func TestRenderIdentifiers(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"metadata fields", "Alert {{alert_name}} fired with {{result_count}} results", "Alert Disk Full fired with 42 results"},
		{"first row field", "host={{host}}", "host=web-01"},
		{"indexed row access", "second={{result[1].host}}", "second=web-02"},
		{"dot path defaults to first row", "{{result.level}}", "error"},
		{"unresolved stays literal", "value: {{unknown_field}}", "value: {{unknown_field}}"},
		{"unresolved path stays literal", "{{result[9].host}}", "{{result[9].host}}"},
		{"empty expression stays literal", "{{}}", "{{}}"},
		{"unterminated braces pass through", "open {{alert_name", "open {{alert_name"},
		{"metadata wins over row field", "{{result_count}}", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, ctx))
		})
	}
}

func TestRenderAggregates(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"count", "{{count}}", "3"},
		{"sum", "{{sum:bytes_sent}}", "3146240"},
		{"avg", "{{avg:latency_ms}}", "16.666666666666668"},
		{"min", "{{min:latency_ms}}", "7.5"},
		{"max", "{{max:latency_ms}}", "30"},
		{"pluck", "{{pluck:host}}", "web-01, web-02, web-01"},
		{"unique", "{{unique:host}}", "web-01, web-02"},
		{"join with separator", "{{join:level:/}}", "error/error/warn"},
		{"aggregate of missing field stays literal", "{{sum:nope}}", "{{sum:nope}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, ctx))
		})
	}
}

func TestRenderFilters(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"upper", "{{alert_name:upper}}", "DISK FULL"},
		{"lower", "{{alert_name:lower}}", "disk full"},
		{"capitalize", "{{result.level:capitalize}}", "Error"},
		{"truncate", "{{alert_name:truncate:4}}", "Disk..."},
		{"truncate longer than value", "{{alert_name:truncate:20}}", "Disk Full"},
		{"comma", "{{sum:bytes_sent:comma}}", "3,146,240"},
		{"round", "{{avg:latency_ms:round:2}}", "16.67"},
		{"percent", "{{result[0].latency_ms:percent}}", "1250%"},
		{"bytes", "{{result[1].bytes_sent:bytes}}", "2.1 MB"},
		{"badge", "{{alert_severity:badge}}", "🔴 CRITICAL"},
		{"date", "{{timestamp:date}}", "2024-06-15 12:00:00"},
		{"default on unresolved", "{{unknown_field:default:n/a}}", "n/a"},
		{"default ignored when resolved", "{{alert_name:default:n/a}}", "Disk Full"},
		{"filter chain", "{{alert_name:lower:truncate:4}}", "disk..."},
		{"type mismatch passes through", "{{alert_name:comma}}", "Disk Full"},
		{"unknown filter stays literal", "{{alert_name:sparkle}}", "{{alert_name:sparkle}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, ctx))
		})
	}
}

func TestRenderRelativeFilter(t *testing.T) {
	ctx := &Context{Meta: map[string]any{"when": time.Now().Add(-3 * time.Minute)}}
	assert.Equal(t, "3 minutes ago", Render("{{when:relative}}", ctx))
}

func TestRenderEmptyContext(t *testing.T) {
	assert.Equal(t, "{{host}} and {{count}}", Render("{{host}} and {{count}}", nil))
	assert.Equal(t, "0", Render("{{count}}", &Context{}))
}
