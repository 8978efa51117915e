package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/timerange"
)

var testInterval = timerange.Interval{
	Start: time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
}

func TestParse_SearchFilters(t *testing.T) {
	q, err := Parse(`search level=error host=web01 timeout`)
	require.NoError(t, err)
	require.Len(t, q.Search.Filters, 3)
	assert.Equal(t, Filter{Field: "level", Value: "error"}, q.Search.Filters[0])
	assert.Equal(t, Filter{Field: "host", Value: "web01"}, q.Search.Filters[1])
	assert.Equal(t, Filter{Value: "timeout"}, q.Search.Filters[2])
	assert.Nil(t, q.Stats)
	assert.Nil(t, q.Table)
}

func TestParse_QuotedValue(t *testing.T) {
	q, err := Parse(`search message="connection refused" level=error`)
	require.NoError(t, err)
	require.Len(t, q.Search.Filters, 2)
	assert.Equal(t, Filter{Field: "message", Value: "connection refused"}, q.Search.Filters[0])
}

func TestParse_StatsAndTable(t *testing.T) {
	q, err := Parse(`search level=error | stats count by host, level | table host, value`)
	require.NoError(t, err)
	require.NotNil(t, q.Stats)
	assert.Equal(t, AggCount, q.Stats.Agg)
	assert.Equal(t, []string{"host", "level"}, q.Stats.By)
	require.NotNil(t, q.Table)
	assert.Equal(t, []string{"host", "value"}, q.Table.Fields)
}

func TestParse_AggregationForms(t *testing.T) {
	tests := []struct {
		expr     string
		wantAgg  AggFunc
		wantArg  string
	}{
		{"count", AggCount, ""},
		{"count()", AggCount, ""},
		{"sum(bytes)", AggSum, "bytes"},
		{"avg(duration_ms)", AggAvg, "duration_ms"},
		{"min(duration_ms)", AggMin, "duration_ms"},
		{"max(duration_ms)", AggMax, "duration_ms"},
		{"dc(host)", AggDistinctCount, "host"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			q, err := Parse("search level=error | stats " + tt.expr + " by host")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAgg, q.Stats.Agg)
			assert.Equal(t, tt.wantArg, q.Stats.AggField)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"missing search", "stats count by host"},
		{"unknown stage", "search a | foo bar"},
		{"bad field name", "search le;vel=error"},
		{"empty filter value", "search level="},
		{"sum without field", "search a | stats sum() by host"},
		{"unknown agg", "search a | stats median(x) by host"},
		{"stats after table", "search a | table host | stats count by host"},
		{"by without fields", "search a | stats count by"},
		{"empty stage", "search a | "},
		{"injection in field", `search "a" | table host; DROP`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.True(t, errors.IsCompile(err), "expected CompileError, got %v", err)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("search level=error | frobnicate host")
	require.Error(t, err)
	var ce *errors.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 21, ce.Pos)
}

func TestCompile_SearchOnly(t *testing.T) {
	c, err := CompileText(`search level=error timeout`, testInterval)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM logs WHERE level = ? AND message LIKE ? AND timestamp >= ? AND timestamp < ? ORDER BY timestamp DESC",
		c.SQL)
	assert.Equal(t, []any{"error", "%timeout%", testInterval.Start, testInterval.End}, c.Args)
}

func TestCompile_TimeConditionWithoutFilters(t *testing.T) {
	q := &Query{Search: SearchStage{Filters: []Filter{{Field: "level", Value: "error"}}}}
	q.Search.Filters = nil
	c, err := Compile(q, testInterval)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM logs WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp DESC", c.SQL)
}

func TestCompile_Stats(t *testing.T) {
	c, err := CompileText(`search level=error | stats dc(host) by source`, testInterval)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT source, COUNT(DISTINCT host) AS value FROM logs WHERE level = ? AND timestamp >= ? AND timestamp < ? GROUP BY source ORDER BY source",
		c.SQL)
}

func TestCompile_StatsWithoutBy(t *testing.T) {
	c, err := CompileText(`search level=error | stats count`, testInterval)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS value FROM logs WHERE level = ? AND timestamp >= ? AND timestamp < ?",
		c.SQL)
}

func TestCompile_Table(t *testing.T) {
	c, err := CompileText(`search level=error | table host, message`, testInterval)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT host, message FROM logs WHERE level = ? AND timestamp >= ? AND timestamp < ? ORDER BY timestamp DESC",
		c.SQL)
}

func TestCompile_Deterministic(t *testing.T) {
	const text = `search level=error host=web01 | stats count by host`
	a, err := CompileText(text, testInterval)
	require.NoError(t, err)
	b, err := CompileText(text, testInterval)
	require.NoError(t, err)
	assert.Equal(t, a.SQL, b.SQL)
	assert.Equal(t, a.Args, b.Args)
}
