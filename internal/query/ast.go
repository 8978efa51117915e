// Package query parses the pipeline query language and compiles it into a
// parameterized SQL query against the log store.
//
// The language has the shape:
//
//	search <filter-expr> [| stats <agg>(field) by <f1,f2,...>] [| table <f1,f2,...>]
//
// where filters are field=value pairs or bare terms, space separated, with
// implicit AND semantics.
package query

// Query is the parsed form of a pipeline query.
type Query struct {
	Search SearchStage
	Stats  *StatsStage
	Table  *TableStage
}

// SearchStage holds the leading filter expression.
type SearchStage struct {
	Filters []Filter
}

// Filter is a single search predicate. A filter with an empty Field is a
// bare term matched against the message column.
type Filter struct {
	Field string
	Value string
}

// AggFunc identifies a stats aggregation function.
type AggFunc string

const (
	AggCount         AggFunc = "count"
	AggSum           AggFunc = "sum"
	AggAvg           AggFunc = "avg"
	AggMin           AggFunc = "min"
	AggMax           AggFunc = "max"
	AggDistinctCount AggFunc = "dc"
)

// StatsStage is a `stats <agg>(field) by <fields>` pipeline stage.
type StatsStage struct {
	Agg      AggFunc
	AggField string // empty for count
	By       []string
}

// TableStage is a `table <fields>` projection stage.
type TableStage struct {
	Fields []string
}
