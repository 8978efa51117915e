// Package template renders notification text containing {{...}}
// expressions against a result context. An expression is an identifier
// followed by a colon-separated chain of filters, for example
// {{result_count:comma}} or {{sum:bytes_sent:bytes}}. Identifiers resolve
// against alert metadata first, then the first result row, then explicit
// row paths like result[0].field, then aggregates over all rows.
//
// Rendering is fail-soft: an identifier that cannot be resolved is left in
// the output as its literal {{...}} text, and a filter that does not apply
// to the resolved value passes it through unchanged.
package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Context is what expressions resolve against.
type Context struct {
	// Meta holds alert-level fields such as alert_name, alert_severity,
	// result_count and timestamp.
	Meta map[string]any
	// Rows are the query result rows, in result order.
	Rows []map[string]any
}

// Render evaluates every {{...}} expression in text against ctx.
func Render(text string, ctx *Context) string {
	var out strings.Builder
	rest := text
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			out.WriteString(rest)
			return out.String()
		}
		close := strings.Index(rest[open:], "}}")
		if close < 0 {
			out.WriteString(rest)
			return out.String()
		}
		close += open
		out.WriteString(rest[:open])

		raw := rest[open : close+2]
		inner := strings.TrimSpace(rest[open+2 : close])
		out.WriteString(evaluate(raw, inner, ctx))

		rest = rest[close+2:]
	}
}

type expression struct {
	ident   string
	filters []filterCall
}

type filterCall struct {
	name string
	args []string
}

// aggregate arity; join takes the field plus a separator.
var aggregateArity = map[string]int{
	"count": 0, "sum": 1, "avg": 1, "min": 1, "max": 1,
	"pluck": 1, "unique": 1, "join": 2,
}

// filter arity beyond the implicit value operand.
var filterArity = map[string]int{
	"upper": 0, "lower": 0, "capitalize": 0, "comma": 0, "percent": 0,
	"bytes": 0, "relative": 0, "date": 0, "badge": 0, "json": 0,
	"truncate": 1, "round": 1, "default": 1,
}

// parse splits an expression body into identifier and filter chain. The
// identifier may be an aggregate which consumes its own arguments from the
// segment list.
func parse(inner string) (expression, []string, bool) {
	segments := strings.Split(inner, ":")
	ident := strings.TrimSpace(segments[0])
	if ident == "" {
		return expression{}, nil, false
	}
	rest := segments[1:]

	var aggArgs []string
	if arity, isAgg := aggregateArity[ident]; isAgg {
		if len(rest) < arity {
			return expression{}, nil, false
		}
		aggArgs = rest[:arity]
		rest = rest[arity:]
	}

	expr := expression{ident: ident}
	for len(rest) > 0 {
		name := strings.TrimSpace(rest[0])
		rest = rest[1:]
		arity, known := filterArity[name]
		if !known {
			return expression{}, nil, false
		}
		if len(rest) < arity {
			return expression{}, nil, false
		}
		expr.filters = append(expr.filters, filterCall{name: name, args: rest[:arity]})
		rest = rest[arity:]
	}
	return expr, aggArgs, true
}

func evaluate(raw, inner string, ctx *Context) string {
	expr, aggArgs, ok := parse(inner)
	if !ok {
		return raw
	}

	var value any
	var resolved bool
	if _, isAgg := aggregateArity[expr.ident]; isAgg {
		value, resolved = resolveAggregate(expr.ident, aggArgs, ctx)
	} else {
		value, resolved = resolveIdentifier(expr.ident, ctx)
	}
	if !resolved {
		// A default filter rescues an unresolved identifier; anything else
		// leaves the literal expression in place.
		for _, f := range expr.filters {
			if f.name == "default" {
				value = f.args[0]
				resolved = true
				break
			}
		}
		if !resolved {
			return raw
		}
	}

	for _, f := range expr.filters {
		value = applyFilter(value, f)
	}
	return stringify(value)
}

func resolveIdentifier(ident string, ctx *Context) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	if v, ok := ctx.Meta[ident]; ok {
		return v, true
	}
	if strings.HasPrefix(ident, "result.") || strings.HasPrefix(ident, "result[") {
		return resolvePath(ident, ctx.Rows)
	}
	if len(ctx.Rows) > 0 {
		if v, ok := ctx.Rows[0][ident]; ok {
			return v, true
		}
	}
	return nil, false
}

// resolvePath walks result[N].a.b or result.a.b (index defaults to 0).
func resolvePath(ident string, rows []map[string]any) (any, bool) {
	rest := strings.TrimPrefix(ident, "result")
	index := 0
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return nil, false
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil || n < 0 {
			return nil, false
		}
		index = n
		rest = rest[end+1:]
	}
	if index >= len(rows) {
		return nil, false
	}
	rest = strings.TrimPrefix(rest, ".")
	if rest == "" {
		return nil, false
	}

	var current any = rows[index]
	for _, part := range strings.Split(rest, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func resolveAggregate(name string, args []string, ctx *Context) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	if name == "count" {
		return len(ctx.Rows), true
	}
	field := args[0]

	switch name {
	case "pluck":
		return pluck(ctx.Rows, field), true
	case "unique":
		return uniqueValues(pluck(ctx.Rows, field)), true
	case "join":
		sep := args[1]
		if sep == "" {
			sep = ", "
		}
		parts := make([]string, 0, len(ctx.Rows))
		for _, v := range pluck(ctx.Rows, field) {
			parts = append(parts, stringify(v))
		}
		return strings.Join(parts, sep), true
	}

	nums := make([]float64, 0, len(ctx.Rows))
	for _, v := range pluck(ctx.Rows, field) {
		if f, ok := toFloat64(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nil, false
	}
	switch name {
	case "sum":
		return sum(nums), true
	case "avg":
		return sum(nums) / float64(len(nums)), true
	case "min":
		sort.Float64s(nums)
		return nums[0], true
	case "max":
		sort.Float64s(nums)
		return nums[len(nums)-1], true
	}
	return nil, false
}

func pluck(rows []map[string]any, field string) []any {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[field]; ok {
			values = append(values, v)
		}
	}
	return values
}

func uniqueValues(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		key := stringify(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sum(nums []float64) float64 {
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
