package query

import (
	"fmt"
	"strings"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/timerange"
)

// logTable is the base relation all compiled queries read from.
const logTable = "logs"

// Compiled is a parameterized SQL query ready for the data-store executor.
// Compilation is pure: identical query text plus an identical resolved
// interval always yields an identical SQL string and argument list, which
// keeps cache keys stable.
type Compiled struct {
	SQL  string
	Args []any
}

// Compile lowers a parsed query to SQL, binding the resolved time range as
// parameters. The time condition is always conjoined into the WHERE clause;
// when no filters exist the WHERE clause consists of the time condition
// alone.
func Compile(q *Query, iv timerange.Interval) (*Compiled, error) {
	if q == nil {
		return nil, errors.NewCompile(-1, "nil query")
	}

	var where []string
	var args []any
	for _, f := range q.Search.Filters {
		if f.Field == "" {
			where = append(where, "message LIKE ?")
			args = append(args, "%"+f.Value+"%")
			continue
		}
		where = append(where, f.Field+" = ?")
		args = append(args, f.Value)
	}
	where = append(where, "timestamp >= ?", "timestamp < ?")
	args = append(args, iv.Start.UTC(), iv.End.UTC())
	whereClause := strings.Join(where, " AND ")

	var sql string
	switch {
	case q.Stats != nil:
		inner, err := statsSelect(q.Stats, whereClause)
		if err != nil {
			return nil, err
		}
		sql = inner
		if q.Table != nil {
			sql = fmt.Sprintf("SELECT %s FROM (%s)", strings.Join(q.Table.Fields, ", "), inner)
		}
	case q.Table != nil:
		sql = fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY timestamp DESC",
			strings.Join(q.Table.Fields, ", "), logTable, whereClause)
	default:
		sql = fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY timestamp DESC", logTable, whereClause)
	}

	return &Compiled{SQL: sql, Args: args}, nil
}

func statsSelect(st *StatsStage, whereClause string) (string, error) {
	var agg string
	switch st.Agg {
	case AggCount:
		agg = "COUNT(*)"
	case AggSum:
		agg = fmt.Sprintf("SUM(%s)", st.AggField)
	case AggAvg:
		agg = fmt.Sprintf("AVG(%s)", st.AggField)
	case AggMin:
		agg = fmt.Sprintf("MIN(%s)", st.AggField)
	case AggMax:
		agg = fmt.Sprintf("MAX(%s)", st.AggField)
	case AggDistinctCount:
		agg = fmt.Sprintf("COUNT(DISTINCT %s)", st.AggField)
	default:
		return "", errors.NewCompile(-1, "unknown aggregation %q", st.Agg)
	}

	if len(st.By) == 0 {
		return fmt.Sprintf("SELECT %s AS value FROM %s WHERE %s", agg, logTable, whereClause), nil
	}
	by := strings.Join(st.By, ", ")
	return fmt.Sprintf("SELECT %s, %s AS value FROM %s WHERE %s GROUP BY %s ORDER BY %s",
		by, agg, logTable, whereClause, by, by), nil
}

// CompileText parses and compiles in one step.
func CompileText(text string, iv timerange.Interval) (*Compiled, error) {
	q, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Compile(q, iv)
}

// Validate parses query text for creation-time validation, discarding the AST.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}
