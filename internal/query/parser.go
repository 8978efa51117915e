package query

import (
	"regexp"
	"strings"

	"github.com/logseer/logseer/internal/errors"
)

// identPattern constrains field names so they can be spliced into generated
// SQL as column references without quoting tricks.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// token is a whitespace-delimited word with its byte offset in the original
// query text, kept so compile errors can point at the source.
type token struct {
	text string
	pos  int
}

// Parse parses pipeline query text into a Query. Malformed input yields a
// CompileError carrying a reason and a byte offset into the text.
func Parse(text string) (*Query, error) {
	stages := splitStages(text)
	if len(stages) == 0 || strings.TrimSpace(stages[0].text) == "" {
		return nil, errors.NewCompile(0, "empty query")
	}

	q := &Query{}
	for i, st := range stages {
		toks := tokenize(st.text, st.pos)
		if len(toks) == 0 {
			return nil, errors.NewCompile(st.pos, "empty pipeline stage")
		}
		head := toks[0]
		switch head.text {
		case "search":
			if i != 0 {
				return nil, errors.NewCompile(head.pos, "search must be the first stage")
			}
			stage, err := parseSearch(toks[1:], head.pos)
			if err != nil {
				return nil, err
			}
			q.Search = stage
		case "stats":
			if i == 0 {
				return nil, errors.NewCompile(head.pos, "query must start with search")
			}
			if q.Stats != nil {
				return nil, errors.NewCompile(head.pos, "duplicate stats stage")
			}
			if q.Table != nil {
				return nil, errors.NewCompile(head.pos, "stats cannot follow table")
			}
			stage, err := parseStats(toks[1:], head.pos)
			if err != nil {
				return nil, err
			}
			q.Stats = stage
		case "table":
			if i == 0 {
				return nil, errors.NewCompile(head.pos, "query must start with search")
			}
			if q.Table != nil {
				return nil, errors.NewCompile(head.pos, "duplicate table stage")
			}
			stage, err := parseTable(toks[1:], head.pos)
			if err != nil {
				return nil, err
			}
			q.Table = stage
		default:
			return nil, errors.NewCompile(head.pos, "unknown pipeline stage %q", head.text)
		}
	}
	return q, nil
}

type stageText struct {
	text string
	pos  int
}

// splitStages splits on unquoted '|' while remembering stage offsets.
func splitStages(text string) []stageText {
	var out []stageText
	start := 0
	inQuote := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			inQuote = !inQuote
		case '|':
			if !inQuote {
				out = append(out, stageText{text: text[start:i], pos: start})
				start = i + 1
			}
		}
	}
	out = append(out, stageText{text: text[start:], pos: start})
	return out
}

// tokenize splits a stage into words, honoring double quotes, and records
// absolute byte offsets.
func tokenize(text string, base int) []token {
	var toks []token
	i := 0
	for i < len(text) {
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if i >= len(text) {
			break
		}
		start := i
		inQuote := false
		for i < len(text) {
			c := text[i]
			if c == '"' {
				inQuote = !inQuote
			} else if (c == ' ' || c == '\t') && !inQuote {
				break
			}
			i++
		}
		toks = append(toks, token{text: text[start:i], pos: base + start})
	}
	return toks
}

func parseSearch(toks []token, stagePos int) (SearchStage, error) {
	if len(toks) == 0 {
		return SearchStage{}, errors.NewCompile(stagePos, "search requires at least one filter or term")
	}
	stage := SearchStage{Filters: make([]Filter, 0, len(toks))}
	for _, tok := range toks {
		if eq := strings.IndexByte(tok.text, '='); eq >= 0 {
			field := tok.text[:eq]
			value := unquote(tok.text[eq+1:])
			if !identPattern.MatchString(field) {
				return SearchStage{}, errors.NewCompile(tok.pos, "invalid field name %q", field)
			}
			if value == "" {
				return SearchStage{}, errors.NewCompile(tok.pos, "filter %s has empty value", field)
			}
			stage.Filters = append(stage.Filters, Filter{Field: field, Value: value})
			continue
		}
		term := unquote(tok.text)
		if term == "" {
			return SearchStage{}, errors.NewCompile(tok.pos, "empty search term")
		}
		stage.Filters = append(stage.Filters, Filter{Value: term})
	}
	return stage, nil
}

// aggPattern matches agg(field) or a bare count.
var aggPattern = regexp.MustCompile(`^([a-z]+)\(([a-zA-Z_][a-zA-Z0-9_]*)?\)$`)

func parseStats(toks []token, stagePos int) (*StatsStage, error) {
	if len(toks) == 0 {
		return nil, errors.NewCompile(stagePos, "stats requires an aggregation")
	}

	stage := &StatsStage{}
	aggTok := toks[0]
	switch {
	case aggTok.text == "count":
		stage.Agg = AggCount
	default:
		m := aggPattern.FindStringSubmatch(aggTok.text)
		if m == nil {
			return nil, errors.NewCompile(aggTok.pos, "invalid aggregation %q", aggTok.text)
		}
		fn := AggFunc(m[1])
		switch fn {
		case AggCount:
			// count() and count(field) are both allowed
		case AggSum, AggAvg, AggMin, AggMax, AggDistinctCount:
			if m[2] == "" {
				return nil, errors.NewCompile(aggTok.pos, "%s requires a field argument", fn)
			}
		default:
			return nil, errors.NewCompile(aggTok.pos, "unknown aggregation %q", m[1])
		}
		stage.Agg = fn
		stage.AggField = m[2]
	}

	rest := toks[1:]
	if len(rest) == 0 {
		return stage, nil
	}
	if rest[0].text != "by" {
		return nil, errors.NewCompile(rest[0].pos, "expected 'by', got %q", rest[0].text)
	}
	if len(rest) < 2 {
		return nil, errors.NewCompile(rest[0].pos, "by requires at least one field")
	}
	fields, err := parseFieldList(rest[1:])
	if err != nil {
		return nil, err
	}
	stage.By = fields
	return stage, nil
}

func parseTable(toks []token, stagePos int) (*TableStage, error) {
	if len(toks) == 0 {
		return nil, errors.NewCompile(stagePos, "table requires at least one field")
	}
	fields, err := parseFieldList(toks)
	if err != nil {
		return nil, err
	}
	return &TableStage{Fields: fields}, nil
}

// parseFieldList accepts comma-separated fields, possibly split across
// tokens ("a,b" or "a, b" or "a , b").
func parseFieldList(toks []token) ([]string, error) {
	var fields []string
	for _, tok := range toks {
		for _, part := range strings.Split(tok.text, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !identPattern.MatchString(part) {
				return nil, errors.NewCompile(tok.pos, "invalid field name %q", part)
			}
			fields = append(fields, part)
		}
	}
	if len(fields) == 0 {
		return nil, errors.NewCompile(toks[0].pos, "expected field list")
	}
	return fields, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
