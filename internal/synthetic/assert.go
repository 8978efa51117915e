package synthetic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// Assertion types.
const (
	AssertStatusCode     = "status_code"
	AssertBodyContains   = "body_contains"
	AssertResponseTimeMs = "response_time_ms"
	AssertJSONField      = "json_field"
)

// Assertion operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpLessThan    = "less_than"
	OpGreaterThan = "greater_than"
)

// EvaluateAssertions applies each assertion to the probe outcome. The
// first failing assertion flips the result; its description is returned
// for the result record. A probe-level error fails regardless of
// assertions.
func EvaluateAssertions(outcome *Outcome, assertions []entities.Assertion) (bool, string) {
	if outcome.Err != nil {
		return false, outcome.Err.Error()
	}
	if len(assertions) == 0 {
		return outcome.Success, failureReason(outcome)
	}
	for i := range assertions {
		a := &assertions[i]
		if ok, reason := evaluateAssertion(outcome, a); !ok {
			return false, reason
		}
	}
	return true, ""
}

func failureReason(outcome *Outcome) string {
	if outcome.Success {
		return ""
	}
	return fmt.Sprintf("probe returned status %d", outcome.StatusCode)
}

func evaluateAssertion(outcome *Outcome, a *entities.Assertion) (bool, string) {
	switch a.Type {
	case AssertStatusCode:
		return compare(float64(outcome.StatusCode), a.Operator, a.Value,
			fmt.Sprintf("status_code %d %s %s", outcome.StatusCode, a.Operator, a.Value))
	case AssertResponseTimeMs:
		ms := float64(outcome.Duration.Milliseconds())
		return compare(ms, a.Operator, a.Value,
			fmt.Sprintf("response_time_ms %.0f %s %s", ms, a.Operator, a.Value))
	case AssertBodyContains:
		return compareString(string(outcome.Body), a.Operator, a.Value,
			fmt.Sprintf("body %s %q", a.Operator, a.Value))
	case AssertJSONField:
		value, ok := jsonField(outcome.Body, a.Field)
		if !ok {
			return false, fmt.Sprintf("json field %q not found", a.Field)
		}
		desc := fmt.Sprintf("json field %q %s %s", a.Field, a.Operator, a.Value)
		if n, isNum := value.(float64); isNum && isNumericOperator(a.Operator) {
			return compare(n, a.Operator, a.Value, desc)
		}
		return compareString(stringifyJSON(value), a.Operator, a.Value, desc)
	default:
		return false, fmt.Sprintf("unknown assertion type %q", a.Type)
	}
}

func isNumericOperator(op string) bool {
	return op == OpLessThan || op == OpGreaterThan
}

func compare(actual float64, operator, expected, desc string) (bool, string) {
	want, err := strconv.ParseFloat(expected, 64)
	if err != nil {
		return false, fmt.Sprintf("assertion value %q is not numeric", expected)
	}
	var ok bool
	switch operator {
	case OpEquals:
		ok = actual == want
	case OpNotEquals:
		ok = actual != want
	case OpLessThan:
		ok = actual < want
	case OpGreaterThan:
		ok = actual > want
	default:
		return false, fmt.Sprintf("operator %q not valid for numeric assertion", operator)
	}
	if !ok {
		return false, "assertion failed: " + desc
	}
	return true, ""
}

func compareString(actual, operator, expected, desc string) (bool, string) {
	var ok bool
	switch operator {
	case OpEquals:
		ok = actual == expected
	case OpNotEquals:
		ok = actual != expected
	case OpContains:
		ok = strings.Contains(actual, expected)
	default:
		return false, fmt.Sprintf("operator %q not valid for string assertion", operator)
	}
	if !ok {
		return false, "assertion failed: " + desc
	}
	return true, ""
}

// jsonField walks a dot-path into the response body.
func jsonField(body []byte, path string) (any, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false
	}
	current := doc
	for _, part := range strings.Split(path, ".") {
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

func stringifyJSON(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// CrossedThreshold reports whether a failing run moved the consecutive
// failure count strictly through the alert threshold. Later failures past
// the threshold do not re-fire unless the count reset first.
func CrossedThreshold(previousFailures, newFailures, alertAfter int) bool {
	if alertAfter <= 0 {
		return false
	}
	return previousFailures < alertAfter && newFailures >= alertAfter
}
