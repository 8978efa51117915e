// Package alerting evaluates alert trigger conditions against query
// results and decides whether a firing may be dispatched or must be
// suppressed by a throttle window or an active silence.
package alerting

import (
	"fmt"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// Outcome is the result of one evaluation.
type Outcome string

const (
	OutcomeTriggered    Outcome = "triggered"
	OutcomeNotTriggered Outcome = "not_triggered"
	// OutcomeFailed means the evaluation itself could not be completed,
	// typically because the comparison-window query failed. Absence of
	// comparison data is never reported as "condition not met".
	OutcomeFailed Outcome = "failed"
)

// Evaluation carries the outcome plus the metric values it was based on.
type Evaluation struct {
	Outcome  Outcome
	Metric   float64
	Previous *float64
	Err      error
}

// PreviousFunc fetches the comparison-window rows for drops_by and
// rises_by conditions. It is only invoked when the condition needs one.
type PreviousFunc func() ([]map[string]any, error)

// MetricFor extracts the evaluated metric from the result rows per the
// rule's trigger type: the row count, the distinct-host count, or a 0/1
// any-row-present indicator for custom conditions.
func MetricFor(triggerType string, rows []map[string]any) float64 {
	switch triggerType {
	case entities.TriggerNumberOfHosts:
		return float64(len(distinctHosts(rows)))
	case entities.TriggerCustomCondition:
		if len(rows) > 0 {
			return 1
		}
		return 0
	default:
		return float64(len(rows))
	}
}

// hostField is the result column carrying the emitting host's name.
const hostField = "host"

func distinctHosts(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var hosts []string
	for _, row := range rows {
		v, ok := row[hostField]
		if !ok {
			continue
		}
		host := fmt.Sprintf("%v", v)
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	return hosts
}

// Evaluate applies the rule's condition to the current rows. Comparison
// conditions fetch the prior window through previous; a fetch error marks
// the evaluation Failed.
func Evaluate(rule *entities.AlertRule, rows []map[string]any, previous PreviousFunc) Evaluation {
	metric := MetricFor(rule.TriggerType, rows)
	ev := Evaluation{Metric: metric}

	if entities.IsComparisonCondition(rule.Condition) {
		if previous == nil {
			ev.Outcome = OutcomeFailed
			ev.Err = fmt.Errorf("condition %s requires a comparison window", rule.Condition)
			return ev
		}
		prevRows, err := previous()
		if err != nil {
			ev.Outcome = OutcomeFailed
			ev.Err = fmt.Errorf("comparison window query: %w", err)
			return ev
		}
		prev := MetricFor(rule.TriggerType, prevRows)
		ev.Previous = &prev
		if compareDelta(rule.Condition, metric, prev, rule.Threshold) {
			ev.Outcome = OutcomeTriggered
		} else {
			ev.Outcome = OutcomeNotTriggered
		}
		return ev
	}

	if compareThreshold(rule.Condition, metric, rule.Threshold) {
		ev.Outcome = OutcomeTriggered
	} else {
		ev.Outcome = OutcomeNotTriggered
	}
	return ev
}

func compareThreshold(condition string, metric, threshold float64) bool {
	switch condition {
	case entities.ConditionGreaterThan:
		return metric > threshold
	case entities.ConditionLessThan:
		return metric < threshold
	case entities.ConditionEqualTo:
		return metric == threshold
	case entities.ConditionNotEqualTo:
		return metric != threshold
	default:
		return false
	}
}

// compareDelta evaluates drops_by/rises_by as a percentage change relative
// to the previous window. A zero previous value cannot drop; it rises when
// anything appears.
func compareDelta(condition string, current, previous, threshold float64) bool {
	switch condition {
	case entities.ConditionDropsBy:
		if previous <= 0 {
			return false
		}
		drop := (previous - current) / previous * 100
		return drop >= threshold
	case entities.ConditionRisesBy:
		if previous <= 0 {
			return current > 0
		}
		rise := (current - previous) / previous * 100
		return rise >= threshold
	default:
		return false
	}
}
