// Package entities defines the persisted data model for the alerting and
// scheduled execution engine.
package entities

// Trigger types define which metric an alert rule evaluates.
const (
	TriggerNumberOfResults = "number_of_results"
	TriggerNumberOfHosts   = "number_of_hosts"
	TriggerCustomCondition = "custom_condition"
)

// Trigger conditions define how the metric is compared to the threshold.
const (
	ConditionGreaterThan = "greater_than"
	ConditionLessThan    = "less_than"
	ConditionEqualTo     = "equal_to"
	ConditionNotEqualTo  = "not_equal_to"
	ConditionDropsBy     = "drops_by"
	ConditionRisesBy     = "rises_by"
)

// Severities order alert importance for routing and display.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// IsComparisonCondition reports whether the condition requires a comparison
// window (prior-window query).
func IsComparisonCondition(condition string) bool {
	return condition == ConditionDropsBy || condition == ConditionRisesBy
}

// KnownTriggerType reports whether the trigger type is a member of the
// closed enumeration.
func KnownTriggerType(t string) bool {
	switch t {
	case TriggerNumberOfResults, TriggerNumberOfHosts, TriggerCustomCondition:
		return true
	}
	return false
}

// KnownCondition reports whether the condition is a member of the closed
// enumeration.
func KnownCondition(c string) bool {
	switch c {
	case ConditionGreaterThan, ConditionLessThan, ConditionEqualTo,
		ConditionNotEqualTo, ConditionDropsBy, ConditionRisesBy:
		return true
	}
	return false
}

// KnownSeverity reports whether the severity is a member of the closed
// enumeration.
func KnownSeverity(s string) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// KnownSyntheticType reports whether the synthetic test type is a member of
// the closed enumeration.
func KnownSyntheticType(t string) bool {
	switch t {
	case SyntheticTypeHTTP, SyntheticTypeTCP, SyntheticTypeBrowser, SyntheticTypeAPI:
		return true
	}
	return false
}
