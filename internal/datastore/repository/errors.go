package repository

import "github.com/logseer/logseer/internal/errors"

// Sentinel not-found errors, matched with errors.Is.
var (
	ErrSavedQueryNotFound    = errors.New("saved query not found")
	ErrAlertRuleNotFound     = errors.New("alert rule not found")
	ErrAlertHistoryNotFound  = errors.New("alert history entry not found")
	ErrSilenceNotFound       = errors.New("silence not found")
	ErrReportNotFound        = errors.New("scheduled report not found")
	ErrSyntheticTestNotFound = errors.New("synthetic test not found")
)
