package scheduler

import (
	"context"
	"fmt"

	"github.com/logseer/logseer/internal/alerting"
	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/notification"
	"github.com/logseer/logseer/internal/querycache"
)

func (s *Scheduler) runReport(ctx context.Context, id uint, force bool) error {
	report, err := s.repos.Reports.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading report %d: %w", id, err)
	}
	if !report.Enabled && !force {
		return nil
	}

	key := querycache.Key{Kind: KindReport, ID: id}
	spec := querycache.Spec{Query: report.Query, TimeRange: report.TimeRange, TTL: s.defaultTTL}
	res, err := s.cache.Run(ctx, key, spec, force)
	if err != nil {
		return fmt.Errorf("report %d query: %w", id, err)
	}
	s.countCacheResult(res)

	now := s.now()
	if err := s.repos.Reports.RecordRun(ctx, id, now, res.Count); err != nil {
		s.log.Error("failed to record report run",
			logger.Uint64("report_id", uint64(id)), logger.Error(err))
	}

	send, err := s.shouldSendReport(ctx, report, res)
	if err != nil {
		return fmt.Errorf("report %d send condition: %w", id, err)
	}
	if !send {
		s.log.Debug("report send condition not met",
			logger.Uint64("report_id", uint64(id)),
			logger.Int("result_count", res.Count))
		return nil
	}

	body, err := FormatReport(report, res.Rows, now)
	if err != nil {
		return fmt.Errorf("report %d formatting: %w", id, err)
	}

	rendered := notification.Rendered{
		Action: notification.EmailAction{
			Recipients: report.RecipientList(),
			Subject:    fmt.Sprintf("Scheduled report: %s", report.Name),
			Body:       body,
		},
		Title:    fmt.Sprintf("Scheduled report: %s", report.Name),
		Body:     body,
		Severity: entities.SeverityInfo,
	}
	if err := s.dispatch(ctx, rendered); err != nil {
		return fmt.Errorf("report %d dispatch: %w", id, err)
	}

	s.log.Info("report sent",
		logger.Uint64("report_id", uint64(id)),
		logger.String("name", report.Name),
		logger.Int("recipients", len(report.RecipientList())),
		logger.Int("result_count", res.Count))
	return nil
}

// shouldSendReport evaluates a threshold send condition by borrowing the
// alert evaluator with the report's condition fields; always-send reports
// short-circuit.
func (s *Scheduler) shouldSendReport(ctx context.Context, report *entities.ScheduledReport, res *querycache.Result) (bool, error) {
	if report.SendCondition != entities.ReportSendThreshold {
		return true, nil
	}

	rule := &entities.AlertRule{
		TriggerType:      entities.TriggerNumberOfResults,
		Condition:        report.Condition,
		Threshold:        report.Threshold,
		CompareOffsetSec: report.CompareOffsetSec,
		Query:            report.Query,
		TimeRange:        report.TimeRange,
	}
	ev := alerting.Evaluate(rule, res.Rows, s.previousWindow(ctx, rule))
	if ev.Outcome == alerting.OutcomeFailed {
		return false, ev.Err
	}
	return ev.Outcome == alerting.OutcomeTriggered, nil
}
