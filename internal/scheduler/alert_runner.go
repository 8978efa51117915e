package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/logseer/logseer/internal/alerting"
	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/notification"
	"github.com/logseer/logseer/internal/query"
	"github.com/logseer/logseer/internal/querycache"
	"github.com/logseer/logseer/internal/template"
	"github.com/logseer/logseer/internal/timerange"
)

func (s *Scheduler) runAlert(ctx context.Context, id uint, force bool) error {
	rule, err := s.repos.Alerts.GetRule(ctx, id)
	if err != nil {
		return fmt.Errorf("loading alert rule %d: %w", id, err)
	}
	if !rule.Enabled && !force {
		// A deregistration raced the wake; drop it quietly.
		return nil
	}

	key := querycache.Key{Kind: KindAlert, ID: id}
	spec := querycache.Spec{Query: rule.Query, TimeRange: rule.TimeRange, TTL: s.defaultTTL}
	res, err := s.cache.Run(ctx, key, spec, force)
	if err != nil {
		return fmt.Errorf("alert %d query: %w", id, err)
	}
	s.countCacheResult(res)

	now := s.now()
	if err := s.repos.Alerts.RecordRun(ctx, id, now); err != nil {
		s.log.Error("failed to record alert run",
			logger.Uint64("alert_id", uint64(id)), logger.Error(err))
	}

	ev := alerting.Evaluate(rule, res.Rows, s.previousWindow(ctx, rule))
	switch ev.Outcome {
	case alerting.OutcomeFailed:
		return fmt.Errorf("alert %d evaluation: %w", id, ev.Err)
	case alerting.OutcomeNotTriggered:
		return nil
	}

	return s.fireAlert(ctx, rule, res, ev, now)
}

// previousWindow builds the comparison-window fetch for drops_by/rises_by
// rules. The window is the immediately preceding equal-length interval, or
// the rule's explicit offset when configured. It is executed directly,
// never through the memo store, since its identity differs per wake.
func (s *Scheduler) previousWindow(ctx context.Context, rule *entities.AlertRule) alerting.PreviousFunc {
	if !entities.IsComparisonCondition(rule.Condition) {
		return nil
	}
	return func() ([]map[string]any, error) {
		iv, err := timerange.Resolve(rule.TimeRange, s.now().UTC())
		if err != nil {
			return nil, err
		}
		prev := iv.Preceding()
		if rule.CompareOffsetSec > 0 {
			prev = iv.Shift(time.Duration(rule.CompareOffsetSec) * time.Second)
		}
		compiled, err := query.CompileText(rule.Query, prev)
		if err != nil {
			return nil, err
		}
		rows, _, err := s.cache.ExecuteCompiled(ctx, compiled)
		return rows, err
	}
}

func (s *Scheduler) fireAlert(ctx context.Context, rule *entities.AlertRule, res *querycache.Result, ev alerting.Evaluation, now time.Time) error {
	if err := s.repos.Alerts.RecordTrigger(ctx, rule.ID, now); err != nil {
		s.log.Error("failed to record alert trigger",
			logger.Uint64("alert_id", uint64(rule.ID)), logger.Error(err))
	}

	decision, err := s.suppressor.Check(ctx, rule, res.Rows)
	if err != nil {
		// Fail open: a silence-store outage must not drop alerts.
		s.log.Error("suppression check failed, dispatching anyway",
			logger.Uint64("alert_id", uint64(rule.ID)), logger.Error(err))
		decision = alerting.Decision{}
	}
	triggersTotal.WithLabelValues(KindAlert, strconv.FormatBool(decision.Suppressed)).Inc()

	actions, err := notification.DecodeActions(rule.Actions)
	if err != nil {
		s.log.Error("alert has undecodable actions",
			logger.Uint64("alert_id", uint64(rule.ID)), logger.Error(err))
		actions = nil
	}

	entry := &entities.AlertHistory{
		ID:             uuid.New().String(),
		AlertID:        rule.ID,
		TriggeredAt:    now,
		ResultCount:    res.Count,
		TriggerValue:   ev.Metric,
		Severity:       rule.Severity,
		Suppressed:     decision.Suppressed,
		SuppressReason: decision.Reason,
		SampleRows:     encodeSampleRows(res.Rows),
	}
	if decision.Suppressed {
		// Suppressed firings are recorded for audit with every action
		// marked not executed.
		entry.ActionResults = encodeActionResults(unexecutedResults(actions))
	}
	if err := s.repos.Alerts.SaveHistory(ctx, entry); err != nil {
		s.log.Error("failed to save alert history",
			logger.Uint64("alert_id", uint64(rule.ID)), logger.Error(err))
	}

	s.log.Info("alert triggered",
		logger.Uint64("alert_id", uint64(rule.ID)),
		logger.String("name", rule.Name),
		logger.String("severity", rule.Severity),
		logger.Float64("trigger_value", ev.Metric),
		logger.Bool("suppressed", decision.Suppressed))

	if decision.Suppressed || len(actions) == 0 {
		return nil
	}

	renderCtx := alertContext(rule, res, ev, now)
	s.dispatchWG.Add(1)
	go s.dispatchActions(entry.ID, rule, actions, renderCtx)
	return nil
}

// dispatchActions delivers each action, then records the per-action
// outcomes on the history entry. One action's failure never blocks its
// siblings.
func (s *Scheduler) dispatchActions(historyID string, rule *entities.AlertRule, actions []notification.Action, renderCtx *template.Context) {
	defer s.dispatchWG.Done()

	dispatcher := notification.GetDispatcher()
	if dispatcher == nil {
		s.log.Error("no dispatcher configured, actions not delivered",
			logger.Uint64("alert_id", uint64(rule.ID)))
		return
	}
	render := func(tmpl string) string { return template.Render(tmpl, renderCtx) }
	defaultTitle := fmt.Sprintf("Alert: %s", rule.Name)

	results := make([]entities.ActionResult, 0, len(actions))
	for _, action := range actions {
		rendered := notification.Render(action, rule.Severity, defaultTitle, render)

		dispatchCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := dispatcher.Dispatch(dispatchCtx, rendered)
		cancel()

		result := entities.ActionResult{
			Kind:     string(action.Kind()),
			Target:   action.Target(),
			Executed: err == nil,
		}
		if err != nil {
			result.Error = err.Error()
			s.log.Error("action dispatch failed",
				logger.Uint64("alert_id", uint64(rule.ID)),
				logger.String("kind", string(action.Kind())),
				logger.Error(err))
		}
		results = append(results, result)
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repos.Alerts.UpdateHistoryActionResults(saveCtx, historyID, encodeActionResults(results)); err != nil {
		s.log.Error("failed to record action results",
			logger.String("history_id", historyID), logger.Error(err))
	}
}

// alertContext assembles the template resolution context for one firing.
func alertContext(rule *entities.AlertRule, res *querycache.Result, ev alerting.Evaluation, now time.Time) *template.Context {
	meta := map[string]any{
		"alert_name":     rule.Name,
		"alert_severity": rule.Severity,
		"result_count":   res.Count,
		"trigger_value":  ev.Metric,
		"threshold":      rule.Threshold,
		"timestamp":      now,
	}
	if ev.Previous != nil {
		meta["previous_value"] = *ev.Previous
	}
	return &template.Context{Meta: meta, Rows: res.Rows}
}

func (s *Scheduler) countCacheResult(res *querycache.Result) {
	if res.Cached {
		cacheResults.WithLabelValues("hit").Inc()
	} else {
		cacheResults.WithLabelValues("miss").Inc()
	}
}

func unexecutedResults(actions []notification.Action) []entities.ActionResult {
	results := make([]entities.ActionResult, 0, len(actions))
	for _, action := range actions {
		results = append(results, entities.ActionResult{
			Kind:   string(action.Kind()),
			Target: action.Target(),
		})
	}
	return results
}

func encodeActionResults(results []entities.ActionResult) string {
	if len(results) == 0 {
		return ""
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func encodeSampleRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return ""
	}
	if len(rows) > sampleRowLimit {
		rows = rows[:sampleRowLimit]
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	return string(encoded)
}
