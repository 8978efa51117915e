package scheduler

import (
	"context"
	"fmt"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/notification"
	"github.com/logseer/logseer/internal/synthetic"
)

func (s *Scheduler) runSynthetic(ctx context.Context, id uint) error {
	test, err := s.repos.Synthetics.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading synthetic test %d: %w", id, err)
	}
	if !test.Enabled {
		return nil
	}
	if test.Type == entities.SyntheticTypeBrowser {
		// Browser tests are driven by an external runner that reports
		// results through the API; the scheduler never probes them.
		s.log.Debug("browser test skipped, externally driven",
			logger.Uint64("test_id", uint64(id)))
		return nil
	}

	cfg, err := test.DecodeConfig()
	if err != nil {
		return fmt.Errorf("synthetic test %d config: %w", id, err)
	}
	assertions, err := test.DecodeAssertions()
	if err != nil {
		return fmt.Errorf("synthetic test %d assertions: %w", id, err)
	}
	prober, err := s.probers.Prober(test.Type)
	if err != nil {
		return err
	}

	outcome := prober.Probe(ctx, cfg, test.Timeout())
	success, reason := synthetic.EvaluateAssertions(outcome, assertions)
	now := s.now()

	result := &entities.SyntheticResult{
		TestID:     id,
		RanAt:      now,
		Success:    success,
		DurationMs: outcome.Duration.Milliseconds(),
		StatusCode: outcome.StatusCode,
		Error:      reason,
	}
	if err := s.repos.Synthetics.SaveResult(ctx, result); err != nil {
		s.log.Error("failed to save synthetic result",
			logger.Uint64("test_id", uint64(id)), logger.Error(err))
	}

	failures := 0
	if !success {
		failures = test.ConsecutiveFailures + 1
	}
	if err := s.repos.Synthetics.RecordOutcome(ctx, id, failures, now); err != nil {
		s.log.Error("failed to record synthetic outcome",
			logger.Uint64("test_id", uint64(id)), logger.Error(err))
	}

	if success {
		return nil
	}
	s.log.Warn("synthetic test failed",
		logger.Uint64("test_id", uint64(id)),
		logger.String("name", test.Name),
		logger.String("reason", reason),
		logger.Int("consecutive_failures", failures))

	if synthetic.CrossedThreshold(test.ConsecutiveFailures, failures, test.AlertAfterFailures) {
		s.fireSyntheticAlert(ctx, test, failures, reason)
	}
	return nil
}

// fireSyntheticAlert dispatches the failure-threshold notification for a
// synthetic test. It fires only on the crossing transition, not on every
// failure past the threshold.
func (s *Scheduler) fireSyntheticAlert(ctx context.Context, test *entities.SyntheticTest, failures int, reason string) {
	triggersTotal.WithLabelValues(KindSynthetic, "false").Inc()

	title := fmt.Sprintf("Synthetic test failing: %s", test.Name)
	body := fmt.Sprintf("%s has failed %d consecutive times (threshold %d). Last error: %s",
		test.Name, failures, test.AlertAfterFailures, reason)
	rendered := notification.Rendered{
		Action:   notification.LogAction{Message: body},
		Title:    title,
		Body:     body,
		Severity: entities.SeverityHigh,
	}
	if err := s.dispatch(ctx, rendered); err != nil {
		s.log.Error("synthetic alert dispatch failed",
			logger.Uint64("test_id", uint64(test.ID)), logger.Error(err))
	}

	s.log.Warn("synthetic test crossed failure threshold",
		logger.Uint64("test_id", uint64(test.ID)),
		logger.String("name", test.Name),
		logger.Int("consecutive_failures", failures))
}
