package alerting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/datastore/repository"
	"github.com/logseer/logseer/internal/logger"
)

// Decision is the suppression verdict for one candidate firing.
type Decision struct {
	Suppressed bool
	// Reason is a short audit string, e.g. "silence:alert:42" or
	// "throttle:87s remaining".
	Reason string
}

// Suppressor decides whether a triggered alert may dispatch. Silences are
// checked first, most specific level winning the audit reason (alert, then
// host, then global); throttling applies only when no silence matches.
type Suppressor struct {
	silences repository.SilenceRepository
	log      logger.Logger
	now      func() time.Time
}

// NewSuppressor creates a Suppressor backed by the silence store.
func NewSuppressor(silences repository.SilenceRepository, log logger.Logger) *Suppressor {
	return &Suppressor{silences: silences, log: log, now: time.Now}
}

// Check evaluates silences and the rule's throttle window against the
// candidate firing. rows are the triggering query results, consulted for
// host-level silence targets. A silence-store read error fails open with
// the error returned so the caller can record it; the firing itself is not
// suppressed on store failure.
func (s *Suppressor) Check(ctx context.Context, rule *entities.AlertRule, rows []map[string]any) (Decision, error) {
	now := s.now()

	active, err := s.silences.ListActive(ctx, now)
	if err != nil {
		return Decision{}, fmt.Errorf("listing active silences: %w", err)
	}
	if d, matched := matchSilence(active, rule.ID, distinctHosts(rows)); matched {
		s.log.Info("alert suppressed by silence",
			logger.Uint64("alert_id", uint64(rule.ID)),
			logger.String("reason", d.Reason))
		return d, nil
	}

	if within, remaining := withinThrottle(rule, now); within {
		s.log.Info("alert suppressed by throttle",
			logger.Uint64("alert_id", uint64(rule.ID)),
			logger.Duration("remaining", remaining))
		return Decision{
			Suppressed: true,
			Reason:     fmt.Sprintf("throttle:%ds remaining", int(remaining.Seconds())),
		}, nil
	}

	return Decision{}, nil
}

// matchSilence scans active silences in specificity order. Any single
// match suppresses; the order only affects which match is reported.
func matchSilence(active []entities.Silence, alertID uint, hosts []string) (Decision, bool) {
	alertTarget := strconv.FormatUint(uint64(alertID), 10)

	for _, level := range []string{entities.SilenceLevelAlert, entities.SilenceLevelHost, entities.SilenceLevelGlobal} {
		for i := range active {
			sil := &active[i]
			if sil.Level != level {
				continue
			}
			switch level {
			case entities.SilenceLevelAlert:
				if sil.TargetID == alertTarget {
					return Decision{Suppressed: true, Reason: "silence:alert:" + sil.TargetID}, true
				}
			case entities.SilenceLevelHost:
				for _, host := range hosts {
					if sil.TargetID == host {
						return Decision{Suppressed: true, Reason: "silence:host:" + host}, true
					}
				}
			case entities.SilenceLevelGlobal:
				return Decision{Suppressed: true, Reason: "silence:global"}, true
			}
		}
	}
	return Decision{}, false
}

// withinThrottle reports whether the rule last triggered inside its
// throttle window, and how long until the window clears.
func withinThrottle(rule *entities.AlertRule, now time.Time) (bool, time.Duration) {
	window := rule.ThrottleWindow()
	if window == 0 || rule.LastTriggered == nil {
		return false, 0
	}
	elapsed := now.Sub(*rule.LastTriggered)
	if elapsed < window {
		return true, window - elapsed
	}
	return false, 0
}
