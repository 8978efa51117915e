package notification

import (
	"context"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
)

// Rendered is one action with its template fields already rendered, ready
// for delivery.
type Rendered struct {
	Action   Action
	Title    string
	Body     string
	Severity string
}

// Dispatcher delivers a rendered action. Implementations live outside the
// engine (SMTP, webhook, apprise, script transports); a delivery failure is
// reported per action and never fails sibling actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, r Rendered) error
}

// RenderFunc renders a template string against the current result context.
type RenderFunc func(tmpl string) string

// Render applies the render function to each template-bearing field of an
// action and pairs the result with a title/body for transports that need
// them. The switch is exhaustive over the closed Kind set.
func Render(action Action, severity string, defaultTitle string, render RenderFunc) Rendered {
	r := Rendered{Action: action, Severity: severity, Title: render(defaultTitle)}
	switch a := action.(type) {
	case EmailAction:
		r.Action = EmailAction{
			Recipients: a.Recipients,
			Subject:    render(a.Subject),
			Body:       render(a.Body),
		}
		r.Title = render(a.Subject)
		r.Body = render(a.Body)
	case WebhookAction:
		r.Action = WebhookAction{
			URL:     a.URL,
			Method:  a.Method,
			Headers: a.Headers,
			Payload: render(a.Payload),
		}
		r.Body = render(a.Payload)
	case AppriseAction:
		r.Action = AppriseAction{
			URLs:  a.URLs,
			Title: render(a.Title),
			Body:  render(a.Body),
		}
		r.Title = render(a.Title)
		r.Body = render(a.Body)
	case ScriptAction:
		r.Body = r.Title
	case LogAction:
		r.Body = render(a.Message)
	case ShowOnLoginAction:
		r.Action = ShowOnLoginAction{
			Title:   render(a.Title),
			Message: render(a.Message),
		}
		r.Title = render(a.Title)
		r.Body = render(a.Message)
	}
	return r
}

// LogDispatcher is the built-in dispatcher: log actions are written to the
// application log, every other kind is rejected so the failure is recorded
// in history instead of silently dropped. Deployments replace it with a
// transport-backed dispatcher.
type LogDispatcher struct {
	log logger.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(_ context.Context, r Rendered) error {
	switch r.Action.(type) {
	case LogAction:
		d.log.Info("alert notification",
			logger.String("severity", r.Severity),
			logger.String("title", r.Title),
			logger.String("body", r.Body))
		return nil
	case EmailAction, WebhookAction, AppriseAction, ScriptAction, ShowOnLoginAction:
		return errors.NewDispatch(string(r.Action.Kind()),
			errors.New("no transport configured for this action kind"))
	default:
		return errors.NewDispatch(string(r.Action.Kind()), errors.New("unhandled action kind"))
	}
}
