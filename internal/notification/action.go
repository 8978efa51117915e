// Package notification models alert actions as a closed set of tagged
// variants and defines the dispatcher collaborator boundary. Actual outbound
// delivery (SMTP, webhooks, apprise, scripts) lives behind the Dispatcher
// interface.
package notification

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/logseer/logseer/internal/errors"
)

// Kind tags an action variant.
type Kind string

const (
	KindEmail       Kind = "email"
	KindWebhook     Kind = "webhook"
	KindApprise     Kind = "apprise"
	KindScript      Kind = "script"
	KindLog         Kind = "log"
	KindShowOnLogin Kind = "show_on_login"
)

// Action is the closed set of notification action variants. Adding a kind
// means adding a type here, a case in decodeAction, and a case in every
// exhaustive switch over Kind.
type Action interface {
	Kind() Kind
	// Target is a short human-readable destination description used in
	// history entries.
	Target() string
	isAction()
}

// EmailAction sends rendered subject/body to a recipient list.
type EmailAction struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

func (EmailAction) Kind() Kind  { return KindEmail }
func (EmailAction) isAction()   {}
func (a EmailAction) Target() string {
	return "email:" + strings.Join(a.Recipients, ",")
}

// WebhookAction POSTs a rendered payload to a URL.
type WebhookAction struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Payload string            `json:"payload"`
}

func (WebhookAction) Kind() Kind       { return KindWebhook }
func (WebhookAction) isAction()        {}
func (a WebhookAction) Target() string { return "webhook:" + a.URL }

// AppriseAction forwards title/body to apprise service URLs.
type AppriseAction struct {
	URLs  []string `json:"urls"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
}

func (AppriseAction) Kind() Kind  { return KindApprise }
func (AppriseAction) isAction()   {}
func (a AppriseAction) Target() string {
	return "apprise:" + strings.Join(a.URLs, ",")
}

// ScriptAction runs a local command with the rendered message in its
// environment.
type ScriptAction struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

func (ScriptAction) Kind() Kind       { return KindScript }
func (ScriptAction) isAction()        {}
func (a ScriptAction) Target() string { return "script:" + a.Command }

// LogAction writes the rendered message to the application log.
type LogAction struct {
	Message string `json:"message"`
}

func (LogAction) Kind() Kind     { return KindLog }
func (LogAction) isAction()      {}
func (LogAction) Target() string { return "log" }

// ShowOnLoginAction queues the rendered message for display at next login.
type ShowOnLoginAction struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (ShowOnLoginAction) Kind() Kind     { return KindShowOnLogin }
func (ShowOnLoginAction) isAction()      {}
func (ShowOnLoginAction) Target() string { return "show_on_login" }

// actionEnvelope is the persisted wire form: a kind tag plus the variant's
// own fields.
type actionEnvelope struct {
	Kind   Kind            `json:"kind"`
	Config json.RawMessage `json:"config"`
}

// DecodeActions parses a JSON action list into variants. Unknown kinds are
// rejected with a ValidationError so they never reach dispatch time.
func DecodeActions(raw string) ([]Action, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var envelopes []actionEnvelope
	if err := json.Unmarshal([]byte(raw), &envelopes); err != nil {
		return nil, errors.NewValidation("actions", "invalid actions JSON: %v", err)
	}
	actions := make([]Action, 0, len(envelopes))
	for i, env := range envelopes {
		action, err := decodeAction(env)
		if err != nil {
			return nil, errors.NewValidation("actions", "action %d: %v", i, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func decodeAction(env actionEnvelope) (Action, error) {
	decode := func(v any) error {
		if len(env.Config) == 0 {
			return fmt.Errorf("missing config")
		}
		return json.Unmarshal(env.Config, v)
	}
	switch env.Kind {
	case KindEmail:
		var a EmailAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if len(a.Recipients) == 0 {
			return nil, fmt.Errorf("email action requires recipients")
		}
		return a, nil
	case KindWebhook:
		var a WebhookAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.URL == "" {
			return nil, fmt.Errorf("webhook action requires url")
		}
		return a, nil
	case KindApprise:
		var a AppriseAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if len(a.URLs) == 0 {
			return nil, fmt.Errorf("apprise action requires urls")
		}
		return a, nil
	case KindScript:
		var a ScriptAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		if a.Command == "" {
			return nil, fmt.Errorf("script action requires command")
		}
		return a, nil
	case KindLog:
		var a LogAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case KindShowOnLogin:
		var a ShowOnLoginAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", env.Kind)
	}
}

// EncodeActions serializes variants back to the persisted wire form.
func EncodeActions(actions []Action) (string, error) {
	envelopes := make([]actionEnvelope, 0, len(actions))
	for _, a := range actions {
		cfg, err := json.Marshal(a)
		if err != nil {
			return "", err
		}
		envelopes = append(envelopes, actionEnvelope{Kind: a.Kind(), Config: cfg})
	}
	out, err := json.Marshal(envelopes)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
