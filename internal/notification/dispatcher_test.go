package notification

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/errors"
	"github.com/logseer/logseer/internal/logger"
)

func upperRender(tmpl string) string { return strings.ToUpper(tmpl) }

func TestRenderEmail(t *testing.T) {
	r := Render(EmailAction{
		Recipients: []string{"ops@example.com"},
		Subject:    "disk full",
		Body:       "42 results",
	}, "high", "fallback", upperRender)

	rendered, ok := r.Action.(EmailAction)
	require.True(t, ok)
	assert.Equal(t, "DISK FULL", rendered.Subject)
	assert.Equal(t, "42 RESULTS", rendered.Body)
	assert.Equal(t, []string{"ops@example.com"}, rendered.Recipients)
	assert.Equal(t, "DISK FULL", r.Title)
	assert.Equal(t, "42 RESULTS", r.Body)
	assert.Equal(t, "high", r.Severity)
}

func TestRenderWebhook(t *testing.T) {
	r := Render(WebhookAction{
		URL:     "https://hooks.example.com/x",
		Payload: `{"alert":"disk full"}`,
	}, "medium", "disk full", upperRender)

	rendered, ok := r.Action.(WebhookAction)
	require.True(t, ok)
	assert.Equal(t, "https://hooks.example.com/x", rendered.URL)
	assert.Equal(t, `{"ALERT":"DISK FULL"}`, rendered.Payload)
	assert.Equal(t, "DISK FULL", r.Title)
}

func TestRenderLogOnlySetsBody(t *testing.T) {
	action := LogAction{Message: "fired"}
	r := Render(action, "low", "title", upperRender)

	// The log message is rendered into the body; the action itself is
	// untouched because the transport only reads the rendered fields.
	assert.Equal(t, action, r.Action)
	assert.Equal(t, "FIRED", r.Body)
	assert.Equal(t, "TITLE", r.Title)
}

func TestRenderScriptUsesTitleAsBody(t *testing.T) {
	r := Render(ScriptAction{Command: "/bin/notify"}, "info", "disk full", upperRender)
	assert.Equal(t, "DISK FULL", r.Title)
	assert.Equal(t, r.Title, r.Body)
}

func TestRenderShowOnLogin(t *testing.T) {
	r := Render(ShowOnLoginAction{Title: "t", Message: "m"}, "info", "fallback", upperRender)
	rendered, ok := r.Action.(ShowOnLoginAction)
	require.True(t, ok)
	assert.Equal(t, "T", rendered.Title)
	assert.Equal(t, "M", rendered.Message)
}

func TestLogDispatcher(t *testing.T) {
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	d := NewLogDispatcher(log)
	ctx := context.Background()

	err := d.Dispatch(ctx, Rendered{Action: LogAction{Message: "m"}, Body: "m"})
	assert.NoError(t, err)

	for _, action := range []Action{
		EmailAction{Recipients: []string{"a@example.com"}},
		WebhookAction{URL: "https://example.com"},
		AppriseAction{URLs: []string{"ntfys://host/topic"}},
		ScriptAction{Command: "/bin/notify"},
		ShowOnLoginAction{Title: "t"},
	} {
		err := d.Dispatch(ctx, Rendered{Action: action})
		require.Error(t, err)
		var derr *errors.DispatchError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, string(action.Kind()), derr.Action)
	}
}
