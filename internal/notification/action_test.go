package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseer/logseer/internal/errors"
)

func TestDecodeActions(t *testing.T) {
	raw := `[
		{"kind":"email","config":{"recipients":["ops@example.com"],"subject":"{{alert_name}}","body":"{{result_count}} results"}},
		{"kind":"webhook","config":{"url":"https://hooks.example.com/x","payload":"{}"}},
		{"kind":"apprise","config":{"urls":["ntfys://host/topic"],"title":"t","body":"b"}},
		{"kind":"script","config":{"command":"/usr/local/bin/notify","args":["-q"]}},
		{"kind":"log","config":{"message":"{{alert_name}} fired"}},
		{"kind":"show_on_login","config":{"title":"t","message":"m"}}
	]`

	actions, err := DecodeActions(raw)
	require.NoError(t, err)
	require.Len(t, actions, 6)

	email, ok := actions[0].(EmailAction)
	require.True(t, ok)
	assert.Equal(t, []string{"ops@example.com"}, email.Recipients)
	assert.Equal(t, "email:ops@example.com", email.Target())

	webhook, ok := actions[1].(WebhookAction)
	require.True(t, ok)
	assert.Equal(t, "https://hooks.example.com/x", webhook.URL)

	script, ok := actions[3].(ScriptAction)
	require.True(t, ok)
	assert.Equal(t, []string{"-q"}, script.Args)

	assert.Equal(t, KindLog, actions[4].Kind())
	assert.Equal(t, KindShowOnLogin, actions[5].Kind())
}

func TestDecodeActionsEmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "[]"} {
		actions, err := DecodeActions(raw)
		require.NoError(t, err)
		assert.Nil(t, actions)
	}
}

func TestDecodeActionsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown kind", `[{"kind":"pager","config":{"number":"555"}}]`},
		{"email without recipients", `[{"kind":"email","config":{"subject":"s","body":"b"}}]`},
		{"webhook without url", `[{"kind":"webhook","config":{"payload":"{}"}}]`},
		{"apprise without urls", `[{"kind":"apprise","config":{"title":"t"}}]`},
		{"script without command", `[{"kind":"script","config":{"args":["x"]}}]`},
		{"missing config", `[{"kind":"log"}]`},
		{"not json", `{{nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeActions(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []Action{
		EmailAction{Recipients: []string{"a@example.com"}, Subject: "s", Body: "b"},
		LogAction{Message: "m"},
	}

	raw, err := EncodeActions(original)
	require.NoError(t, err)

	decoded, err := DecodeActions(raw)
	require.NoError(t, err)
	assert.Equal(t, original[0], decoded[0])
	assert.Equal(t, original[1], decoded[1])
}
