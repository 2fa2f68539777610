package backendsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     bool
		wantSuccess *bool
		wantMessage string
	}{
		{name: "plain", body: `{"success": true, "message": "ok"}`, wantSuccess: boolPtr(true), wantMessage: "ok"},
		{name: "numeric success", body: `{"success": 0, "message": "nope"}`, wantSuccess: boolPtr(false), wantMessage: "nope"},
		{name: "string success", body: `{"success": "true"}`, wantSuccess: boolPtr(true)},
		{name: "error key", body: `{"success": false, "error": "Duplicate entry"}`, wantSuccess: boolPtr(false), wantMessage: "Duplicate entry"},
		{name: "no success key", body: `{"applications": []}`},
		{
			name:        "php notices around",
			body:        "<br />\n<b>Notice</b>: Undefined index: ward in /var/www/application.php\n{\"success\":true,\"message\":\"saved\"}\n",
			wantSuccess: boolPtr(true),
			wantMessage: "saved",
		},
		{name: "html", body: "<html><body>500 Internal Server Error</body></html>", wantErr: true},
		{name: "empty", body: "", wantErr: true},
		{name: "truncated", body: `{"success": true, "message": "o`, wantErr: true},
		{name: "bad success", body: `{"success": "maybe"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := decodeEnvelope(tt.body)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidEnvelope, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			if tt.wantSuccess == nil {
				assert.Nil(t, env.Success)
			} else {
				require.NotNil(t, env.Success)
				assert.Equal(t, *tt.wantSuccess, bool(*env.Success))
			}
			assert.Equal(t, tt.wantMessage, env.message(""))
		})
	}
}

func TestEnvelope_message(t *testing.T) {
	assert.Equal(t, "msg", envelope{Message: " msg ", Error: "err"}.message("def"))
	assert.Equal(t, "err", envelope{Message: "  ", Error: "err"}.message("def"))
	assert.Equal(t, "def", envelope{}.message("def"))
}

func TestEnvelope_decode(t *testing.T) {
	env, err := decodeEnvelope(`debug{"applications":[{"id":"7","fullName":"Mwende","amount_requested":"12,500.50",
		"status":null}],"stats":{"total":"3","pending":2}}`)
	require.NoError(t, err)

	var resp applicationsResponse
	require.NoError(t, env.decode(&resp))
	require.Len(t, resp.Applications, 1)
	row := resp.Applications[0]
	assert.Equal(t, flexInt(7), row.ID)
	assert.Equal(t, "Mwende", first(row.FullNameSnake, row.FullName))
	assert.False(t, row.AmountRequested.Valid)
	assert.Equal(t, flexFloat{Value: 12500.50, Valid: true}, row.AmountRequestedSnake)
	assert.Equal(t, flexString(""), row.Status)
	assert.Equal(t, flexInt(3), resp.Stats.Total)
	assert.Equal(t, flexInt(2), resp.Stats.Pending)
}

func TestFlexString(t *testing.T) {
	var s struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
		C flexString `json:"c"`
	}
	env, err := decodeEnvelope(`{"a": 1002, "b": "CHQ-1", "c": null}`)
	require.NoError(t, err)
	require.NoError(t, env.decode(&s))
	assert.Equal(t, flexString("1002"), s.A)
	assert.Equal(t, flexString("CHQ-1"), s.B)
	assert.Equal(t, flexString(""), s.C)
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2024-03-05T10:00:00Z", "2024-03-05 10:00:00", "2024-03-05T10:00:00"} {
		assert.Equal(t, "2024-03-05 10:00", parseTime(s).Format("2006-01-02 15:04"), s)
	}
	assert.Equal(t, "2024-03-05", parseTime("2024-03-05").Format("2006-01-02"))
	assert.True(t, parseTime("yesterday").IsZero())
	assert.True(t, parseTime("").IsZero())
}

func boolPtr(b bool) *bool {
	return &b
}
