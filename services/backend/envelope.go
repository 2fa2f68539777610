package backendsvc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidEnvelope is returned when no JSON object can be found in a response body.
var ErrInvalidEnvelope = errors.New("invalid backend response")

const maxSnippet = 120

// envelope is the {success, message} wrapper of every backend response.
// Payload keys (data, applications, stats, ...) stay in raw.
type envelope struct {
	Success *flexBool       `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`

	raw []byte
}

func (env envelope) failed() bool {
	return env.Success != nil && !bool(*env.Success)
}

func (env envelope) succeeded() bool {
	return env.Success != nil && bool(*env.Success)
}

// message returns the backend message, falling back to the error key then to def.
func (env envelope) message(def string) string {
	if m := strings.TrimSpace(env.Message); m != "" {
		return m
	}
	if m := strings.TrimSpace(env.Error); m != "" {
		return m
	}
	return def
}

// decode unmarshals the whole envelope into v.
func (env envelope) decode(v interface{}) error {
	return json.Unmarshal(env.raw, v)
}

// decodeEnvelope reads the envelope of body. PHP notices and debug output printed around the JSON
// object are tolerated: the outermost {...} span is used when the body itself is not JSON.
func decodeEnvelope(body string) (envelope, error) {
	raw, err := extractJSON([]byte(body))
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		return envelope{}, errors.Wrapf(ErrInvalidEnvelope, "%v: %q", err, snippet(body))
	}
	env.raw = raw
	return env, nil
}

func extractJSON(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return trimmed, nil
	}
	start := bytes.IndexByte(trimmed, '{')
	end := bytes.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start {
		if span := trimmed[start : end+1]; json.Valid(span) {
			return span, nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidEnvelope, "%q", snippet(string(body)))
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxSnippet {
		return s[:maxSnippet] + "..."
	}
	return s
}

// flexBool accepts true, 1, "true", "1" and "yes".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(strings.Trim(string(data), `"`))
	switch s {
	case "true", "1", "yes":
		*b = true
	case "false", "0", "no", "", "null":
		*b = false
	default:
		return errors.Errorf("invalid boolean %s", data)
	}
	return nil
}

// flexInt accepts numbers, numeric strings and null.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid integer %s", data)
	}
	*i = flexInt(f)
	return nil
}

// flexFloat accepts numbers, numeric strings and null. Valid is false for null or empty values.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" || s == "null" {
		*f = flexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return errors.Wrapf(err, "invalid number %s", data)
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}

// flexString accepts strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	*s = flexString(strings.TrimSpace(string(data)))
	return nil
}

// first returns the first non-empty value.
func first(values ...flexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func decodeRaw(data json.RawMessage, v interface{}) error {
	return json.Unmarshal(data, v)
}
