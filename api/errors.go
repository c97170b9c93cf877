package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a non-2xx response from the API.
type Error struct {
	Endpoint string
	Method   string
	Status   int
	Data     ErrorEnvelope
}

func (e *Error) Error() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return statusMessage(e.Status)
}

// ErrorEnvelope is the API's error body.
type ErrorEnvelope struct {
	Message string      `json:"message,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// FieldError holds the validation messages for one field.
type FieldError struct {
	Field    string
	Messages []string
}

// FieldErrors keeps validation errors in the order the server sent them.
type FieldErrors []FieldError

// UnmarshalJSON decodes {"field": ["msg", ...], ...} without losing key order.
func (f *FieldErrors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field errors: expected object, got %v", tok)
	}

	var out FieldErrors
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("field errors: unexpected key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		var messages []string
		if err := json.Unmarshal(raw, &messages); err != nil {
			// Some servers send a bare string per field.
			var single string
			if err := json.Unmarshal(raw, &single); err != nil {
				return fmt.Errorf("field errors: %s: %w", key, err)
			}
			messages = []string{single}
		}
		out = append(out, FieldError{Field: key, Messages: messages})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// MarshalJSON writes the errors back as an object in stored order.
func (f FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fe := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fe.Field)
		if err != nil {
			return nil, err
		}
		msgs := fe.Messages
		if msgs == nil {
			msgs = []string{}
		}
		val, err := json.Marshal(msgs)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func statusMessage(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}

func decodeEnvelope(body []byte, status int) ErrorEnvelope {
	var env ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ErrorEnvelope{Message: statusMessage(status)}
	}
	return env
}

// AsError unwraps err into an *Error if it is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
