package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnmarshalJSON reads a contact leniently: text fields accept numbers and
// booleans, and the id may arrive as a number or a numeric string.
func (c *Contact) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Contact{}
	if v, ok := raw["id"]; ok {
		id, err := looseID(v)
		if err != nil {
			return fmt.Errorf("invalid contact id: %w", err)
		}
		c.ID = id
	}

	fields := []struct {
		key string
		dst *string
	}{
		{"name", &c.Name},
		{"email", &c.Email},
		{"phone", &c.Phone},
		{"mobile", &c.Mobile},
		{"address", &c.Address},
		{"district", &c.District},
		{"city", &c.City},
		{"state", &c.State},
		{"photo", &c.Photo},
		{"initials", &c.Initials},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		s, err := looseString(v)
		if err != nil {
			return fmt.Errorf("invalid contact %s: %w", f.key, err)
		}
		*f.dst = s
	}
	return nil
}

func looseValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func looseString(raw json.RawMessage) (string, error) {
	v, err := looseValue(raw)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("unexpected %T", v)
}

func looseID(raw json.RawMessage) (*int64, error) {
	v, err := looseValue(raw)
	if err != nil {
		return nil, err
	}
	var text string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// LooseInt reads a count that may arrive as a number or a numeric string.
// Missing, null or unreadable values give ok=false.
func LooseInt(raw json.RawMessage) (n int, ok bool) {
	v, err := looseValue(raw)
	if err != nil {
		return 0, false
	}
	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return 0, false
	}
	if i, err := strconv.Atoi(text); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// LooseText reads a label that may arrive as text or a number.
// Anything else reads as empty.
func LooseText(raw json.RawMessage) string {
	s, err := looseString(raw)
	if err != nil {
		return ""
	}
	return s
}
