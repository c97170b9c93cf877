package contacts

import (
	"bytes"
	"encoding/json"

	"github.com/harperreed/ringbook/models"
)

type shapeKind int

const (
	shapeUnknown shapeKind = iota
	shapeArray
	shapeEnvelope
)

// listShape is the decoded form of a list response. skipped counts array
// elements that could not be read as contacts.
type listShape struct {
	kind    shapeKind
	items   []models.Contact
	skipped int
}

func decodeList(body json.RawMessage) listShape {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return listShape{kind: shapeUnknown}
	}

	switch trimmed[0] {
	case '[':
		return decodeElements(shapeArray, trimmed)
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return listShape{kind: shapeUnknown}
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '[' {
			return listShape{kind: shapeUnknown}
		}
		return decodeElements(shapeEnvelope, data)
	}
	return listShape{kind: shapeUnknown}
}

func decodeElements(kind shapeKind, array []byte) listShape {
	var raws []json.RawMessage
	if err := json.Unmarshal(array, &raws); err != nil {
		return listShape{kind: shapeUnknown}
	}
	s := listShape{kind: kind, items: make([]models.Contact, 0, len(raws))}
	for _, raw := range raws {
		var c models.Contact
		if err := json.Unmarshal(raw, &c); err != nil {
			s.skipped++
			continue
		}
		s.items = append(s.items, c)
	}
	return s
}

func (s listShape) contacts() []models.Contact {
	switch s.kind {
	case shapeArray, shapeEnvelope:
		if s.items == nil {
			return []models.Contact{}
		}
		return s.items
	case shapeUnknown:
		return []models.Contact{}
	}
	return []models.Contact{}
}

// reportEntry is one row of a report envelope. Empty labels mean the field
// was missing or unreadable.
type reportEntry struct {
	State string
	City  string
	Count int
}

type labelFunc func(reportEntry) string

func stateLabel(e reportEntry) string {
	return firstNonEmpty(e.State)
}

func cityLabel(e reportEntry) string {
	return firstNonEmpty(e.City, e.State)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return models.NotInformed
}

// readReportEntry pulls each field on its own so one odd value does not
// cost the others.
func readReportEntry(raw json.RawMessage) reportEntry {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return reportEntry{}
	}
	e := reportEntry{
		State: models.LooseText(fields["state"]),
		City:  models.LooseText(fields["city"]),
	}
	if v, ok := fields["count"]; ok {
		e.Count, _ = models.LooseInt(v)
	}
	return e
}

func decodeReport(body json.RawMessage, label labelFunc) []models.ReportBucket {
	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return []models.ReportBucket{}
	}

	buckets := make([]models.ReportBucket, 0, len(env.Data))
	for _, raw := range env.Data {
		e := readReportEntry(raw)
		buckets = append(buckets, models.ReportBucket{Label: label(e), Count: e.Count})
	}
	return buckets
}
