package errors

import (
	"bytes"
	"encoding/json"
	"sort"
)

// jsonReport is the wire shape for a Report: deterministic field order,
// sorted Data keys, omitted-when-empty optionals.
type jsonReport struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	Span     *spanJSON      `json:"span,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type spanJSON struct {
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	File      string `json:"file"`
}

// ToJSON renders r as deterministic JSON (sorted Data keys, stable field
// order), mirroring the teacher's Report.ToJSON.
func (r *Report) ToJSON(compact bool) (string, error) {
	jr := jsonReport{
		Schema:   "parusc.diag/v1",
		Code:     string(r.Code),
		Phase:    r.Phase,
		Severity: r.Severity.String(),
		Message:  r.Message,
		Data:     r.Data,
	}
	if r.Span != nil {
		jr.Span = &spanJSON{
			StartLine: r.Span.Start.Line,
			StartCol:  r.Span.Start.Column,
			EndLine:   r.Span.End.Line,
			EndCol:    r.Span.End.Column,
			File:      r.Span.Start.File,
		}
	}
	data, err := MarshalDeterministic(jr, compact)
	return string(data), err
}

// MarshalDeterministic marshals v to JSON with recursively sorted object
// keys, so two logically-equal diagnostic bags always serialize to
// byte-identical output. Ported from the teacher's
// schema.MarshalDeterministic.
func MarshalDeterministic(v any, compact bool) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return raw, nil
	}
	sorted := sortKeys(generic)
	if compact {
		return json.Marshal(sorted)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

// sortKeys rebuilds maps as ordered key/value pairs are not representable
// in Go's encoding/json for plain maps (which already sort string keys on
// Marshal); this instead recurses to ensure nested maps and slices are
// normalized the same way.
func sortKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(val))
		for _, k := range keys {
			out[k] = sortKeys(val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = sortKeys(e)
		}
		return out
	default:
		return v
	}
}

// Bag.ToJSON renders the bag as a JSON object whose "reports" key holds
// every report as an array.
func (b *Bag) ToJSON(compact bool) (string, error) {
	type wire struct {
		Reports []json.RawMessage `json:"reports"`
	}
	var w wire
	for _, r := range b.Reports {
		s, err := r.ToJSON(true)
		if err != nil {
			return "", err
		}
		w.Reports = append(w.Reports, json.RawMessage(s))
	}
	data, err := MarshalDeterministic(w, compact)
	return string(data), err
}
