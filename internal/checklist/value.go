package checklist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type valueKind uint8

const (
	kindUnset valueKind = iota
	kindBool
	kindString
)

// Value is a single checklist answer. Checkbox fields carry booleans,
// text and select fields carry strings.
type Value struct {
	kind valueKind
	b    bool
	s    string
}

// Bool returns a boolean answer.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// String returns a string answer.
func String(s string) Value { return Value{kind: kindString, s: s} }

// IsZero reports whether v was never assigned.
func (v Value) IsZero() bool { return v.kind == kindUnset }

// AsBool returns the boolean payload and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == kindBool }

// AsString returns the string payload and whether v holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == kindString }

// Equal compares kind and payload. The string "false" is not equal to Bool(false).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindBool:
		return v.b == o.b
	case kindString:
		return v.s == o.s
	}
	return true
}

// Truthy mirrors the loose truthiness the checklist rules are written
// against: true, or a non-empty string.
func (v Value) Truthy() bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindString:
		return v.s != ""
	}
	return false
}

// Text renders the value for summaries and exports.
func (v Value) Text() string {
	switch v.kind {
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindString:
		return v.s
	}
	return ""
}

func (v Value) String() string { return v.Text() }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindBool:
		return json.Marshal(v.b)
	case kindString:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts booleans, strings and numbers. Numbers are kept as
// their decimal text, except zero which becomes the empty string; null
// leaves the value unset.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported answer value %s", data)
		}
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("unsupported answer value %s", data)
		}
		if f == 0 {
			// Zero counts as unanswered, so it is kept as an empty string.
			*v = String("")
			return nil
		}
		*v = String(n.String())
	}
	return nil
}

// Answers maps a field id to its answer.
type Answers map[string]Value

// Get returns the answer for id. ok is false when the field is unanswered.
func (a Answers) Get(id string) (Value, bool) {
	v, ok := a[id]
	if !ok || v.IsZero() {
		return Value{}, false
	}
	return v, true
}

// UnmarshalJSON skips entries it cannot represent instead of failing the
// whole map, so one odd legacy entry does not hide the rest.
// A JSON string is read as an encoded answer map, the way it is stored.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var encoded string
	if json.Unmarshal(data, &encoded) == nil {
		*a = ParseAnswers(encoded)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Answers, len(raw))
	for id, msg := range raw {
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil || v.IsZero() {
			continue
		}
		out[id] = v
	}
	*a = out
	return nil
}

// Encode serialises the answers as stored in checklist_answers.
func (a Answers) Encode() (string, error) {
	if a == nil {
		a = Answers{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseAnswers decodes a stored checklist_answers string. Empty or malformed
// input yields an empty map.
func ParseAnswers(raw string) Answers {
	if raw == "" {
		return Answers{}
	}
	var a Answers
	if err := json.Unmarshal([]byte(raw), &a); err != nil || a == nil {
		return Answers{}
	}
	return a
}
