package checklist

import (
	"encoding/json"
	"strings"
)

// Kind is the answer type of a field: Checkbox, Text or Select.
type Kind interface {
	Name() string
	isKind()
}

// Checkbox is a yes/no field answered with a boolean.
type Checkbox struct{}

// Text is a free text field.
type Text struct{}

// Select is a choice from a fixed, ordered option list.
type Select struct {
	Options []string
}

func (Checkbox) Name() string { return TypeCheckbox }
func (Text) Name() string     { return TypeText }
func (Select) Name() string   { return TypeSelect }

func (Checkbox) isKind() {}
func (Text) isKind()     {}
func (Select) isKind()   {}

const (
	TypeCheckbox = "checkbox"
	TypeText     = "text"
	TypeSelect   = "select"
)

// FailSentinel is the answer that opens sub-items of text and select fields.
const FailSentinel = "נכשל"

// Field is one question of a checklist definition.
type Field struct {
	ID       string
	Label    string
	Required bool
	Kind     Kind
	SubItems []Field

	// ConditionValue overrides the answer that reveals SubItems.
	ConditionValue *Value
}

// IsCheckbox reports whether f is answered with a boolean.
func (f Field) IsCheckbox() bool {
	_, ok := f.Kind.(Checkbox)
	return ok
}

// Condition returns the answer that makes f's sub-items visible.
func (f Field) Condition() Value {
	if f.ConditionValue != nil && !f.ConditionValue.IsZero() {
		return *f.ConditionValue
	}
	if f.IsCheckbox() {
		return Bool(false)
	}
	return String(FailSentinel)
}

// Options returns the select options, nil for other kinds.
func (f Field) Options() []string {
	if s, ok := f.Kind.(Select); ok {
		return s.Options
	}
	return nil
}

type wireField struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Type           string          `json:"type"`
	Required       bool            `json:"required"`
	Options        json.RawMessage `json:"options,omitempty"`
	SubItems       []Field         `json:"subItems,omitempty"`
	ConditionValue *Value          `json:"conditionValue,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f Field) MarshalJSON() ([]byte, error) {
	w := wireField{
		ID:             f.ID,
		Label:          f.Label,
		Type:           kindName(f.Kind),
		Required:       f.Required,
		SubItems:       f.SubItems,
		ConditionValue: f.ConditionValue,
	}
	if s, ok := f.Kind.(Select); ok {
		opts := s.Options
		if opts == nil {
			opts = []string{}
		}
		raw, err := json.Marshal(opts)
		if err != nil {
			return nil, err
		}
		w.Options = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown types are read as text
// fields; options may be a list or a comma separated string.
func (f *Field) UnmarshalJSON(data []byte) error {
	var w wireField
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var kind Kind
	switch w.Type {
	case TypeCheckbox:
		kind = Checkbox{}
	case TypeSelect:
		kind = Select{Options: decodeOptions(w.Options)}
	default:
		kind = Text{}
	}

	*f = Field{
		ID:             w.ID,
		Label:          w.Label,
		Required:       w.Required,
		Kind:           kind,
		SubItems:       w.SubItems,
		ConditionValue: w.ConditionValue,
	}
	if f.ConditionValue != nil && f.ConditionValue.IsZero() {
		f.ConditionValue = nil
	}
	return nil
}

func kindName(k Kind) string {
	if k == nil {
		return TypeText
	}
	return k.Name()
}

func decodeOptions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanOptions(list)
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return cleanOptions(strings.Split(joined, ","))
	}
	return nil
}

func cleanOptions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
