package checklist

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidDefinition is wrapped by every Validate failure.
var ErrInvalidDefinition = errors.New("invalid checklist definition")

// MaxDepth is how deep sub-items may nest below a top-level field.
const MaxDepth = 1

// NewFieldID returns a fresh field identifier.
func NewFieldID() string {
	return "field_" + uuid.NewString()
}

// Validate checks the structural invariants the answer map relies on: every
// field has an id, ids are unique across all levels, and sub-items nest at
// most MaxDepth levels.
func Validate(items []Field) error {
	seen := make(map[string]struct{})
	return validate(items, 0, seen)
}

func validate(items []Field, depth int, seen map[string]struct{}) error {
	for i, f := range items {
		if f.ID == "" {
			return fmt.Errorf("%w: item %d (%q) has no id", ErrInvalidDefinition, i, f.Label)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidDefinition, f.ID)
		}
		seen[f.ID] = struct{}{}
		if len(f.SubItems) == 0 {
			continue
		}
		if depth >= MaxDepth {
			return fmt.Errorf("%w: %q nests sub-items deeper than %d level", ErrInvalidDefinition, f.ID, MaxDepth)
		}
		if err := validate(f.SubItems, depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}

// Duplicate deep-copies items, giving every field at every level a new id
// from newID. A nil newID uses NewFieldID.
func Duplicate(items []Field, newID func() string) []Field {
	if newID == nil {
		newID = NewFieldID
	}
	if items == nil {
		return nil
	}
	out := make([]Field, len(items))
	for i, f := range items {
		cp := f
		cp.ID = newID()
		if s, ok := f.Kind.(Select); ok {
			cp.Kind = Select{Options: append([]string(nil), s.Options...)}
		}
		if f.ConditionValue != nil {
			cv := *f.ConditionValue
			cp.ConditionValue = &cv
		}
		cp.SubItems = Duplicate(f.SubItems, newID)
		out[i] = cp
	}
	return out
}

// Move returns a copy of items with the element at from relocated to to.
func Move(items []Field, from, to int) ([]Field, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("move %d -> %d out of range for %d items", from, to, len(items))
	}
	out := make([]Field, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	moved := items[from]
	out = append(out[:to], append([]Field{moved}, out[to:]...)...)
	return out, nil
}

// IDs lists every field id in depth-first definition order.
func IDs(items []Field) []string {
	var ids []string
	for _, f := range items {
		ids = append(ids, f.ID)
		ids = append(ids, IDs(f.SubItems)...)
	}
	return ids
}
