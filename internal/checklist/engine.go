package checklist

import (
	"math"
	"strings"
)

// IsSubsectionVisible reports whether f's sub-items are shown for the given
// answers: the stored answer must equal f's condition value exactly.
func IsSubsectionVisible(f Field, answers Answers) bool {
	v, ok := answers.Get(f.ID)
	if !ok {
		return false
	}
	return v.Equal(f.Condition())
}

// CollectMissingRequired returns the labels of required fields that still
// need an answer, in definition order. An explicit false on a checkbox counts
// as an answer so that failures can be recorded. Hidden sub-items are skipped.
func CollectMissingRequired(items []Field, answers Answers) []string {
	var missing []string
	for _, f := range items {
		if f.Required && isMissing(f, answers) {
			missing = append(missing, f.Label)
		}
		if len(f.SubItems) > 0 && IsSubsectionVisible(f, answers) {
			missing = append(missing, CollectMissingRequired(f.SubItems, answers)...)
		}
	}
	return missing
}

func isMissing(f Field, answers Answers) bool {
	v, ok := answers.Get(f.ID)
	if f.IsCheckbox() {
		return !ok
	}
	return !ok || !v.Truthy()
}

// ComputeProgress returns the share of answered top-level items as a
// rounded percentage. Unlike CollectMissingRequired, a false checkbox is
// counted as unanswered here; stored drafts depend on that.
func ComputeProgress(items []Field, answers Answers) int {
	if len(items) == 0 {
		return 0
	}
	answered := 0
	for _, f := range items {
		if isAnswered(f, answers) {
			answered++
		}
	}
	return int(math.Round(100 * float64(answered) / float64(len(items))))
}

func isAnswered(f Field, answers Answers) bool {
	v, ok := answers.Get(f.ID)
	if !ok {
		return false
	}
	if f.IsCheckbox() {
		b, isBool := v.AsBool()
		return isBool && b
	}
	return v.Truthy()
}

// ComputePassFail reports whether every required top-level item passed.
func ComputePassFail(items []Field, answers Answers) bool {
	for _, f := range items {
		if !f.Required {
			continue
		}
		if !isAnswered(f, answers) {
			return false
		}
	}
	return true
}

// Summary renders visible answers as "label: value" lines. Booleans are
// written as V or X.
func Summary(items []Field, answers Answers) string {
	var sb strings.Builder
	writeSummary(&sb, items, answers)
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeSummary(sb *strings.Builder, items []Field, answers Answers) {
	for _, f := range items {
		sb.WriteString(f.Label)
		sb.WriteString(": ")
		if v, ok := answers.Get(f.ID); ok {
			if b, isBool := v.AsBool(); isBool {
				sb.WriteString(vx(b))
			} else {
				sb.WriteString(v.Text())
			}
		}
		sb.WriteString("\n")
		if len(f.SubItems) > 0 && IsSubsectionVisible(f, answers) {
			writeSummary(sb, f.SubItems, answers)
		}
	}
}

func vx(b bool) string {
	if b {
		return "V"
	}
	return "X"
}
