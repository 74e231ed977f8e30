// Package export projects completed inspections onto the fixed reporting
// table and renders it as CSV or PDF.
package export

import (
	"strconv"
	"strings"

	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

// Headers is the header row of every export.
var Headers = []string{
	"סודר",
	"שם",
	"מספר צ’",
	"אנטנה",
	"מער״ש",
	`צב"ד`,
	"הצפנה",
	"תדרים",
	"בדיקות קשר",
	"החלפת סוללה",
	"אטימות",
	"ציוד נוסף",
	"הערות",
}

// Definitions maps a profile code to its checklist items.
type Definitions map[string][]checklist.Field

// DefinitionsOf indexes stored checklists by code.
func DefinitionsOf(lists []model.InspectionChecklist) Definitions {
	defs := make(Definitions, len(lists))
	for _, c := range lists {
		defs[c.Code] = c.Items
	}
	return defs
}

// ResolveColumn finds the answer of the top-level item labelled label. An
// exact label match wins over the first label containing label. ok is false
// when no item matches or the matching item is unanswered.
func ResolveColumn(label string, items []checklist.Field, answers checklist.Answers) (checklist.Value, bool) {
	for _, f := range items {
		if f.ID != "" && f.Label == label {
			return answers.Get(f.ID)
		}
	}
	for _, f := range items {
		if f.ID != "" && strings.Contains(f.Label, label) {
			return answers.Get(f.ID)
		}
	}
	return checklist.Value{}, false
}

// Verdict is a tri-state pass/fail reading of a free-form answer.
type Verdict int

const (
	Unknown Verdict = iota
	Pass
	Fail
)

var (
	passWords = map[string]bool{"כן": true, "true": true, "TRUE": true, "תקין": true, "עבר": true, "V": true, "v": true}
	failWords = map[string]bool{"לא": true, "false": true, "FALSE": true, "לא תקין": true, "נכשל": true, "X": true, "x": true}
)

// NormalizeCheckbox canonicalises booleans and the common Hebrew and
// English pass/fail words.
func NormalizeCheckbox(v checklist.Value) Verdict {
	if b, ok := v.AsBool(); ok {
		if b {
			return Pass
		}
		return Fail
	}
	if s, ok := v.AsString(); ok {
		switch {
		case passWords[s]:
			return Pass
		case failWords[s]:
			return Fail
		}
	}
	return Unknown
}

// VX renders a verdict as V, X or blank.
func (v Verdict) VX() string {
	switch v {
	case Pass:
		return "V"
	case Fail:
		return "X"
	}
	return ""
}

// Sanitize flattens free text onto one line.
func Sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// Row projects one inspection onto the export columns. num is the value of
// the first column.
func Row(num int, insp model.Inspection, items []checklist.Field) []string {
	answers := checklist.ParseAnswers(insp.ChecklistAnswers)
	col := func(label string) (checklist.Value, bool) {
		return ResolveColumn(label, items, answers)
	}
	text := func(label string) string {
		v, _ := col(label)
		return v.Text()
	}
	verdict := func(label string) string {
		v, _ := col(label)
		return NormalizeCheckbox(v).VX()
	}

	name := insp.SoldierName
	if v, ok := col("שם"); ok {
		name = v.Text()
	}

	mearash, ok := col(`מער"ש`)
	if !ok {
		mearash, _ = col("מער״ש")
	}

	notes := insp.Remarks
	if v, ok := col("הערות"); ok {
		notes = v.Text()
	}

	return []string{
		strconv.Itoa(num),
		Sanitize(name),
		Sanitize(text("מספר צ’")),
		Sanitize(text("אנטנה")),
		Sanitize(mearash.Text()),
		tzabad(col(`צב"ד`)),
		verdict("הצפנ"),
		verdict("תדר"),
		verdict("בדיקות קשר"),
		verdict("החלפת סוללה"),
		verdict("אטימות"),
		Sanitize(text("ציוד נוסף")),
		Sanitize(notes),
	}
}

// tzabad passes only the select answer "עבר" or a ticked checkbox.
func tzabad(v checklist.Value, ok bool) string {
	if !ok {
		return ""
	}
	if b, isBool := v.AsBool(); isBool {
		if b {
			return "V"
		}
		return "X"
	}
	s, _ := v.AsString()
	switch {
	case s == "עבר":
		return "V"
	case s != "":
		return "X"
	}
	return ""
}

// CardRows builds one row per device of card that has a completed inspection
// on that card, in the card's device order. inspections must be ordered
// newest first; devices without a completed inspection are skipped and do not
// consume a row number.
func CardRows(card model.Card, inspections []model.Inspection, defs Definitions) [][]string {
	rows := make([][]string, 0, len(card.Devices))
	for _, serial := range card.Devices {
		insp, ok := latestCompleted(card.ID, serial, inspections)
		if !ok {
			continue
		}
		rows = append(rows, Row(len(rows)+1, insp, defs[insp.Profile]))
	}
	return rows
}

// AllRows builds one row per inspection in the given order.
func AllRows(inspections []model.Inspection, defs Definitions) [][]string {
	rows := make([][]string, 0, len(inspections))
	for i, insp := range inspections {
		rows = append(rows, Row(i+1, insp, defs[insp.Profile]))
	}
	return rows
}

func latestCompleted(cardID int64, serial string, inspections []model.Inspection) (model.Inspection, bool) {
	for _, insp := range inspections {
		if insp.Status != model.InspectionStatusCompleted {
			continue
		}
		if insp.CardID == nil || *insp.CardID != cardID {
			continue
		}
		if insp.Covers(serial) {
			return insp, true
		}
	}
	return model.Inspection{}, false
}
