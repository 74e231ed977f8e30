package checklist

import "fmt"

type legacyItem struct {
	id    string
	label string
}

// Hard-coded checklists used by the manual-entry inspection screen before
// definitions became editable.
var legacyChecklists = map[string][]legacyItem{
	"710_no_amp": {
		{"visual", "בדיקה ויזואלית (שברים/סדקים)"},
		{"connectors", "תקינות מחברים"},
		{"battery", "תקינות בית סוללה"},
		{"ptt", "תקינות לחצן PTT"},
		{"audio", "בדיקת שמע ודיבור"},
	},
	"710_amp": {
		{"visual", "בדיקה ויזואלית (שברים/סדקים)"},
		{"connectors", "תקינות מחברים"},
		{"battery", "תקינות בית סוללה"},
		{"ptt", "תקינות לחצן PTT"},
		{"audio", "בדיקת שמע ודיבור"},
		{"amp_conn", "חיבור תקין למגבר"},
		{"amp_power", "הספק שידור עם מגבר"},
	},
	"711_no_amp": {
		{"visual", "בדיקה ויזואלית"},
		{"display", "תקינות צג"},
		{"keypad", "תקינות מקשים"},
		{"audio", "בדיקת שמע"},
	},
	"711_amp": {
		{"visual", "בדיקה ויזואלית"},
		{"display", "תקינות צג"},
		{"keypad", "תקינות מקשים"},
		{"audio", "בדיקת שמע"},
		{"amp_check", "בדיקת מגבר"},
	},
	"713_no_amp": {
		{"visual", "בדיקה ויזואלית"},
		{"switches", "תקינות בוררים"},
		{"ant", "תקינות אנטנה"},
	},
	"713_amp": {
		{"visual", "בדיקה ויזואלית"},
		{"switches", "תקינות בוררים"},
		{"ant", "תקינות אנטנה"},
		{"amp_integ", "אינטגרציה עם מגבר"},
	},
	"hargol_4200": {
		{"visual", "בדיקה ויזואלית"},
		{"cables", "תקינות כבלים"},
		{"gps", "נעילת GPS"},
		{"comm", "בדיקת תקשורת"},
	},
	"hargol_4400": {
		{"visual", "בדיקה ויזואלית"},
		{"cables", "תקינות כבלים"},
		{"gps", "נעילת GPS"},
		{"comm", "בדיקת תקשורת"},
		{"wideband", "בדיקת רחב סרט"},
	},
	"elal": {
		{"visual", "בדיקה ויזואלית"},
		{"leds", "תקינות נוריות"},
		{"func", "בדיקה פונקציונלית"},
	},
	"lotus": {
		{"visual", "בדיקה ויזואלית"},
		{"screen", "תקינות מסך מגע"},
		{"app", "עליית אפליקציה"},
	},
}

// LegacyChecklist returns the fixed checklist for code as optional checkbox
// fields.
func LegacyChecklist(code string) ([]Field, bool) {
	items, ok := legacyChecklists[code]
	if !ok {
		return nil, false
	}
	fields := make([]Field, len(items))
	for i, it := range items {
		fields[i] = Field{ID: it.id, Label: it.label, Kind: Checkbox{}}
	}
	return fields, true
}

// LegacyPassFail passes only when every item was ticked, regardless of
// the required flag.
func LegacyPassFail(items []Field, answers Answers) bool {
	for _, f := range items {
		v, ok := answers.Get(f.ID)
		if !ok || !v.Truthy() {
			return false
		}
	}
	return true
}

// ResolveLegacyCode picks the fixed checklist for a device group. elal and
// lotus map directly; the other groups need the operator's variant choice
// ("amp"/"no_amp" or "4200"/"4400").
func ResolveLegacyCode(group, variant string) (string, error) {
	switch group {
	case "elal", "lotus":
		return group, nil
	case "710", "711", "713", "hargol":
		if variant == "" {
			return "", fmt.Errorf("device group %s needs a variant", group)
		}
		code := group + "_" + variant
		if _, ok := legacyChecklists[code]; !ok {
			return "", fmt.Errorf("unknown variant %q for device group %s", variant, group)
		}
		return code, nil
	}
	return "", fmt.Errorf("no fixed checklist for device group %q", group)
}
