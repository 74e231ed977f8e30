package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	radioRe  = regexp.MustCompile(`^(710|711|713)(?:_(amp|no_amp))?$`)
	hargolRe = regexp.MustCompile(`^hargol(?:_(4200|4400))?$`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Device groups known to the inspection flow.
const (
	Group710    = "710"
	Group711    = "711"
	Group713    = "713"
	GroupHargol = "hargol"
	GroupElal   = "elal"
	GroupLotus  = "lotus"
)

// Profile is the structured form of a checklist profile code such as
// "710_amp" or "hargol_4400".
type Profile struct {
	Group   string
	Variant string // amp, no_amp, 4200, 4400 or empty
}

// Amplified reports whether the profile is a radio mounted with an amplifier.
func (p Profile) Amplified() bool { return p.Variant == "amp" }

// Code rebuilds the canonical profile code.
func (p Profile) Code() string {
	if p.Variant == "" {
		return p.Group
	}
	return p.Group + "_" + p.Variant
}

// ParseProfileCode splits a profile code into device group and variant.
func ParseProfileCode(raw string) (Profile, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	if m := radioRe.FindStringSubmatch(s); m != nil {
		return Profile{Group: m[1], Variant: m[2]}, nil
	}
	if m := hargolRe.FindStringSubmatch(s); m != nil {
		return Profile{Group: GroupHargol, Variant: m[1]}, nil
	}
	switch s {
	case GroupElal, GroupLotus:
		return Profile{Group: s}, nil
	}
	return Profile{}, fmt.Errorf("unable to parse profile code: %q", raw)
}

// KnownGroup reports whether g is one of the supported device groups.
func KnownGroup(g string) bool {
	switch g {
	case Group710, Group711, Group713, GroupHargol, GroupElal, GroupLotus:
		return true
	}
	return false
}

// NormalizeSerial cleans a typed or scanned serial number: surrounding and
// inner whitespace is removed and letters are upper-cased.
func NormalizeSerial(raw string) (string, error) {
	s := spaceRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return "", fmt.Errorf("empty serial number")
	}
	return strings.ToUpper(s), nil
}
