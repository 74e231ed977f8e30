package store

import "time"

// DeviceFilter narrows a device listing. Empty fields match everything.
type DeviceFilter struct {
	Group string
	Query string // substring of serial number or device name
}

// InspectionFilter narrows an inspection listing.
type InspectionFilter struct {
	Status string
	CardID *int64
	Serial string
	Limit  int
}

// FaultFilter narrows a fault history listing.
type FaultFilter struct {
	Serial   string
	Resolved *bool
}

// Completion carries the per-device side effects of submitting an inspection.
type Completion struct {
	At        time.Time
	Encrypted bool   // flip every covered device to encrypted
	Fault     string // recorded against every covered device when non-empty
}

// SeedFunc derives the first inspection number from the numbers already
// present when the counter row does not exist yet.
type SeedFunc func(existing []int64) int64

// RotateFunc checks the current manager PIN and returns its replacement.
type RotateFunc func(current string) (string, error)
