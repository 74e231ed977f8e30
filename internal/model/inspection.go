package model

import "time"

const (
	InspectionStatusDraft     = "draft"
	InspectionStatusCompleted = "completed"

	CavadPassed = "passed"
	CavadFailed = "failed"
)

// Delivery records who received the devices after the inspection.
type Delivery struct {
	Status      string `gorm:"size:32" json:"delivery_status"`
	SoldierName string `gorm:"size:256" json:"delivery_soldier_name"`
	Signature   string `gorm:"type:text" json:"delivery_signature"`
}

// Inspection is one inspection of one or more devices against a checklist
// profile. Drafts are saved repeatedly and completed once.
type Inspection struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	InspectionNumber    int64      `gorm:"index;not null" json:"inspection_number"`
	DeviceSerialNumbers []string   `gorm:"serializer:json;type:text;not null" json:"device_serial_numbers"`
	Profile             string     `gorm:"index;size:64;not null" json:"profile"`
	Status              string     `gorm:"index;size:16;not null" json:"status"`
	Progress            int        `gorm:"not null;default:0" json:"progress"`
	ChecklistAnswers    string     `gorm:"type:text" json:"checklist_answers"`
	CavadStatus         string     `gorm:"size:16" json:"cavad_status,omitempty"`
	Summary             string     `gorm:"type:text" json:"summary,omitempty"`
	Remarks             string     `gorm:"type:text" json:"remarks"`
	SoldierName         string     `gorm:"size:256" json:"soldier_name"`
	FaultDescription    string     `gorm:"type:text" json:"fault_description,omitempty"`
	CardID              *int64     `gorm:"index" json:"card_id"`
	InspectionDate      *time.Time `json:"inspection_date"`
	SoldierSignature    string     `gorm:"type:text" json:"soldier_signature,omitempty"`
	SupervisorSignature string     `gorm:"type:text" json:"supervisor_signature,omitempty"`
	Delivery            Delivery   `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`
	CreatedAt           time.Time  `gorm:"index" json:"created_date"`
	UpdatedAt           time.Time  `json:"updated_date"`
}

// Covers reports whether serial is one of the inspected devices.
func (i Inspection) Covers(serial string) bool {
	for _, s := range i.DeviceSerialNumbers {
		if s == serial {
			return true
		}
	}
	return false
}

// DraftLock ties a device serial to its single open draft. The primary key
// is what keeps a second draft from being opened for the same device.
type DraftLock struct {
	SerialNumber string    `gorm:"primaryKey;size:128"`
	InspectionID int64     `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// Sequence is a named monotonic counter.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}
