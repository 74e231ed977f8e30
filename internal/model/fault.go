package model

import "time"

// FaultHistory records a fault found during an inspection.
type FaultHistory struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	DeviceSerialNumber string     `gorm:"index;size:128;not null" json:"device_serial_number"`
	InspectionID       int64      `gorm:"index" json:"inspection_id"`
	FaultDescription   string     `gorm:"type:text;not null" json:"fault_description"`
	FaultDate          time.Time  `gorm:"not null" json:"fault_date"`
	Resolved           bool       `gorm:"index;not null;default:false" json:"resolved"`
	ResolvedAt         *time.Time `json:"resolved_at"`
	CreatedAt          time.Time  `json:"created_date"`
}
