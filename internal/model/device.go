package model

import "time"

const (
	EncryptionEncrypted    = "encrypted"
	EncryptionNotEncrypted = "not_encrypted"

	DeviceStatusActive = "active"
)

// Device represents a radio device tracked by serial number.
type Device struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	SerialNumber       string     `gorm:"uniqueIndex;size:128;not null" json:"serial_number"`
	DeviceGroup        string     `gorm:"index;size:32;not null" json:"device_group"`
	DeviceName         string     `gorm:"size:256" json:"device_name"`
	IPAddress          string     `gorm:"size:64" json:"ip_address"`
	Status             string     `gorm:"size:32;not null;default:active" json:"status"`
	EncryptionStatus   string     `gorm:"size:32;not null;default:not_encrypted" json:"encryption_status"`
	TotalInspections   int        `gorm:"not null;default:0" json:"total_inspections"`
	TotalFaults        int        `gorm:"not null;default:0" json:"total_faults"`
	LastInspectionDate *time.Time `json:"last_inspection_date"`
	CreatedAt          time.Time  `json:"created_date"`
	UpdatedAt          time.Time  `json:"updated_date"`
}
