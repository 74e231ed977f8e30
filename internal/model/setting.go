package model

import "time"

// SettingManagerPIN is the key of the card approval PIN.
const SettingManagerPIN = "manager_pin"

// KnownSetting reports whether key may be read and written over the API.
func KnownSetting(key string) bool {
	return key == SettingManagerPIN
}

// SystemSetting is a key/value application setting.
type SystemSetting struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_date"`
}
