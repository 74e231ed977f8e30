package model

import (
	"time"

	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
)

// InspectionChecklist is an admin-authored checklist definition for one
// device profile code.
type InspectionChecklist struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	Code      string            `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name      string            `gorm:"size:256;not null" json:"name"`
	Items     []checklist.Field `gorm:"serializer:json;type:text;not null" json:"items"`
	CreatedAt time.Time         `json:"created_date"`
	UpdatedAt time.Time         `json:"updated_date"`
}
