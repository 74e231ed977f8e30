package model

import "time"

const (
	CardKindRoutine = "routine"
	CardKindSpecial = "special"
)

// Card groups devices for a routine or special inspection round.
type Card struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Kind        string    `gorm:"index;size:16;not null" json:"kind"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Devices     []string  `gorm:"serializer:json;type:text" json:"devices"`
	IsActive    bool      `gorm:"index;not null;default:true" json:"is_active"`
	Order       int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt   time.Time `json:"created_date"`
	UpdatedAt   time.Time `json:"updated_date"`

	// Associations
	Subscriptions []*PushSubscription `gorm:"many2many:subscription_card_mapping;" json:"-"`
}

// HasDevice reports whether serial is listed on the card.
func (c Card) HasDevice(serial string) bool {
	for _, s := range c.Devices {
		if s == serial {
			return true
		}
	}
	return false
}
