package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Business struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name    string    `gorm:"not null"`
	Address string

	// NotificationPhone is where appointment reminder texts for the owner
	// go. There is deliberately no fallback number: an empty value is a
	// configuration error surfaced by the reminder sweep.
	NotificationPhone   string
	SMSRemindersEnabled bool   `gorm:"default:true"`
	Timezone            string `gorm:"default:'America/New_York'"` // IANA name used for message formatting

	Users        []User        `gorm:"foreignKey:BusinessID"`
	Customers    []Customer    `gorm:"foreignKey:BusinessID"`
	Appointments []Appointment `gorm:"foreignKey:BusinessID"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
