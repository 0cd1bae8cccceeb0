package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentDuration is fixed for every appointment: EndTime is always
// derived as StartTime + 1 hour and never supplied by a client.
const AppointmentDuration = time.Hour

// Appointment deliberately has no gorm.Model: cancelling an appointment is
// a hard delete, with no soft-delete tombstone left behind.
type Appointment struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	BusinessID      uuid.UUID `gorm:"type:uuid;not null;index:idx_business_start,priority:1"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null"`

	Title     string
	Notes     string
	StartTime time.Time `gorm:"not null;index:idx_business_start,priority:2"`
	EndTime   time.Time `gorm:"not null"`

	Customer Customer `gorm:"foreignKey:CustomerID"`

	CreatedAt time.Time
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
