package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pipeline stages a customer moves through. Stored as the display strings
// because the reminder sweep gates on the literal "Appointment Scheduled".
const (
	StageNew                  = "New"
	StageContacted            = "Contacted"
	StageAppointmentScheduled = "Appointment Scheduled"
	StageNegotiation          = "Negotiation"
	StageWon                  = "Won"
	StageLost                 = "Lost"
)

var PipelineStages = []string{
	StageNew,
	StageContacted,
	StageAppointmentScheduled,
	StageNegotiation,
	StageWon,
	StageLost,
}

// ValidPipelineStage reports whether s is one of the known stages.
func ValidPipelineStage(s string) bool {
	for _, stage := range PipelineStages {
		if s == stage {
			return true
		}
	}
	return false
}

type Customer struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	BusinessID      uuid.UUID `gorm:"type:uuid;not null;index:idx_business_phone,priority:1"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	FullName string `gorm:"not null"`
	// Optional; stored in E.164 form. Uniqueness per business is enforced
	// by the handlers so customers without a phone can coexist.
	Phone         string `gorm:"index:idx_business_phone,priority:2"`
	Email         string
	Address       string
	PipelineStage string `gorm:"type:varchar(30);not null;default:'New'"`
	Notes         string

	// Set by the geocoder; nil until the address has been resolved.
	Latitude  *float64
	Longitude *float64

	LastContactedAt *time.Time

	Appointments []Appointment `gorm:"foreignKey:CustomerID"`

	gorm.Model
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
