// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder recipients and outcomes.
const (
	RecipientOwner    = "owner"
	RecipientCustomer = "customer"

	ReminderSent   = "sent"
	ReminderFailed = "failed"
)

// ReminderLog records every reminder send attempt. A row with status "sent"
// doubles as the dedup marker for its (appointment, recipient) pair: the
// sweep checks for one before sending, so repeated sweeps over the same
// window never re-text a recipient. Failed rows are audit only and leave
// the pair eligible for retry on the next sweep.
type ReminderLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	BusinessID    uuid.UUID `gorm:"type:uuid;index;not null"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_appointment_recipient,priority:1"`
	CustomerID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Recipient     string    `gorm:"type:varchar(20);not null;index:idx_appointment_recipient,priority:2"` // owner, customer
	Phone         string    `gorm:"type:varchar(30)"`
	Message       string    `gorm:"type:text"`
	Status        string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage  string    `gorm:"type:text"`
	MessageSID    string    `gorm:"type:varchar(64)"`
	SentAt        time.Time
	gorm.Model
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
