package services

import (
	"time"

	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Two half-open intervals overlap iff s1 < e2 && s2 < e1, which keeps
// back-to-back appointments bookable: a slot starting exactly when another
// ends does not clash.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsAvailable reports whether the candidate range [candidateStart,
// candidateEnd) is free of every existing interval.
func IsAvailable(candidateStart, candidateEnd time.Time, existing []Interval) bool {
	for _, iv := range existing {
		if overlaps(candidateStart, candidateEnd, iv.Start, iv.End) {
			return false
		}
	}
	return true
}

// ConflictWindow bounds which appointments are worth comparing against a
// candidate: the candidate's day plus one day on each side. Loading the
// whole table for one availability check grows without bound.
func ConflictWindow(candidateStart time.Time) (time.Time, time.Time) {
	dayStart := utils.BeginningOfDay(candidateStart)
	return dayStart.AddDate(0, 0, -1), dayStart.AddDate(0, 0, 2)
}

// ConflictingAppointments returns the business's booked appointments that
// overlap the candidate slot, in start order. excludeID skips the
// appointment being rescheduled; pass uuid.Nil for a new booking.
func ConflictingAppointments(db *gorm.DB, businessID uuid.UUID, candidateStart, candidateEnd time.Time, excludeID uuid.UUID) ([]models.Appointment, error) {
	from, to := ConflictWindow(candidateStart)

	q := db.Where("business_id = ? AND start_time >= ? AND start_time < ?", businessID, from, to)
	if excludeID != uuid.Nil {
		q = q.Where("id != ?", excludeID)
	}

	var candidates []models.Appointment
	if err := q.Order("start_time").Find(&candidates).Error; err != nil {
		return nil, err
	}

	var conflicts []models.Appointment
	for _, a := range candidates {
		if overlaps(candidateStart, candidateEnd, a.StartTime, a.EndTime) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts, nil
}
