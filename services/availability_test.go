package services

import (
	"testing"
	"time"

	"cliently-backend/models"

	"github.com/google/uuid"
)

func TestIsAvailable(t *testing.T) {
	// One booked hour, 09:00-10:00.
	base := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	busy := []Interval{{Start: base, End: base.Add(time.Hour)}}

	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"identical slot", base, false},
		{"starts during booked hour", base.Add(30 * time.Minute), false},
		{"ends during booked hour", base.Add(-30 * time.Minute), false},
		{"ends exactly at booked start", base.Add(-time.Hour), true},
		{"starts exactly at booked end", base.Add(time.Hour), true},
		{"well clear", base.Add(5 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAvailable(tt.start, tt.start.Add(time.Hour), busy)
			if got != tt.want {
				t.Fatalf("IsAvailable(%s) = %v, want %v", tt.start.Format(time.RFC3339), got, tt.want)
			}
		})
	}
}

func TestIsAvailableContainment(t *testing.T) {
	base := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	busy := []Interval{{Start: base.Add(15 * time.Minute), End: base.Add(45 * time.Minute)}}

	// Candidate fully contains the busy interval.
	if IsAvailable(base, base.Add(time.Hour), busy) {
		t.Fatal("candidate containing a busy interval should not be available")
	}

	// Candidate fully inside a busy interval.
	wide := []Interval{{Start: base, End: base.Add(3 * time.Hour)}}
	if IsAvailable(base.Add(time.Hour), base.Add(2*time.Hour), wide) {
		t.Fatal("candidate inside a busy interval should not be available")
	}
}

func TestIsAvailableNoBookings(t *testing.T) {
	start := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	if !IsAvailable(start, start.Add(time.Hour), nil) {
		t.Fatal("empty schedule should always be available")
	}
}

func TestIsAvailableMultipleIntervals(t *testing.T) {
	base := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	busy := []Interval{
		{Start: base, End: base.Add(time.Hour)},
		{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour)},
	}

	// The gap between the two bookings is exactly one hour.
	if !IsAvailable(base.Add(time.Hour), base.Add(2*time.Hour), busy) {
		t.Fatal("expected the gap between bookings to be available")
	}
	if IsAvailable(base.Add(90*time.Minute), base.Add(150*time.Minute), busy) {
		t.Fatal("expected overlap with the second booking to be detected")
	}
}

func TestConflictWindow(t *testing.T) {
	candidate := time.Date(2026, 4, 6, 14, 30, 0, 0, time.UTC)
	from, to := ConflictWindow(candidate)

	wantFrom := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)

	if !from.Equal(wantFrom) {
		t.Errorf("from = %s, want %s", from, wantFrom)
	}
	if !to.Equal(wantTo) {
		t.Errorf("to = %s, want %s", to, wantTo)
	}
}

func TestConflictingAppointments(t *testing.T) {
	db := setupReminderDB(t)
	fx := seedAppointment(t, db, models.StageAppointmentScheduled)

	start := fx.appointment.StartTime
	end := fx.appointment.EndTime

	conflicts, err := ConflictingAppointments(db, fx.business.ID, start, end, uuid.Nil)
	if err != nil {
		t.Fatalf("conflicting appointments: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != fx.appointment.ID {
		t.Fatalf("expected the booked slot to conflict, got %d conflicts", len(conflicts))
	}

	// Excluding the appointment itself frees its own slot, which is what a
	// no-op reschedule needs.
	conflicts, err = ConflictingAppointments(db, fx.business.ID, start, end, fx.appointment.ID)
	if err != nil {
		t.Fatalf("conflicting appointments with exclude: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts when excluding the appointment itself, got %d", len(conflicts))
	}

	// The slot right after is bookable.
	conflicts, err = ConflictingAppointments(db, fx.business.ID, end, end.Add(time.Hour), uuid.Nil)
	if err != nil {
		t.Fatalf("conflicting appointments for adjacent slot: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected the adjacent slot to be free, got %d conflicts", len(conflicts))
	}

	// Another business's calendar does not collide.
	conflicts, err = ConflictingAppointments(db, uuid.New(), start, end, uuid.Nil)
	if err != nil {
		t.Fatalf("conflicting appointments for other business: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no cross-business conflicts, got %d", len(conflicts))
	}
}
