package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{AppointmentStatusPending, AppointmentStatusCancelled, true},
		{AppointmentStatusPending, AppointmentStatusCompleted, false},
		{AppointmentStatusPending, AppointmentStatusPending, false},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusPending, false},
		{AppointmentStatusCancelled, AppointmentStatusPending, false},
		{AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{AppointmentStatusCancelled, AppointmentStatusCompleted, false},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{AppointmentStatusCompleted, AppointmentStatusConfirmed, false},
	}

	for _, tt := range tests {
		got := TransitionAllowed(tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestStartTime(t *testing.T) {
	a := &Appointment{
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "14:30",
	}

	start := a.StartTime()
	assert.Equal(t, 2026, start.Year())
	assert.Equal(t, time.March, start.Month())
	assert.Equal(t, 15, start.Day())
	assert.Equal(t, 14, start.Hour())
	assert.Equal(t, 30, start.Minute())
}

func TestCanBeCancelledAt(t *testing.T) {
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local)
	a := &Appointment{
		AppointmentDate: day,
		AppointmentTime: "14:00",
	}

	// 3 hours before start: allowed
	assert.True(t, a.CanBeCancelledAt(time.Date(2026, 3, 15, 11, 0, 0, 0, time.Local)))

	// 1 hour before start: blocked
	assert.False(t, a.CanBeCancelledAt(time.Date(2026, 3, 15, 13, 0, 0, 0, time.Local)))

	// Exactly at the cutoff boundary: blocked
	assert.False(t, a.CanBeCancelledAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)))

	// After start: blocked
	assert.False(t, a.CanBeCancelledAt(time.Date(2026, 3, 15, 15, 0, 0, 0, time.Local)))
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&Appointment{Status: AppointmentStatusPending}).IsActive())
	assert.True(t, (&Appointment{Status: AppointmentStatusConfirmed}).IsActive())
	assert.False(t, (&Appointment{Status: AppointmentStatusCancelled}).IsActive())
	assert.False(t, (&Appointment{Status: AppointmentStatusCompleted}).IsActive())
}
