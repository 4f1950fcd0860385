package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// AppointmentPriority is informational only and never affects scheduling
type AppointmentPriority string

const (
	AppointmentPriorityLow    AppointmentPriority = "low"
	AppointmentPriorityMedium AppointmentPriority = "medium"
	AppointmentPriorityHigh   AppointmentPriority = "high"
	AppointmentPriorityUrgent AppointmentPriority = "urgent"
)

// PatientCancellationCutoff is the window before the appointment start
// inside which the assigned patient may no longer cancel. Doctors are
// not subject to it.
const PatientCancellationCutoff = 2 * time.Hour

// DefaultAppointmentDuration is applied when a booking request omits
// the duration, in minutes.
const DefaultAppointmentDuration = 30

// Appointment represents a booked time slot between a patient and a doctor
type Appointment struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_appointments_patient_date" json:"patient_id"`
	DoctorID        uuid.UUID           `gorm:"type:uuid;not null;index:idx_appointments_doctor_date" json:"doctor_id"`
	AppointmentDate time.Time           `gorm:"type:date;not null;index:idx_appointments_patient_date;index:idx_appointments_doctor_date" json:"appointment_date"`
	AppointmentTime string              `gorm:"type:varchar(5);not null" json:"appointment_time"`
	Status          AppointmentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority        AppointmentPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Reason          string              `gorm:"type:varchar(500);not null" json:"reason"`
	Symptoms        StringList          `gorm:"type:jsonb" json:"symptoms,omitempty"`
	Duration        int                 `gorm:"not null;default:30" json:"duration"`
	Notes           string              `gorm:"type:varchar(1000)" json:"notes,omitempty"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsPending checks if the appointment is in pending status
func (a *Appointment) IsPending() bool {
	return a.Status == AppointmentStatusPending
}

// IsConfirmed checks if the appointment is confirmed
func (a *Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// IsActive reports whether the appointment still occupies its slot.
// Only active appointments count toward the exclusivity invariant.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusPending || a.Status == AppointmentStatusConfirmed
}

// StartTime combines the calendar date with the HH:MM label into the
// absolute start instant. Local-naive arithmetic: the label is
// substituted onto the date in the process-local zone.
func (a *Appointment) StartTime() time.Time {
	hour, minute := splitTimeLabel(a.AppointmentTime)
	d := a.AppointmentDate
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.Local)
}

// CanBeCancelledAt reports whether the patient-side cancellation cutoff
// still permits cancelling at the given instant.
func (a *Appointment) CanBeCancelledAt(now time.Time) bool {
	return a.StartTime().Sub(now) > PatientCancellationCutoff
}

// TransitionAllowed reports whether the status state machine admits
// moving from one status to another. Cancelled and completed are
// terminal; role permissions are checked separately by the caller.
func TransitionAllowed(from, to AppointmentStatus) bool {
	switch from {
	case AppointmentStatusPending:
		return to == AppointmentStatusConfirmed || to == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return to == AppointmentStatusCompleted || to == AppointmentStatusCancelled
	default:
		return false
	}
}

func splitTimeLabel(label string) (hour, minute int) {
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute
}

// StringList is an ordered list of free-text tags stored as JSONB
type StringList []string

// Value returns the json value, implements driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan scans a value into StringList, implements sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	var result []string
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*l = StringList(result)
	return nil
}
