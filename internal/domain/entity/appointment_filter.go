package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentScope restricts appointment queries to what the requester
// may see. A nil field means no restriction on that side; the zero
// value is the unrestricted (admin) scope.
type AppointmentScope struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// AppointmentFilter is a domain-level filter for listing appointments.
// Used by the repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	Scope     AppointmentScope
	Status    string
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *time.Time // match appointments on this calendar day
	Page      int
	Limit     int
	SortBy    string // appointment_date or created_at
	SortOrder string // asc or desc
}

// StatusCount is one row of a grouped status aggregation
type StatusCount struct {
	Status AppointmentStatus
	Count  int64
}

// UserFilter is a domain-level filter for the user directory listing
type UserFilter struct {
	RoleID *RoleID
	Search string
	Page   int
	Limit  int
}
