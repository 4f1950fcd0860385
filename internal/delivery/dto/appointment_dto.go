package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" validate:"required"`
	AppointmentDate string    `json:"appointment_date" validate:"required"` // Format: YYYY-MM-DD
	AppointmentTime string    `json:"appointment_time" validate:"required"`
	Reason          string    `json:"reason" validate:"required,max=500"`
	Symptoms        []string  `json:"symptoms" validate:"omitempty,dive,max=100"`
	Duration        int       `json:"duration" validate:"omitempty,gte=15,lte=180"`
	Priority        string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes           string    `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// AppointmentListQuery carries the parsed list query parameters
type AppointmentListQuery struct {
	Status    string
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Response DTOs

// AppointmentUserResponse holds the display fields of a participant
type AppointmentUserResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID                `json:"id"`
	Patient         *AppointmentUserResponse `json:"patient,omitempty"`
	Doctor          *AppointmentUserResponse `json:"doctor,omitempty"`
	AppointmentDate string                   `json:"appointment_date"`
	AppointmentTime string                   `json:"appointment_time"`
	Status          string                   `json:"status"`
	Priority        string                   `json:"priority"`
	Reason          string                   `json:"reason"`
	Symptoms        []string                 `json:"symptoms,omitempty"`
	Duration        int                      `json:"duration"`
	Notes           string                   `json:"notes,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

type AvailabilityDoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Specialization string    `json:"specialization,omitempty"`
}

type AvailabilityResponse struct {
	Doctor         AvailabilityDoctorResponse `json:"doctor"`
	Date           string                     `json:"date"`
	AvailableTimes []string                   `json:"available_times"`
	BookedTimes    []string                   `json:"booked_times"`
}

type AppointmentStatsResponse struct {
	Total    int64            `json:"total"`
	Today    int64            `json:"today"`
	Upcoming int64            `json:"upcoming"`
	ByStatus map[string]int64 `json:"by_status"`
}
