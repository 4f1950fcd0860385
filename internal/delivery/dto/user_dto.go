package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserListQuery carries the parsed directory query parameters
type UserListQuery struct {
	Role   string
	Search string
	Page   int
	Limit  int
}

// Response DTOs

type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Role           string    `json:"role"`
	Specialization string    `json:"specialization,omitempty"`
	IsActive       *bool     `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type UserStatsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	TotalDoctors  int64 `json:"total_doctors"`
	TotalPatients int64 `json:"total_patients"`
	NewUsers      int64 `json:"new_users"`
}
