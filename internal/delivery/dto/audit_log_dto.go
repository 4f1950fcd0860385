package dto

import (
	"time"

	"hospital-appointment-server/internal/domain/entity"
)

// AuditLogListQuery carries the parsed audit listing query parameters
type AuditLogListQuery struct {
	Action string
	Page   int
	Limit  int
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
