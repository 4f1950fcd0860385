package repository

import (
	"time"

	"hospital-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	Save(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	// FindActiveBySlot returns the pending or confirmed appointment
	// occupying the (doctor, date, time) slot, or nil.
	FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeLabel string) (*entity.Appointment, error)
	// FindActiveForDoctorDay returns pending and confirmed appointments
	// for the doctor on the given day, ordered by time label ascending.
	FindActiveForDoctorDay(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error)
	FindMany(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error)
	Count(db *gorm.DB, scope entity.AppointmentScope) (int64, error)
	CountByStatus(db *gorm.DB, scope entity.AppointmentScope) ([]entity.StatusCount, error)
	CountOnDay(db *gorm.DB, scope entity.AppointmentScope, day time.Time) (int64, error)
	CountUpcoming(db *gorm.DB, scope entity.AppointmentScope, now time.Time) (int64, error)
}
