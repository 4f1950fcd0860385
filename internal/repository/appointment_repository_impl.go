package repository

import (
	"errors"
	"time"

	"hospital-appointment-server/internal/domain/entity"
	domainRepo "hospital-appointment-server/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var activeStatuses = []entity.AppointmentStatus{
	entity.AppointmentStatusPending,
	entity.AppointmentStatusConfirmed,
}

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) Save(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Save(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient").Preload("Doctor").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeLabel string) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where(
		"doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status IN ?",
		doctorID, dateOnly(date), timeLabel, activeStatuses,
	).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveForDoctorDay(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where(
		"doctor_id = ? AND appointment_date = ? AND status IN ?",
		doctorID, dateOnly(date), activeStatuses,
	).Order("appointment_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindMany(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	query := scoped(db.Model(&entity.Appointment{}), filter.Scope)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Date != nil {
		day := dateOnly(*filter.Date)
		query = query.Where("appointment_date >= ? AND appointment_date < ?", day, day.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if sortBy != "created_at" {
		sortBy = "appointment_date"
	}
	order := sortBy + " ASC, appointment_time ASC"
	if filter.SortOrder == "desc" {
		order = sortBy + " DESC, appointment_time DESC"
	}

	var appointments []entity.Appointment
	err := query.Preload("Patient").Preload("Doctor").
		Order(order).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}

	return appointments, total, nil
}

func (r *appointmentRepository) Count(db *gorm.DB, scope entity.AppointmentScope) (int64, error) {
	var count int64
	err := scoped(db.Model(&entity.Appointment{}), scope).Count(&count).Error
	return count, err
}

func (r *appointmentRepository) CountByStatus(db *gorm.DB, scope entity.AppointmentScope) ([]entity.StatusCount, error) {
	var counts []entity.StatusCount
	err := scoped(db.Model(&entity.Appointment{}), scope).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *appointmentRepository) CountOnDay(db *gorm.DB, scope entity.AppointmentScope, day time.Time) (int64, error) {
	start := dateOnly(day)
	var count int64
	err := scoped(db.Model(&entity.Appointment{}), scope).
		Where("appointment_date >= ? AND appointment_date < ?", start, start.AddDate(0, 0, 1)).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepository) CountUpcoming(db *gorm.DB, scope entity.AppointmentScope, now time.Time) (int64, error) {
	var count int64
	err := scoped(db.Model(&entity.Appointment{}), scope).
		Where("appointment_date > ? AND status IN ?", now, activeStatuses).
		Count(&count).Error
	return count, err
}

func scoped(query *gorm.DB, scope entity.AppointmentScope) *gorm.DB {
	if scope.PatientID != nil {
		query = query.Where("patient_id = ?", *scope.PatientID)
	}
	if scope.DoctorID != nil {
		query = query.Where("doctor_id = ?", *scope.DoctorID)
	}
	return query
}

// dateOnly truncates to local midnight so the date column compares
// cleanly regardless of the time-of-day carried by the input.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
