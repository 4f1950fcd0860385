package usecase

import (
	"context"
	"time"

	"hospital-appointment-server/internal/delivery/dto"
	"hospital-appointment-server/internal/domain/entity"
	"hospital-appointment-server/internal/domain/repository"
	"hospital-appointment-server/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AvailabilityUsecase interface {
	GetDoctorAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityResponse, error)
}

type availabilityUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	appointmentRepo   repository.AppointmentRepository
	userRepo          repository.UserRepository
	availabilityCache *service.AvailabilityCache
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	availabilityCache *service.AvailabilityCache,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:                db,
		log:               log,
		appointmentRepo:   appointmentRepo,
		userRepo:          userRepo,
		availabilityCache: availabilityCache,
	}
}

// GetDoctorAvailability partitions the working-hour slot grid for one
// doctor and day into available and booked labels. Booked labels are
// served cache-aside from Redis; a miss falls through to the active
// appointments for that day.
func (u *availabilityUsecase) GetDoctorAvailability(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityResponse, error) {
	doctor, err := u.userRepo.FindByRoleAndID(u.db.WithContext(ctx), doctorID, entity.RoleIDDoctor)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	booked, ok := u.availabilityCache.GetBookedSlots(ctx, doctorID, day)
	if !ok {
		appointments, err := u.appointmentRepo.FindActiveForDoctorDay(u.db.WithContext(ctx), doctorID, day)
		if err != nil {
			u.log.Warnf("Failed to load appointments for doctor %s on %s: %+v", doctorID, date, err)
			return nil, err
		}
		booked = make([]string, 0, len(appointments))
		for _, a := range appointments {
			booked = append(booked, a.AppointmentTime)
		}
		u.availabilityCache.SetBookedSlots(ctx, doctorID, day, booked)
	}

	bookedSet := make(map[string]struct{}, len(booked))
	for _, label := range booked {
		bookedSet[label] = struct{}{}
	}

	grid := entity.WorkingHourSlots()
	available := make([]string, 0, len(grid))
	for _, label := range grid {
		if _, taken := bookedSet[label]; !taken {
			available = append(available, label)
		}
	}

	return &dto.AvailabilityResponse{
		Doctor: dto.AvailabilityDoctorResponse{
			ID:             doctor.ID,
			FullName:       doctor.FullName,
			Specialization: doctor.Specialization,
		},
		Date:           day.Format("2006-01-02"),
		AvailableTimes: available,
		BookedTimes:    booked,
	}, nil
}
