package usecase

import (
	"context"
	"errors"
	"time"

	"hospital-appointment-server/internal/converter"
	"hospital-appointment-server/internal/delivery/dto"
	"hospital-appointment-server/internal/delivery/http/middleware"
	"hospital-appointment-server/internal/domain/entity"
	"hospital-appointment-server/internal/domain/repository"
	"hospital-appointment-server/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound      = errors.New("appointment not found")
	ErrDoctorNotFound           = errors.New("doctor not found")
	ErrPatientOnly              = errors.New("only patients can book appointments")
	ErrPastAppointmentDate      = errors.New("appointment date must be in the future")
	ErrInvalidDateFormat        = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeLabel         = errors.New("appointment time must be in HH:MM format")
	ErrSlotUnavailable          = errors.New("doctor is not available at this time")
	ErrNotParticipant           = errors.New("access denied")
	ErrTransitionNotPermitted   = errors.New("you do not have permission for this status change")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrCancellationWindowClosed = errors.New("cannot cancel appointment less than 2 hours before scheduled time")
)

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointments(ctx context.Context, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) error
	GetAppointmentStats(ctx context.Context) (*dto.AppointmentStatsResponse, error)
}

type appointmentUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	appointmentRepo   repository.AppointmentRepository
	userRepo          repository.UserRepository
	auditService      service.AuditService
	availabilityCache *service.AvailabilityCache
	now               func() time.Time
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
	availabilityCache *service.AvailabilityCache,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:                db,
		log:               log,
		appointmentRepo:   appointmentRepo,
		userRepo:          userRepo,
		auditService:      auditService,
		availabilityCache: availabilityCache,
		now:               time.Now,
	}
}

// CreateAppointment validates and persists a new booking.
//
// Preconditions are checked in order, first failure wins:
// doctor exists, requester is a patient, date is in the future, time
// label is well-formed, slot is free among active appointments. The
// slot check and the insert run inside one transaction, and a Redis
// slot hold serializes concurrent admissions for the same slot across
// processes before the transaction starts.
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	doctor, err := u.userRepo.FindByRoleAndID(u.db.WithContext(ctx), req.DoctorID, entity.RoleIDDoctor)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	requester, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find requester %s: %+v", userID, err)
		return nil, err
	}
	if requester == nil || !requester.IsPatient() {
		return nil, ErrPatientOnly
	}

	appointmentDate, err := time.ParseInLocation("2006-01-02", req.AppointmentDate, time.Local)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if !appointmentDate.After(u.now()) {
		return nil, ErrPastAppointmentDate
	}

	if !entity.IsValidTimeLabel(req.AppointmentTime) {
		return nil, ErrInvalidTimeLabel
	}

	// Serialize concurrent admissions for this slot. Redis being down
	// degrades to the transaction-level check alone.
	holdToken := uuid.New().String()
	held, err := u.availabilityCache.HoldSlot(ctx, req.DoctorID, appointmentDate, req.AppointmentTime, holdToken)
	if err != nil {
		u.log.Warnf("Slot hold unavailable for doctor %s at %s %s: %+v", req.DoctorID, req.AppointmentDate, req.AppointmentTime, err)
	} else if !held {
		return nil, ErrSlotUnavailable
	} else {
		defer u.availabilityCache.ReleaseSlot(ctx, req.DoctorID, appointmentDate, req.AppointmentTime, holdToken)
	}

	appointment := &entity.Appointment{
		PatientID:       userID,
		DoctorID:        req.DoctorID,
		AppointmentDate: appointmentDate,
		AppointmentTime: req.AppointmentTime,
		Status:          entity.AppointmentStatusPending,
		Priority:        entity.AppointmentPriorityMedium,
		Reason:          req.Reason,
		Symptoms:        entity.StringList(req.Symptoms),
		Duration:        entity.DefaultAppointmentDuration,
		Notes:           req.Notes,
	}
	if req.Duration != 0 {
		appointment.Duration = req.Duration
	}
	if req.Priority != "" {
		appointment.Priority = entity.AppointmentPriority(req.Priority)
	}
	if appointment.Symptoms == nil {
		appointment.Symptoms = entity.StringList{}
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.appointmentRepo.FindActiveBySlot(tx, req.DoctorID, appointmentDate, req.AppointmentTime)
	if err != nil {
		u.log.Warnf("Failed to check slot for doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotUnavailable
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &userID, entity.AuditActionAppointmentCreate, "appointment", appointment.ID.String(), map[string]interface{}{
		"doctor_id":        req.DoctorID.String(),
		"appointment_date": req.AppointmentDate,
		"appointment_time": req.AppointmentTime,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.availabilityCache.InvalidateDay(ctx, req.DoctorID, appointmentDate)

	u.log.Infof("Appointment created: id=%s, doctor=%s, date=%s, time=%s", appointment.ID, req.DoctorID, req.AppointmentDate, req.AppointmentTime)

	// Reload with participant info for the response
	full, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}
	return converter.AppointmentToResponse(full), nil
}

// GetAppointments lists appointments visible to the requester, with
// optional filters, pagination and sorting.
func (u *appointmentUsecase) GetAppointments(ctx context.Context, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error) {
	scope, err := requesterScope(ctx)
	if err != nil {
		return nil, err
	}

	filter := &entity.AppointmentFilter{
		Scope:     scope,
		Status:    query.Status,
		DoctorID:  query.DoctorID,
		PatientID: query.PatientID,
		Page:      query.Page,
		Limit:     query.Limit,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", query.Date, time.Local)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		filter.Date = &date
	}

	appointments, total, err := u.appointmentRepo.FindMany(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
		Page:         query.Page,
		Limit:        query.Limit,
	}, nil
}

// GetAppointment returns a single appointment. Patients and doctors may
// only see their own; admins may see any.
func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	requester, err := requesterFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	switch requester.roleID {
	case entity.RoleIDPatient:
		if appointment.PatientID != requester.userID {
			return nil, ErrNotParticipant
		}
	case entity.RoleIDDoctor:
		if appointment.DoctorID != requester.userID {
			return nil, ErrNotParticipant
		}
	case entity.RoleIDAdmin:
		// unrestricted
	default:
		return nil, ErrNotParticipant
	}

	return converter.AppointmentToResponse(appointment), nil
}

// UpdateAppointmentStatus drives the appointment state machine:
// pending→confirmed and confirmed→completed by the assigned doctor,
// pending|confirmed→cancelled by the assigned doctor any time or by
// the assigned patient while the cancellation window is open. Terminal
// states are frozen.
func (u *appointmentUsecase) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	requester, err := requesterFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	target := entity.AppointmentStatus(req.Status)

	switch requester.roleID {
	case entity.RoleIDDoctor:
		if appointment.DoctorID != requester.userID {
			return nil, ErrNotParticipant
		}
	case entity.RoleIDPatient:
		if appointment.PatientID != requester.userID {
			return nil, ErrNotParticipant
		}
		if target != entity.AppointmentStatusCancelled {
			return nil, ErrTransitionNotPermitted
		}
	default:
		return nil, ErrNotParticipant
	}

	if !entity.TransitionAllowed(appointment.Status, target) {
		return nil, ErrInvalidStatusTransition
	}
	if target == entity.AppointmentStatusCancelled &&
		requester.roleID == entity.RoleIDPatient &&
		!appointment.CanBeCancelledAt(u.now()) {
		return nil, ErrCancellationWindowClosed
	}

	oldStatus := appointment.Status
	appointment.Status = target
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}

	if err := u.applyTransition(ctx, appointment, requester.userID, oldStatus); err != nil {
		return nil, err
	}

	full, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", id, err)
		return converter.AppointmentToResponse(appointment), nil
	}
	return converter.AppointmentToResponse(full), nil
}

// CancelAppointment cancels an active appointment on behalf of either
// assigned participant. The 2-hour cutoff applies to the patient only;
// the cancellation reason is recorded in the notes.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) error {
	requester, err := requesterFromContext(ctx)
	if err != nil {
		return err
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	switch requester.roleID {
	case entity.RoleIDDoctor:
		if appointment.DoctorID != requester.userID {
			return ErrNotParticipant
		}
	case entity.RoleIDPatient:
		if appointment.PatientID != requester.userID {
			return ErrNotParticipant
		}
	default:
		return ErrNotParticipant
	}

	if !entity.TransitionAllowed(appointment.Status, entity.AppointmentStatusCancelled) {
		return ErrInvalidStatusTransition
	}
	if requester.roleID == entity.RoleIDPatient && !appointment.CanBeCancelledAt(u.now()) {
		return ErrCancellationWindowClosed
	}

	oldStatus := appointment.Status
	appointment.Status = entity.AppointmentStatusCancelled
	if req.Reason != "" {
		appointment.Notes = "Cancelled: " + req.Reason
	}

	return u.applyTransition(ctx, appointment, requester.userID, oldStatus)
}

// GetAppointmentStats aggregates counts over the requester's visible
// scope: total, today, upcoming and a per-status breakdown.
func (u *appointmentUsecase) GetAppointmentStats(ctx context.Context) (*dto.AppointmentStatsResponse, error) {
	scope, err := requesterScope(ctx)
	if err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)
	now := u.now()

	total, err := u.appointmentRepo.Count(db, scope)
	if err != nil {
		u.log.Warnf("Failed to count appointments: %+v", err)
		return nil, err
	}

	today, err := u.appointmentRepo.CountOnDay(db, scope, now)
	if err != nil {
		u.log.Warnf("Failed to count today's appointments: %+v", err)
		return nil, err
	}

	upcoming, err := u.appointmentRepo.CountUpcoming(db, scope, now)
	if err != nil {
		u.log.Warnf("Failed to count upcoming appointments: %+v", err)
		return nil, err
	}

	counts, err := u.appointmentRepo.CountByStatus(db, scope)
	if err != nil {
		u.log.Warnf("Failed to count appointments by status: %+v", err)
		return nil, err
	}

	byStatus := make(map[string]int64, len(counts))
	for _, c := range counts {
		byStatus[string(c.Status)] = c.Count
	}

	return &dto.AppointmentStatsResponse{
		Total:    total,
		Today:    today,
		Upcoming: upcoming,
		ByStatus: byStatus,
	}, nil
}

// applyTransition persists a status change with its audit entry and
// invalidates the availability cache for the affected day.
func (u *appointmentUsecase) applyTransition(ctx context.Context, appointment *entity.Appointment, actorID uuid.UUID, oldStatus entity.AppointmentStatus) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.Save(tx, appointment); err != nil {
		u.log.Warnf("Failed to update appointment %s: %+v", appointment.ID, err)
		return err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &actorID, auditActionForStatus(appointment.Status), "appointment", appointment.ID.String(),
		map[string]interface{}{"status": string(oldStatus)},
		map[string]interface{}{"status": string(appointment.Status)},
	); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	u.availabilityCache.InvalidateDay(ctx, appointment.DoctorID, appointment.AppointmentDate)

	u.log.Infof("Appointment %s: %s -> %s", appointment.ID, oldStatus, appointment.Status)
	return nil
}

func auditActionForStatus(status entity.AppointmentStatus) string {
	switch status {
	case entity.AppointmentStatusConfirmed:
		return entity.AuditActionAppointmentConfirm
	case entity.AppointmentStatusCompleted:
		return entity.AuditActionAppointmentComplete
	default:
		return entity.AuditActionAppointmentCancel
	}
}

// requesterIdentity is the authenticated caller as seen by usecases
type requesterIdentity struct {
	userID uuid.UUID
	roleID entity.RoleID
}

func requesterFromContext(ctx context.Context) (*requesterIdentity, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, ok := middleware.GetRoleIDFromContext(ctx)
	if !ok {
		return nil, errors.New("role not found in context")
	}
	return &requesterIdentity{userID: userID, roleID: roleID}, nil
}

// requesterScope maps the requester role onto the visible appointment
// scope: patients and doctors see their own records, admins see all.
func requesterScope(ctx context.Context) (entity.AppointmentScope, error) {
	requester, err := requesterFromContext(ctx)
	if err != nil {
		return entity.AppointmentScope{}, err
	}

	switch requester.roleID {
	case entity.RoleIDPatient:
		return entity.AppointmentScope{PatientID: &requester.userID}, nil
	case entity.RoleIDDoctor:
		return entity.AppointmentScope{DoctorID: &requester.userID}, nil
	case entity.RoleIDAdmin:
		return entity.AppointmentScope{}, nil
	default:
		return entity.AppointmentScope{}, ErrNotParticipant
	}
}
