package usecase

import (
	"context"
	"testing"
	"time"

	"hospital-appointment-server/internal/delivery/dto"
	"hospital-appointment-server/internal/delivery/http/middleware"
	"hospital-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

func authedContext(userID uuid.UUID, roleID entity.RoleID) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.RoleIDKey, roleID)
	ctx = context.WithValue(ctx, middleware.TokenIDKey, "test-token")
	return ctx
}

func testDoctor() *entity.User {
	return &entity.User{
		ID:             uuid.New(),
		RoleID:         entity.RoleIDDoctor,
		Email:          "doctor@hospital.test",
		FullName:       "Dr. Gregory House",
		Specialization: "Diagnostics",
	}
}

func testPatient() *entity.User {
	return &entity.User{
		ID:       uuid.New(),
		RoleID:   entity.RoleIDPatient,
		Email:    "patient@hospital.test",
		FullName: "John Smith",
	}
}

type appointmentTestEnv struct {
	uc              *appointmentUsecase
	appointmentRepo *fakeAppointmentRepo
	userRepo        *fakeUserRepo
	audit           *fakeAuditService
	doctor          *entity.User
	patient         *entity.User
}

func newAppointmentTestEnv(t *testing.T, appointments ...*entity.Appointment) *appointmentTestEnv {
	t.Helper()

	db, mock := newTestDB(t)
	// Transaction boundaries only; the fakes never touch SQL. Extra
	// expectations stay unconsumed, which sqlmock tolerates as long as
	// ExpectationsWereMet is not asserted.
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	cache, _ := newTestCacheService(t)
	doctor := testDoctor()
	patient := testPatient()
	userRepo := newFakeUserRepo(doctor, patient)
	appointmentRepo := newFakeAppointmentRepo(appointments...)
	audit := &fakeAuditService{}

	uc := NewAppointmentUsecase(db, testLogger(), appointmentRepo, userRepo, audit, cache).(*appointmentUsecase)
	uc.now = func() time.Time { return testNow }

	return &appointmentTestEnv{
		uc:              uc,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		audit:           audit,
		doctor:          doctor,
		patient:         patient,
	}
}

func TestCreateAppointmentDefaults(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	resp, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:00",
		Reason:          "Persistent headache",
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "medium", resp.Priority)
	assert.Equal(t, 30, resp.Duration)
	assert.Equal(t, "2026-03-15", resp.AppointmentDate)
	assert.Equal(t, "10:00", resp.AppointmentTime)

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, entity.AuditActionAppointmentCreate, env.audit.entries[0].action)
}

func TestCreateAppointmentExplicitFields(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	resp, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:30",
		Reason:          "Follow-up",
		Symptoms:        []string{"fever", "cough"},
		Duration:        60,
		Priority:        "urgent",
		Notes:           "Bring previous scans",
	})
	require.NoError(t, err)

	assert.Equal(t, "urgent", resp.Priority)
	assert.Equal(t, 60, resp.Duration)
	assert.Equal(t, []string{"fever", "cough"}, resp.Symptoms)
}

func TestCreateAppointmentDoctorNotFound(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	_, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        uuid.New(),
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:00",
		Reason:          "Checkup",
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestCreateAppointmentPatientOnly(t *testing.T) {
	env := newAppointmentTestEnv(t)
	// A doctor trying to book with another doctor
	ctx := authedContext(env.doctor.ID, entity.RoleIDDoctor)

	_, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:00",
		Reason:          "Checkup",
	})
	assert.ErrorIs(t, err, ErrPatientOnly)
}

func TestCreateAppointmentPastDate(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	_, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-01",
		AppointmentTime: "10:00",
		Reason:          "Checkup",
	})
	assert.ErrorIs(t, err, ErrPastAppointmentDate)
}

func TestCreateAppointmentBadDate(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	_, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "15-03-2026",
		AppointmentTime: "10:00",
		Reason:          "Checkup",
	})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestCreateAppointmentBadTimeLabel(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	_, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "25:99",
		Reason:          "Checkup",
	})
	assert.ErrorIs(t, err, ErrInvalidTimeLabel)
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	first, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:00",
		Reason:          "Checkup",
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:00",
		Reason:          "Checkup too",
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateAppointmentCancelledSlotReusable(t *testing.T) {
	doctorID := uuid.New()
	cancelled := &entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusCancelled,
	}

	env := newAppointmentTestEnv(t, cancelled)
	cancelled.DoctorID = env.doctor.ID
	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)

	_, err := env.uc.CreateAppointment(ctx, &dto.CreateAppointmentRequest{
		DoctorID:        env.doctor.ID,
		AppointmentDate: "2026-03-15",
		AppointmentTime: "10:00",
		Reason:          "Checkup",
	})
	assert.NoError(t, err)
}

func TestUpdateStatusDoctorConfirms(t *testing.T) {
	env := newAppointmentTestEnv(t)
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.doctor.ID, entity.RoleIDDoctor)
	resp, err := env.uc.UpdateAppointmentStatus(ctx, appointment.ID, &dto.UpdateAppointmentStatusRequest{Status: "confirmed"})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", resp.Status)
	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, entity.AuditActionAppointmentConfirm, env.audit.entries[0].action)
}

func TestUpdateStatusPendingToCompletedRejected(t *testing.T) {
	env := newAppointmentTestEnv(t)
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.doctor.ID, entity.RoleIDDoctor)
	_, err := env.uc.UpdateAppointmentStatus(ctx, appointment.ID, &dto.UpdateAppointmentStatusRequest{Status: "completed"})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateStatusPatientCannotConfirm(t *testing.T) {
	env := newAppointmentTestEnv(t)
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)
	_, err := env.uc.UpdateAppointmentStatus(ctx, appointment.ID, &dto.UpdateAppointmentStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)
}

func TestUpdateStatusForeignDoctorRejected(t *testing.T) {
	env := newAppointmentTestEnv(t)
	otherDoctor := testDoctor()
	otherDoctor.ID = uuid.New()
	require.NoError(t, env.userRepo.Create(nil, otherDoctor))

	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(otherDoctor.ID, entity.RoleIDDoctor)
	_, err := env.uc.UpdateAppointmentStatus(ctx, appointment.ID, &dto.UpdateAppointmentStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestCancelPatientWithinWindow(t *testing.T) {
	env := newAppointmentTestEnv(t)
	// Starts 3 hours after testNow
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local),
		AppointmentTime: "15:00",
		Status:          entity.AppointmentStatusConfirmed,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)
	err := env.uc.CancelAppointment(ctx, appointment.ID, &dto.CancelAppointmentRequest{Reason: "feeling better"})
	require.NoError(t, err)

	stored, _ := env.appointmentRepo.FindByID(nil, appointment.ID)
	assert.Equal(t, entity.AppointmentStatusCancelled, stored.Status)
	assert.Equal(t, "Cancelled: feeling better", stored.Notes)
	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, entity.AuditActionAppointmentCancel, env.audit.entries[0].action)
}

func TestCancelPatientTooLate(t *testing.T) {
	env := newAppointmentTestEnv(t)
	// Starts 1 hour after testNow
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local),
		AppointmentTime: "13:00",
		Status:          entity.AppointmentStatusConfirmed,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.patient.ID, entity.RoleIDPatient)
	err := env.uc.CancelAppointment(ctx, appointment.ID, &dto.CancelAppointmentRequest{})
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)
}

func TestCancelDoctorIgnoresCutoff(t *testing.T) {
	env := newAppointmentTestEnv(t)
	// Starts 1 hour after testNow, doctor cancels anyway
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local),
		AppointmentTime: "13:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.doctor.ID, entity.RoleIDDoctor)
	err := env.uc.CancelAppointment(ctx, appointment.ID, &dto.CancelAppointmentRequest{})
	assert.NoError(t, err)
}

func TestCancelTerminalAppointment(t *testing.T) {
	env := newAppointmentTestEnv(t)
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusCompleted,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	ctx := authedContext(env.doctor.ID, entity.RoleIDDoctor)
	err := env.uc.CancelAppointment(ctx, appointment.ID, &dto.CancelAppointmentRequest{})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestGetAppointmentAccessControl(t *testing.T) {
	env := newAppointmentTestEnv(t)
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, appointment))

	// Assigned patient sees it
	_, err := env.uc.GetAppointment(authedContext(env.patient.ID, entity.RoleIDPatient), appointment.ID)
	assert.NoError(t, err)

	// A stranger patient does not
	_, err = env.uc.GetAppointment(authedContext(uuid.New(), entity.RoleIDPatient), appointment.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	// Admin sees everything
	_, err = env.uc.GetAppointment(authedContext(uuid.New(), entity.RoleIDAdmin), appointment.ID)
	assert.NoError(t, err)

	// Unknown id
	_, err = env.uc.GetAppointment(authedContext(env.patient.ID, entity.RoleIDPatient), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestGetAppointmentsScoping(t *testing.T) {
	env := newAppointmentTestEnv(t)
	otherPatientID := uuid.New()

	mine := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	theirs := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       otherPatientID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
		AppointmentTime: "11:00",
		Status:          entity.AppointmentStatusPending,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, mine))
	require.NoError(t, env.appointmentRepo.Create(nil, theirs))

	// Patient sees only their own
	resp, err := env.uc.GetAppointments(authedContext(env.patient.ID, entity.RoleIDPatient), &dto.AppointmentListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)

	// Doctor sees both
	resp, err = env.uc.GetAppointments(authedContext(env.doctor.ID, entity.RoleIDDoctor), &dto.AppointmentListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)

	// Admin sees both, and can narrow by status
	resp, err = env.uc.GetAppointments(authedContext(uuid.New(), entity.RoleIDAdmin), &dto.AppointmentListQuery{Status: "pending", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)
}

func TestGetAppointmentStats(t *testing.T) {
	env := newAppointmentTestEnv(t)

	today := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local),
		AppointmentTime: "15:00",
		Status:          entity.AppointmentStatusConfirmed,
	}
	upcoming := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 20, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusPending,
	}
	done := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       env.patient.ID,
		DoctorID:        env.doctor.ID,
		AppointmentDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local),
		AppointmentTime: "10:00",
		Status:          entity.AppointmentStatusCompleted,
	}
	require.NoError(t, env.appointmentRepo.Create(nil, today))
	require.NoError(t, env.appointmentRepo.Create(nil, upcoming))
	require.NoError(t, env.appointmentRepo.Create(nil, done))

	stats, err := env.uc.GetAppointmentStats(authedContext(env.patient.ID, entity.RoleIDPatient))
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.Today)
	assert.EqualValues(t, 1, stats.Upcoming)
	assert.EqualValues(t, 1, stats.ByStatus["pending"])
	assert.EqualValues(t, 1, stats.ByStatus["confirmed"])
	assert.EqualValues(t, 1, stats.ByStatus["completed"])
}
