package usecase

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"hospital-appointment-server/internal/domain/entity"
	"hospital-appointment-server/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB returns a gorm handle backed by sqlmock. The fakes below
// never issue SQL themselves, so the mock only sees the transaction
// boundaries opened by the usecases.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mock.MatchExpectationsInOrder(false)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func newTestCacheService(t *testing.T) (*service.AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return service.NewAvailabilityCache(client, testLogger(), time.Minute), mr
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(db *gorm.DB, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByRoleAndID(db *gorm.DB, id uuid.UUID, roleID entity.RoleID) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok || u.RoleID != roleID {
		return nil, nil
	}
	return u, nil
}

func (r *fakeUserRepo) Search(db *gorm.DB, filter *entity.UserFilter) ([]entity.User, int64, error) {
	var matched []entity.User
	for _, u := range r.users {
		if filter.RoleID != nil && u.RoleID != *filter.RoleID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Email < matched[j].Email
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeUserRepo) CountByRole(db *gorm.DB, roleID entity.RoleID) (int64, error) {
	var count int64
	for _, u := range r.users {
		if u.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) Count(db *gorm.DB) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountCreatedSince(db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	for _, u := range r.users {
		if !u.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeRoleRepo struct{}

func (r *fakeRoleRepo) FindByName(db *gorm.DB, name string) (*entity.Role, error) {
	id, ok := entity.RoleIDByName(name)
	if !ok {
		return nil, nil
	}
	return &entity.Role{ID: id, RoleName: name}, nil
}

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*entity.Appointment
}

func newFakeAppointmentRepo(appointments ...*entity.Appointment) *fakeAppointmentRepo {
	repo := &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*entity.Appointment)}
	for _, a := range appointments {
		repo.appointments[a.ID] = a
	}
	return repo
}

func (r *fakeAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	stored := *appointment
	r.appointments[appointment.ID] = &stored
	return nil
}

func (r *fakeAppointmentRepo) Save(db *gorm.DB, appointment *entity.Appointment) error {
	stored := *appointment
	r.appointments[appointment.ID] = &stored
	return nil
}

func (r *fakeAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	found := *a
	return &found, nil
}

func (r *fakeAppointmentRepo) FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeLabel string) (*entity.Appointment, error) {
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && sameDay(a.AppointmentDate, date) && a.AppointmentTime == timeLabel && a.IsActive() {
			found := *a
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindActiveForDoctorDay(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	var matched []entity.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && sameDay(a.AppointmentDate, date) && a.IsActive() {
			matched = append(matched, *a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].AppointmentTime < matched[j].AppointmentTime
	})
	return matched, nil
}

func (r *fakeAppointmentRepo) FindMany(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	var matched []entity.Appointment
	for _, a := range r.appointments {
		if filter.Scope.PatientID != nil && a.PatientID != *filter.Scope.PatientID {
			continue
		}
		if filter.Scope.DoctorID != nil && a.DoctorID != *filter.Scope.DoctorID {
			continue
		}
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.Date != nil && !sameDay(a.AppointmentDate, *filter.Date) {
			continue
		}
		matched = append(matched, *a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AppointmentDate.Equal(matched[j].AppointmentDate) {
			return matched[i].AppointmentDate.Before(matched[j].AppointmentDate)
		}
		return matched[i].AppointmentTime < matched[j].AppointmentTime
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeAppointmentRepo) Count(db *gorm.DB, scope entity.AppointmentScope) (int64, error) {
	var count int64
	for _, a := range r.appointments {
		if scopeMatches(a, scope) {
			count++
		}
	}
	return count, nil
}

func (r *fakeAppointmentRepo) CountByStatus(db *gorm.DB, scope entity.AppointmentScope) ([]entity.StatusCount, error) {
	byStatus := make(map[entity.AppointmentStatus]int64)
	for _, a := range r.appointments {
		if scopeMatches(a, scope) {
			byStatus[a.Status]++
		}
	}
	var counts []entity.StatusCount
	for status, count := range byStatus {
		counts = append(counts, entity.StatusCount{Status: status, Count: count})
	}
	return counts, nil
}

func (r *fakeAppointmentRepo) CountOnDay(db *gorm.DB, scope entity.AppointmentScope, day time.Time) (int64, error) {
	var count int64
	for _, a := range r.appointments {
		if scopeMatches(a, scope) && sameDay(a.AppointmentDate, day) {
			count++
		}
	}
	return count, nil
}

func (r *fakeAppointmentRepo) CountUpcoming(db *gorm.DB, scope entity.AppointmentScope, now time.Time) (int64, error) {
	var count int64
	for _, a := range r.appointments {
		if scopeMatches(a, scope) && a.AppointmentDate.After(now) && a.IsActive() {
			count++
		}
	}
	return count, nil
}

func scopeMatches(a *entity.Appointment, scope entity.AppointmentScope) bool {
	if scope.PatientID != nil && a.PatientID != *scope.PatientID {
		return false
	}
	if scope.DoctorID != nil && a.DoctorID != *scope.DoctorID {
		return false
	}
	return true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

type recordedAudit struct {
	action   string
	entity   string
	entityID string
}

type fakeAuditService struct {
	entries []recordedAudit
}

func (s *fakeAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	s.entries = append(s.entries, recordedAudit{action: action, entity: entityName, entityID: entityID})
	return nil
}

func (s *fakeAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	s.entries = append(s.entries, recordedAudit{action: action, entity: entityName, entityID: entityID})
	return nil
}
