package usecase

import (
	"context"
	"errors"
	"time"

	"hospital-appointment-server/internal/converter"
	"hospital-appointment-server/internal/delivery/dto"
	"hospital-appointment-server/internal/domain/entity"
	"hospital-appointment-server/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnknownRole  = errors.New("unknown role")
)

// newUserWindow bounds the "new users" statistic
const newUserWindow = 30 * 24 * time.Hour

type UserUsecase interface {
	GetUsers(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error)
	GetDoctors(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error)
	GetPatients(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	GetUserStats(ctx context.Context) (*dto.UserStatsResponse, error)
}

type userUsecase struct {
	db       *gorm.DB
	log      *logrus.Logger
	userRepo repository.UserRepository
}

func NewUserUsecase(db *gorm.DB, log *logrus.Logger, userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{
		db:       db,
		log:      log,
		userRepo: userRepo,
	}
}

func (u *userUsecase) GetUsers(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error) {
	var roleID *entity.RoleID
	if query.Role != "" {
		id, ok := entity.RoleIDByName(query.Role)
		if !ok {
			return nil, ErrUnknownRole
		}
		roleID = &id
	}
	return u.list(ctx, query, roleID)
}

func (u *userUsecase) GetDoctors(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error) {
	roleID := entity.RoleIDDoctor
	return u.list(ctx, query, &roleID)
}

func (u *userUsecase) GetPatients(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error) {
	roleID := entity.RoleIDPatient
	return u.list(ctx, query, &roleID)
}

func (u *userUsecase) list(ctx context.Context, query *dto.UserListQuery, roleID *entity.RoleID) (*dto.UserListResponse, error) {
	filter := &entity.UserFilter{
		RoleID: roleID,
		Search: query.Search,
		Page:   query.Page,
		Limit:  query.Limit,
	}

	users, total, err := u.userRepo.Search(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to search users: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(users),
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	}, nil
}

func (u *userUsecase) GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", id, err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

// GetUserStats aggregates account counts: totals per role plus accounts
// created in the last 30 days.
func (u *userUsecase) GetUserStats(ctx context.Context) (*dto.UserStatsResponse, error) {
	db := u.db.WithContext(ctx)

	total, err := u.userRepo.Count(db)
	if err != nil {
		u.log.Warnf("Failed to count users: %+v", err)
		return nil, err
	}

	doctors, err := u.userRepo.CountByRole(db, entity.RoleIDDoctor)
	if err != nil {
		u.log.Warnf("Failed to count doctors: %+v", err)
		return nil, err
	}

	patients, err := u.userRepo.CountByRole(db, entity.RoleIDPatient)
	if err != nil {
		u.log.Warnf("Failed to count patients: %+v", err)
		return nil, err
	}

	newUsers, err := u.userRepo.CountCreatedSince(db, time.Now().Add(-newUserWindow))
	if err != nil {
		u.log.Warnf("Failed to count new users: %+v", err)
		return nil, err
	}

	return &dto.UserStatsResponse{
		TotalUsers:    total,
		TotalDoctors:  doctors,
		TotalPatients: patients,
		NewUsers:      newUsers,
	}, nil
}
