package repository

import (
	"time"

	"hospital-appointment-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *entity.User) error
	FindByEmail(db *gorm.DB, email string) (*entity.User, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
	FindByRoleAndID(db *gorm.DB, id uuid.UUID, roleID entity.RoleID) (*entity.User, error)
	Search(db *gorm.DB, filter *entity.UserFilter) ([]entity.User, int64, error)
	CountByRole(db *gorm.DB, roleID entity.RoleID) (int64, error)
	Count(db *gorm.DB) (int64, error)
	CountCreatedSince(db *gorm.DB, since time.Time) (int64, error)
}
