package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents a person known to the system: admins, doctors and
// patients share one table, distinguished by RoleID. Doctors carry a
// specialization, everyone else leaves it empty.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID         RoleID    `gorm:"not null;index" json:"role_id"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"type:text;not null" json:"-"`
	FullName       string    `gorm:"type:varchar(255);not null" json:"full_name"`
	PhoneNumber    string    `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	Specialization string    `gorm:"type:varchar(100);index" json:"specialization,omitempty"`
	IsActive       *bool     `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsDoctor checks if the user holds the doctor role
func (u *User) IsDoctor() bool {
	return u.RoleID == RoleIDDoctor
}

// IsPatient checks if the user holds the patient role
func (u *User) IsPatient() bool {
	return u.RoleID == RoleIDPatient
}
