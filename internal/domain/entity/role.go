package entity

// Role represents a user role in the system
type Role struct {
	ID          RoleID `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleID is a tagged role identifier. Authorization code switches on it
// exhaustively instead of comparing role name strings.
type RoleID int

const (
	RoleIDAdmin   RoleID = 1
	RoleIDDoctor  RoleID = 2
	RoleIDPatient RoleID = 3
)

// RoleNames constants
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// RoleIDByName maps a role name to its RoleID. The second return value
// is false for unknown names.
func RoleIDByName(name string) (RoleID, bool) {
	switch name {
	case RoleAdmin:
		return RoleIDAdmin, true
	case RoleDoctor:
		return RoleIDDoctor, true
	case RolePatient:
		return RoleIDPatient, true
	default:
		return 0, false
	}
}
