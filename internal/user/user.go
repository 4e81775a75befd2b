package user

import (
	"time"

	"github.com/opexhub/expense-approval/internal"
)

// Role is the closed set of roles a user can hold. Access decisions branch on
// this enum, never on raw strings from the request.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// CanApprove reports whether the role is allowed to act on approvals
// assigned to it and to browse company-wide expenses.
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	Role         Role      `json:"role" gorm:"not null"`
	CompanyID    int64     `json:"company_id" gorm:"column:company_id;not null"`
	ManagerID    *int64    `json:"manager_id,omitempty" gorm:"column:manager_id"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsManager() bool {
	return u.Role.CanApprove()
}

func (u *User) HasManager() bool {
	return u.ManagerID != nil
}

// Domain errors
var (
	ErrNotFound       = internal.ErrUserNotFound
	ErrDuplicateEmail = internal.ErrDuplicateEmail
)
