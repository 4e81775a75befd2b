package user

import (
	"strings"

	"github.com/opexhub/expense-approval/internal"
)

// CreateUserDTO is the admin-facing payload for provisioning a user. When
// Password is empty the service generates an initial one and returns it once.
type CreateUserDTO struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	ManagerID *int64 `json:"manager_id,omitempty"`
	Password  string `json:"password,omitempty"`
}

func (dto CreateUserDTO) Validate() error {
	if strings.TrimSpace(dto.Email) == "" || !strings.Contains(dto.Email, "@") {
		return internal.NewValidationFieldError("email", "a valid email is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Name) == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if !dto.Role.Valid() {
		return internal.NewValidationFieldError("role", "role must be admin, manager or employee", internal.ErrCodeInvalidRole)
	}
	if dto.Role == RoleEmployee && dto.ManagerID == nil {
		return internal.NewValidationFieldError("manager_id", "employees need a manager for fallback approval", internal.ErrCodeValidationFailed)
	}
	return nil
}

// CreatedUserResponse echoes the generated password exactly once.
type CreatedUserResponse struct {
	User            *User  `json:"user"`
	InitialPassword string `json:"initial_password,omitempty"`
}

// ManagerResponse is the trimmed shape used by approver pickers.
type ManagerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
