package company

import (
	"strings"

	"github.com/opexhub/expense-approval/internal"
)

// SignupDTO creates a company together with its first admin user.
type SignupDTO struct {
	CompanyName   string `json:"company_name"`
	Country       string `json:"country"`
	AdminName     string `json:"admin_name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

func (dto SignupDTO) Validate() error {
	if strings.TrimSpace(dto.CompanyName) == "" {
		return internal.NewValidationFieldError("company_name", "company name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.AdminName) == "" {
		return internal.NewValidationFieldError("admin_name", "admin name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.AdminEmail) == "" || !strings.Contains(dto.AdminEmail, "@") {
		return internal.NewValidationFieldError("admin_email", "a valid admin email is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.AdminPassword) < 8 {
		return internal.NewValidationFieldError("admin_password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type SignupResponse struct {
	CompanyID    int64  `json:"company_id"`
	BaseCurrency string `json:"base_currency"`
	AdminUserID  int64  `json:"admin_user_id"`
}
