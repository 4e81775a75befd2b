package user

import (
	"crypto/rand"
	"log/slog"
	"math/big"

	"github.com/opexhub/expense-approval/internal"
	"golang.org/x/crypto/bcrypt"
)

// Repository defines the data access methods for users.
type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	ListByCompany(companyID int64) ([]*User, error)
	ListManagers(companyID int64) ([]*User, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateUser provisions a user inside the actor's company. Only admins may
// call this; employees must point at a manager in the same company.
func (s *Service) CreateUser(actor *User, dto CreateUserDTO) (*CreatedUserResponse, error) {
	if !actor.IsAdmin() {
		s.logger.Warn("create user denied: not an admin", "actor_id", actor.ID)
		return nil, internal.ErrUnauthorizedAccess
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}

	if dto.ManagerID != nil {
		manager, err := s.repo.GetByID(*dto.ManagerID)
		if err != nil {
			return nil, internal.NewValidationFieldError("manager_id", "manager does not exist", internal.ErrCodeValidationFailed)
		}
		if manager.CompanyID != actor.CompanyID {
			return nil, internal.NewValidationFieldError("manager_id", "manager must belong to the same company", internal.ErrCodeValidationFailed)
		}
		if !manager.Role.CanApprove() {
			return nil, internal.NewValidationFieldError("manager_id", "manager must hold the manager or admin role", internal.ErrCodeValidationFailed)
		}
	}

	password := dto.Password
	generated := ""
	if password == "" {
		var err error
		password, err = generatePassword(10)
		if err != nil {
			return nil, internal.NewInternalError("failed to generate password", err)
		}
		generated = password
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		Role:         dto.Role,
		CompanyID:    actor.CompanyID,
		ManagerID:    dto.ManagerID,
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("user created",
		"user_id", u.ID,
		"role", u.Role,
		"company_id", u.CompanyID,
		"created_by", actor.ID)

	return &CreatedUserResponse{User: u, InitialPassword: generated}, nil
}

// CreateAdmin bootstraps the first admin of a freshly signed-up company.
func (s *Service) CreateAdmin(companyID int64, name, email, password string) (*User, error) {
	if existing, err := s.repo.GetByEmail(email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		CompanyID:    companyID,
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(email string) (*User, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) ListUsers(actor *User) ([]*User, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.ListByCompany(actor.CompanyID)
}

// ListManagers returns potential approvers (managers and admins) for the
// actor's company, used by approver pickers and manager assignment.
func (s *Service) ListManagers(actor *User) ([]*ManagerResponse, error) {
	managers, err := s.repo.ListManagers(actor.CompanyID)
	if err != nil {
		return nil, err
	}

	out := make([]*ManagerResponse, len(managers))
	for i, m := range managers {
		out[i] = &ManagerResponse{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	return out, nil
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
