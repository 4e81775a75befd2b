package company

import (
	"context"
	"log/slog"

	"github.com/opexhub/expense-approval/internal"
	"github.com/opexhub/expense-approval/internal/user"
)

// Repository defines the data access methods for companies.
type Repository interface {
	Create(c *Company) error
	GetByID(id int64) (*Company, error)
}

// AdminCreator bootstraps the first admin user of a company.
type AdminCreator interface {
	CreateAdmin(companyID int64, name, email, password string) (*user.User, error)
}

// CurrencyLookup resolves a country name to its currency code.
type CurrencyLookup interface {
	CurrencyForCountry(ctx context.Context, country string) (string, error)
}

type Service struct {
	repo       Repository
	users      AdminCreator
	currencies CurrencyLookup
	logger     *slog.Logger
}

func NewService(repo Repository, users AdminCreator, currencies CurrencyLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		currencies: currencies,
		logger:     logger,
	}
}

// Signup creates a company and its admin. The base currency comes from the
// country lookup and falls back to USD when the lookup cannot resolve it.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (*SignupResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	baseCurrency := "USD"
	if s.currencies != nil && dto.Country != "" {
		if code, err := s.currencies.CurrencyForCountry(ctx, dto.Country); err == nil && code != "" {
			baseCurrency = code
		} else if err != nil {
			s.logger.Warn("country currency lookup failed, using USD", "country", dto.Country, "error", err)
		}
	}

	c := &Company{
		Name:         dto.CompanyName,
		BaseCurrency: baseCurrency,
		Country:      dto.Country,
	}

	if err := s.repo.Create(c); err != nil {
		s.logger.Error("failed to create company", "error", err, "name", dto.CompanyName)
		return nil, internal.NewInternalError("failed to create company", err)
	}

	admin, err := s.users.CreateAdmin(c.ID, dto.AdminName, dto.AdminEmail, dto.AdminPassword)
	if err != nil {
		s.logger.Error("failed to create admin for company", "error", err, "company_id", c.ID)
		return nil, err
	}

	s.logger.Info("company signed up",
		"company_id", c.ID,
		"base_currency", baseCurrency,
		"admin_user_id", admin.ID)

	return &SignupResponse{
		CompanyID:    c.ID,
		BaseCurrency: baseCurrency,
		AdminUserID:  admin.ID,
	}, nil
}

func (s *Service) GetByID(id int64) (*Company, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return c, nil
}
