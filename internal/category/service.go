package category

import (
	"log/slog"
)

// RepositoryAPI defines the data access methods for expense categories.
type RepositoryAPI interface {
	GetAllActive() ([]*Category, error)
	GetByName(name string) (*Category, error)
	Create(c *Category) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetCategories returns active categories for expense forms.
func (s *Service) GetCategories() ([]CategoryResponse, error) {
	categories, err := s.repo.GetAllActive()
	if err != nil {
		s.logger.Error("failed to load categories", "error", err)
		return nil, err
	}

	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = c.ToResponse()
	}
	return out, nil
}

// IsKnownCategory reports whether name matches an active category. Unknown
// names are allowed on expenses but flagged by the caller for review.
func (s *Service) IsKnownCategory(name string) bool {
	c, err := s.repo.GetByName(name)
	return err == nil && c != nil && c.IsActive
}
