package postgres

import (
	"errors"

	"github.com/opexhub/expense-approval/internal/company"
	"gorm.io/gorm"
)

// CompanyRepository implements the company.Repository interface using GORM.
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.Repository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(c *company.Company) error {
	return r.db.Create(c).Error
}

func (r *CompanyRepository) GetByID(id int64) (*company.Company, error) {
	var c company.Company
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, company.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
