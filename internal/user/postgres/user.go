package postgres

import (
	"errors"

	"github.com/opexhub/expense-approval/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements the user.Repository interface using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ListByCompany(companyID int64) ([]*user.User, error) {
	var users []*user.User
	err := r.db.Where("company_id = ?", companyID).Order("name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) ListManagers(companyID int64) ([]*user.User, error) {
	var users []*user.User
	err := r.db.Where("company_id = ? AND role IN ?", companyID, []user.Role{user.RoleManager, user.RoleAdmin}).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
