package postgres

import (
	"errors"

	"github.com/opexhub/expense-approval/internal/expense"
	"github.com/opexhub/expense-approval/internal/user"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(exp *expense.Expense) error {
	return r.db.Create(exp).Error
}

func (r *ExpenseRepository) GetByID(id int64) (*expense.Expense, error) {
	var exp expense.Expense
	err := r.db.Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

func (r *ExpenseRepository) GetByUserID(userID int64, limit, offset int) ([]*expense.Expense, error) {
	var expenses []*expense.Expense
	err := r.db.Where("submitter_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) GetAllByCompany(companyID int64, limit, offset int) ([]*expense.Expense, error) {
	var expenses []*expense.Expense
	err := r.db.
		Joins("JOIN users ON users.id = expenses.submitter_id").
		Where("users.company_id = ?", companyID).
		Order("expenses.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&expenses).Error
	return expenses, err
}

// BaseCurrencyForUser resolves the base currency of the user's company,
// satisfying expense.CompanyCurrencySource.
func (r *ExpenseRepository) BaseCurrencyForUser(userID int64) (string, error) {
	var u user.User
	if err := r.db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", user.ErrNotFound
		}
		return "", err
	}

	var base string
	err := r.db.Table("companies").
		Select("base_currency").
		Where("id = ?", u.CompanyID).
		Scan(&base).Error
	if err != nil {
		return "", err
	}
	if base == "" {
		base = "USD"
	}
	return base, nil
}
