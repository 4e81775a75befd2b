package company

import (
	"time"

	"github.com/opexhub/expense-approval/internal"
)

type Company struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	BaseCurrency string    `json:"base_currency" gorm:"column:base_currency;default:USD"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Company) TableName() string {
	return "companies"
}

var ErrNotFound = internal.NewNotFoundError("company not found", internal.ErrCodeCompanyNotFound)
