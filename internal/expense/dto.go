package expense

import (
	"time"

	"github.com/opexhub/expense-approval/internal"
)

// CreateExpenseDTO represents the request payload for creating an expense.
// IsDraft defaults to true; a false value submits the expense immediately
// after creation.
type CreateExpenseDTO struct {
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Category     string    `json:"category"`
	ExpenseDate  time.Time `json:"expense_date"`
	ReceiptImage *string   `json:"receipt_image,omitempty"`
	IsDraft      *bool     `json:"is_draft,omitempty"`
}

func (dto CreateExpenseDTO) Draft() bool {
	return dto.IsDraft == nil || *dto.IsDraft
}

func (dto CreateExpenseDTO) Validate() error {
	if dto.Amount <= 0 {
		return internal.NewValidationFieldError("amount", "amount must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if dto.Description == "" {
		return internal.NewValidationFieldError("description", "description is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Description) > 500 {
		return internal.NewValidationFieldError("description", "description must be less than 500 characters", internal.ErrCodeValidationFailed)
	}
	if len(dto.Currency) != 3 {
		return internal.NewValidationFieldError("currency", "currency must be a 3-letter code", internal.ErrCodeInvalidCurrency)
	}
	if dto.ExpenseDate.IsZero() {
		return internal.NewValidationFieldError("expense_date", "expense date is required", internal.ErrCodeInvalidDate)
	}
	if dto.ExpenseDate.After(time.Now()) {
		return internal.NewValidationFieldError("expense_date", "expense date cannot be in the future", internal.ErrCodeInvalidDate)
	}
	return nil
}
