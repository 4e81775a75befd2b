package expense

import (
	"time"

	"github.com/opexhub/expense-approval/internal"
)

// Status is the expense lifecycle state. The only legal transitions are
// draft -> submitted -> {approved, rejected}; approved and rejected are
// terminal.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Expense struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	Description     string     `json:"description" gorm:"not null"`
	Amount          float64    `json:"amount" gorm:"not null"`
	Currency        string     `json:"currency" gorm:"not null"`
	ConvertedAmount float64    `json:"converted_amount" gorm:"column:converted_amount"`
	BaseCurrency    string     `json:"base_currency" gorm:"column:base_currency"`
	Category        string     `json:"category"`
	ExpenseDate     time.Time  `json:"expense_date" gorm:"column:expense_date;type:date"`
	ReceiptImage    *string    `json:"receipt_image,omitempty" gorm:"column:receipt_image"`
	Status          Status     `json:"status" gorm:"default:draft"`
	SubmitterID     int64      `json:"submitter_id" gorm:"column:submitter_id;not null"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty" gorm:"column:processed_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Expense) TableName() string {
	return "expenses"
}

// Submit moves a draft into the approval pipeline. Any other starting state
// fails and reports the current status.
func (e *Expense) Submit() error {
	if e.Status != StatusDraft {
		return internal.NewInvalidStateTransition("submitted", string(e.Status))
	}
	e.Status = StatusSubmitted
	e.UpdatedAt = time.Now()
	return nil
}

// Approve commits the terminal approved state. Only a submitted expense can
// be approved.
func (e *Expense) Approve() error {
	if e.Status != StatusSubmitted {
		return internal.NewInvalidStateTransition("approved", string(e.Status))
	}
	now := time.Now()
	e.Status = StatusApproved
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

// Reject commits the terminal rejected state.
func (e *Expense) Reject() error {
	if e.Status != StatusSubmitted {
		return internal.NewInvalidStateTransition("rejected", string(e.Status))
	}
	now := time.Now()
	e.Status = StatusRejected
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

// Domain errors
var (
	ErrExpenseNotFound    = internal.ErrExpenseNotFound
	ErrUnauthorizedAccess = internal.ErrUnauthorizedAccess
)
