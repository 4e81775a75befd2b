package expense

import (
	"context"
	"log/slog"

	"github.com/opexhub/expense-approval/internal/currency"
	"github.com/opexhub/expense-approval/internal/user"
)

// Repository defines the data access methods for expenses.
type Repository interface {
	Create(exp *Expense) error
	GetByID(id int64) (*Expense, error)
	GetByUserID(userID int64, limit, offset int) ([]*Expense, error)
	GetAllByCompany(companyID int64, limit, offset int) ([]*Expense, error)
}

// RateSource converts between currencies at expense creation time. The
// lookup happens before the expense enters the approval pipeline so its
// latency never holds approval locks.
type RateSource interface {
	Convert(ctx context.Context, amount float64, from, to string) (currency.Conversion, error)
}

// CompanyCurrencySource resolves the base currency of a submitter's company.
type CompanyCurrencySource interface {
	BaseCurrencyForUser(userID int64) (string, error)
}

// ApprovalService is the slice of the approval engine the expense flow
// needs: routing a freshly created non-draft expense.
type ApprovalService interface {
	SubmitExpense(expenseID, actorID int64) (*Expense, error)
}

type Service struct {
	repo      Repository
	rates     RateSource
	companies CompanyCurrencySource
	approvals ApprovalService
	logger    *slog.Logger
}

func NewService(repo Repository, rates RateSource, companies CompanyCurrencySource, approvals ApprovalService, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		rates:     rates,
		companies: companies,
		approvals: approvals,
		logger:    logger,
	}
}

// CreateExpense creates an expense for the submitter, converting the amount
// into the company base currency once at creation. A non-draft request is
// routed into the approval pipeline immediately.
func (s *Service) CreateExpense(ctx context.Context, submitter *user.User, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("expense validation failed", "error", err, "user_id", submitter.ID)
		return nil, err
	}

	baseCurrency, err := s.companies.BaseCurrencyForUser(submitter.ID)
	if err != nil {
		s.logger.Error("failed to resolve base currency", "error", err, "user_id", submitter.ID)
		return nil, err
	}

	converted := dto.Amount
	if dto.Currency != baseCurrency {
		conversion, err := s.rates.Convert(ctx, dto.Amount, dto.Currency, baseCurrency)
		if err != nil {
			s.logger.Error("currency conversion failed", "error", err, "from", dto.Currency, "to", baseCurrency)
			return nil, err
		}
		converted = conversion.ConvertedAmount
	}

	exp := &Expense{
		Description:     dto.Description,
		Amount:          dto.Amount,
		Currency:        dto.Currency,
		ConvertedAmount: converted,
		BaseCurrency:    baseCurrency,
		Category:        dto.Category,
		ExpenseDate:     dto.ExpenseDate,
		ReceiptImage:    dto.ReceiptImage,
		Status:          StatusDraft,
		SubmitterID:     submitter.ID,
	}

	if err := s.repo.Create(exp); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", submitter.ID)
		return nil, err
	}

	s.logger.Info("expense created",
		"expense_id", exp.ID,
		"user_id", submitter.ID,
		"amount", exp.Amount,
		"currency", exp.Currency,
		"converted_amount", exp.ConvertedAmount)

	if !dto.Draft() {
		routed, err := s.approvals.SubmitExpense(exp.ID, submitter.ID)
		if err != nil {
			s.logger.Error("failed to submit expense after creation", "error", err, "expense_id", exp.ID)
			return nil, err
		}
		return routed, nil
	}

	return exp, nil
}

// SubmitExpense pushes a draft into the approval pipeline on behalf of its
// submitter.
func (s *Service) SubmitExpense(expenseID int64, actor *user.User) (*Expense, error) {
	return s.approvals.SubmitExpense(expenseID, actor.ID)
}

// GetExpenseByID retrieves an expense, restricted to its submitter unless
// the actor can approve.
func (s *Service) GetExpenseByID(id int64, actor *user.User) (*Expense, error) {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrExpenseNotFound
	}

	if exp.SubmitterID != actor.ID && !actor.Role.CanApprove() {
		s.logger.Warn("unauthorized access to expense", "expense_id", id, "user_id", actor.ID)
		return nil, ErrUnauthorizedAccess
	}

	return exp, nil
}

// GetUserExpenses retrieves the actor's own expenses.
func (s *Service) GetUserExpenses(actor *user.User, limit, offset int) ([]*Expense, error) {
	expenses, err := s.repo.GetByUserID(actor.ID, limit, offset)
	if err != nil {
		s.logger.Error("failed to get user expenses", "error", err, "user_id", actor.ID)
		return nil, err
	}
	return expenses, nil
}

// GetCompanyExpenses retrieves company-wide expenses for managers and admins.
func (s *Service) GetCompanyExpenses(actor *user.User, limit, offset int) ([]*Expense, error) {
	if !actor.Role.CanApprove() {
		s.logger.Warn("company expense listing denied", "user_id", actor.ID, "role", actor.Role)
		return nil, ErrUnauthorizedAccess
	}

	expenses, err := s.repo.GetAllByCompany(actor.CompanyID, limit, offset)
	if err != nil {
		s.logger.Error("failed to get company expenses", "error", err, "company_id", actor.CompanyID)
		return nil, err
	}
	return expenses, nil
}
