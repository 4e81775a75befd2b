package postgres

import (
	"errors"

	"github.com/opexhub/expense-approval/internal/approval"
	"github.com/opexhub/expense-approval/internal/expense"
	"github.com/opexhub/expense-approval/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalStore implements approval.Store on GORM. WithinTx hands callers a
// store bound to the transaction so the engine's reads and writes share one
// connection.
type ApprovalStore struct {
	db *gorm.DB
}

func NewApprovalStore(db *gorm.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) WithinTx(fn func(approval.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ApprovalStore{db: tx})
	})
}

func (s *ApprovalStore) GetExpense(id int64) (*expense.Expense, error) {
	var exp expense.Expense
	if err := s.db.Where("id = ?", id).First(&exp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

// GetExpenseForUpdate locks the expense row for the transaction's duration.
// SQLite serializes writers already, so the lock clause is postgres-only.
func (s *ApprovalStore) GetExpenseForUpdate(id int64) (*expense.Expense, error) {
	q := s.db
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var exp expense.Expense
	if err := q.Where("id = ?", id).First(&exp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

func (s *ApprovalStore) UpdateExpense(exp *expense.Expense) error {
	return s.db.Save(exp).Error
}

func (s *ApprovalStore) GetUser(id int64) (*user.User, error) {
	var u user.User
	if err := s.db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetRuleForUser returns the explicit rule targeting the user with its
// approvers, or nil when none exists.
func (s *ApprovalStore) GetRuleForUser(userID int64) (*approval.ApprovalRule, error) {
	var rule approval.ApprovalRule
	err := s.db.Preload("Approvers").
		Where("applies_to_user_id = ?", userID).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (s *ApprovalStore) CreateRule(rule *approval.ApprovalRule) error {
	err := s.db.Create(rule).Error
	if err != nil && isUniqueViolation(err) {
		return approval.ErrDuplicateRule
	}
	return err
}

func (s *ApprovalStore) CreateApprovals(rows []*approval.Approval) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.Create(rows).Error
	if err != nil && isUniqueViolation(err) {
		return approval.ErrAlreadyRouted
	}
	return err
}

func (s *ApprovalStore) GetApprovals(expenseID int64) ([]*approval.Approval, error) {
	var rows []*approval.Approval
	err := s.db.Where("expense_id = ?", expenseID).
		Order("sequence ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *ApprovalStore) UpdateApproval(row *approval.Approval) error {
	return s.db.Save(row).Error
}

func (s *ApprovalStore) ListPendingByApprover(approverID int64) ([]*approval.Approval, error) {
	var rows []*approval.Approval
	err := s.db.Where("approver_id = ? AND status = ?", approverID, approval.StatusPending).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *ApprovalStore) AppendHistory(entry *approval.HistoryEntry) error {
	return s.db.Create(entry).Error
}

func (s *ApprovalStore) ListHistory(expenseID int64) ([]*approval.HistoryEntry, error) {
	var entries []*approval.HistoryEntry
	err := s.db.Where("expense_id = ?", expenseID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
