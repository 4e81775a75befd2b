package approval

import (
	"context"
	"log/slog"

	"github.com/opexhub/expense-approval/internal"
	"github.com/opexhub/expense-approval/internal/core/events"
	"github.com/opexhub/expense-approval/internal/expense"
	"github.com/opexhub/expense-approval/internal/user"
)

// Store is the approval engine's unit of work. WithinTx runs fn against a
// transactional view of the same store; every write inside fn commits or
// rolls back together.
type Store interface {
	WithinTx(fn func(Store) error) error

	GetExpense(id int64) (*expense.Expense, error)
	GetExpenseForUpdate(id int64) (*expense.Expense, error)
	UpdateExpense(exp *expense.Expense) error

	GetUser(id int64) (*user.User, error)

	GetRuleForUser(userID int64) (*ApprovalRule, error)
	CreateRule(rule *ApprovalRule) error

	CreateApprovals(rows []*Approval) error
	GetApprovals(expenseID int64) ([]*Approval, error)
	UpdateApproval(row *Approval) error
	ListPendingByApprover(approverID int64) ([]*Approval, error)

	AppendHistory(entry *HistoryEntry) error
	ListHistory(expenseID int64) ([]*HistoryEntry, error)
}

type Service struct {
	store  Store
	events events.Publisher
	logger *slog.Logger
}

func NewService(store Store, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		events: publisher,
		logger: logger,
	}
}

// SubmitExpense resolves the submitter's rule and routes the expense for
// approval. The state transition, approval rows and history entry commit
// atomically; a failure anywhere leaves the expense a draft with no rows.
func (s *Service) SubmitExpense(expenseID, actorID int64) (*expense.Expense, error) {
	var exp *expense.Expense

	err := s.store.WithinTx(func(tx Store) error {
		var err error
		exp, err = tx.GetExpenseForUpdate(expenseID)
		if err != nil {
			return err
		}
		if exp.SubmitterID != actorID {
			return expense.ErrUnauthorizedAccess
		}

		submitter, err := tx.GetUser(exp.SubmitterID)
		if err != nil {
			return err
		}

		rule, err := resolveRule(tx, submitter)
		if err != nil {
			return err
		}

		return routeForApproval(tx, exp, rule)
	})
	if err != nil {
		s.logger.Error("expense submission failed", "error", err, "expense_id", expenseID, "actor_id", actorID)
		return nil, err
	}

	s.logger.Info("expense routed for approval", "expense_id", exp.ID, "submitter_id", exp.SubmitterID)
	s.events.Publish(context.Background(),
		events.NewExpenseEvent(events.ExpenseSubmitted, exp.ID, exp.SubmitterID, actorID))

	return exp, nil
}

// DecideApproval records the approver's decision on the expense and commits
// the collective outcome when the decision concludes it.
func (s *Service) DecideApproval(expenseID int64, approver *user.User, dec Decision, dto DecisionDTO) (*expense.Expense, error) {
	if !dec.Valid() {
		return nil, internal.NewValidationError("decision must be approved or rejected", internal.ErrCodeValidationFailed)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var exp *expense.Expense

	err := s.store.WithinTx(func(tx Store) error {
		var err error
		exp, err = tx.GetExpenseForUpdate(expenseID)
		if err != nil {
			return err
		}

		rows, err := tx.GetApprovals(expenseID)
		if err != nil {
			return err
		}

		rule, err := tx.GetRuleForUser(exp.SubmitterID)
		if err != nil {
			return err
		}
		if rule == nil {
			// Manager fallback: single approver, unanimous, parallel.
			rule = &ApprovalRule{MinApprovalPercentage: 100}
		}

		return applyDecision(tx, exp, rule, rows, approver.ID, dec, dto.Comments)
	})
	if err != nil {
		s.logger.Error("approval decision failed",
			"error", err,
			"expense_id", expenseID,
			"approver_id", approver.ID,
			"decision", dec)
		return nil, err
	}

	s.logger.Info("approval decision recorded",
		"expense_id", exp.ID,
		"approver_id", approver.ID,
		"decision", dec,
		"expense_status", exp.Status)

	switch exp.Status {
	case expense.StatusApproved:
		s.events.Publish(context.Background(),
			events.NewExpenseEvent(events.ExpenseApproved, exp.ID, exp.SubmitterID, approver.ID))
	case expense.StatusRejected:
		s.events.Publish(context.Background(),
			events.NewExpenseEvent(events.ExpenseRejected, exp.ID, exp.SubmitterID, approver.ID))
	}

	return exp, nil
}

// CreateRule defines an explicit approval rule for a target user. Admins
// only; at most one rule per target.
func (s *Service) CreateRule(actor *user.User, dto CreateRuleDTO) (*ApprovalRule, error) {
	if !actor.IsAdmin() {
		return nil, internal.NewForbiddenError("only admins can manage approval rules", internal.ErrCodeUnauthorizedAccess)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rule := dto.Rule()

	err := s.store.WithinTx(func(tx Store) error {
		target, err := tx.GetUser(rule.AppliesToUserID)
		if err != nil {
			return err
		}
		if target.CompanyID != actor.CompanyID {
			return internal.ErrUserNotFound
		}

		for _, a := range rule.Approvers {
			approver, err := tx.GetUser(a.ApproverUserID)
			if err != nil {
				return err
			}
			if approver.CompanyID != actor.CompanyID || !approver.IsActive {
				return internal.ErrUserNotFound
			}
		}

		existing, err := tx.GetRuleForUser(rule.AppliesToUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateRule
		}

		return tx.CreateRule(rule)
	})
	if err != nil {
		s.logger.Error("rule creation failed", "error", err, "target_user_id", dto.AppliesToUserID)
		return nil, err
	}

	s.logger.Info("approval rule created",
		"rule_id", rule.ID,
		"target_user_id", rule.AppliesToUserID,
		"is_sequential", rule.IsSequential,
		"min_approval_percentage", rule.MinApprovalPercentage)

	return rule, nil
}

// RuleForUser returns the explicit rule targeting the user, or nil when the
// manager fallback governs them. Visible to admins and to the user
// themselves.
func (s *Service) RuleForUser(actor *user.User, targetUserID int64) (*ApprovalRule, error) {
	if !actor.IsAdmin() && actor.ID != targetUserID {
		return nil, internal.NewForbiddenError("cannot view another user's approval rule", internal.ErrCodeUnauthorizedAccess)
	}

	rule, err := s.store.GetRuleForUser(targetUserID)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		rule.SortApprovers()
	}
	return rule, nil
}

// PendingApprovalsFor lists the approver's undecided slots on still-open
// expenses, flagging which are actionable now.
func (s *Service) PendingApprovalsFor(actor *user.User) ([]*PendingApprovalItem, error) {
	rows, err := s.store.ListPendingByApprover(actor.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*PendingApprovalItem, 0, len(rows))
	for _, row := range rows {
		exp, err := s.store.GetExpense(row.ExpenseID)
		if err != nil {
			return nil, err
		}
		// Short-circuited pipelines leave undecided rows behind; those
		// expenses are settled and need no further action.
		if exp.Status != expense.StatusSubmitted {
			continue
		}

		actionable := true
		rule, err := s.store.GetRuleForUser(exp.SubmitterID)
		if err != nil {
			return nil, err
		}
		if rule != nil && rule.IsSequential {
			all, err := s.store.GetApprovals(exp.ID)
			if err != nil {
				return nil, err
			}
			sortBySequence(all)
			next := firstPending(all)
			actionable = next != nil && next.ApproverID == actor.ID
		}

		items = append(items, &PendingApprovalItem{
			Approval:   row,
			Expense:    exp,
			Actionable: actionable,
		})
	}
	return items, nil
}

// History returns the expense's audit trail, oldest first. Restricted to
// the submitter and approving roles.
func (s *Service) History(expenseID int64, actor *user.User) ([]*HistoryEntry, error) {
	exp, err := s.store.GetExpense(expenseID)
	if err != nil {
		return nil, err
	}
	if exp.SubmitterID != actor.ID && !actor.Role.CanApprove() {
		return nil, expense.ErrUnauthorizedAccess
	}
	return s.store.ListHistory(expenseID)
}
