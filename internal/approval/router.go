package approval

import (
	"time"

	"github.com/opexhub/expense-approval/internal/expense"
)

// routeForApproval transitions a draft to submitted and materializes one
// pending Approval row per rule approver, all inside the caller's
// transaction. The full row set is created upfront so the pipeline's
// remaining lifetime depends only on the rows, never on the rule definition.
func routeForApproval(st Store, exp *expense.Expense, rule *ApprovalRule) error {
	if exp.Status == expense.StatusSubmitted {
		return ErrAlreadyRouted
	}
	if err := exp.Submit(); err != nil {
		return err
	}

	now := time.Now()
	rows := make([]*Approval, 0, len(rule.Approvers))
	for _, a := range rule.Approvers {
		rows = append(rows, &Approval{
			ExpenseID:  exp.ID,
			ApproverID: a.ApproverUserID,
			Sequence:   a.Sequence,
			Status:     StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := st.CreateApprovals(rows); err != nil {
		return err
	}
	if err := st.UpdateExpense(exp); err != nil {
		return err
	}

	return st.AppendHistory(&HistoryEntry{
		ExpenseID:   exp.ID,
		Action:      ActionSubmitted,
		PerformedBy: exp.SubmitterID,
		CreatedAt:   now,
	})
}
