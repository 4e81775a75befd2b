package approval

import (
	"sort"
	"time"

	"github.com/opexhub/expense-approval/internal"
	"github.com/opexhub/expense-approval/internal/expense"
)

type outcome int

const (
	outcomePending outcome = iota
	outcomeApproved
	outcomeRejected
)

// evaluateQuorum computes the collective outcome of the current row set.
// Any rejection short-circuits the whole expense; otherwise the percentage
// quorum decides. Pending rows count against the quorum, so a parallel rule
// can conclude before every approver has voted.
func evaluateQuorum(rule *ApprovalRule, rows []*Approval) outcome {
	approved := 0
	for _, r := range rows {
		switch r.Status {
		case StatusRejected:
			return outcomeRejected
		case StatusApproved:
			approved++
		}
	}
	if rule.QuorumMet(approved, len(rows)) {
		return outcomeApproved
	}
	return outcomePending
}

func sortBySequence(rows []*Approval) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Sequence != rows[j].Sequence {
			return rows[i].Sequence < rows[j].Sequence
		}
		return rows[i].ID < rows[j].ID
	})
}

// firstPending returns the earliest undecided row in sequence order, the
// only actionable slot under a sequential rule.
func firstPending(rows []*Approval) *Approval {
	for _, r := range rows {
		if !r.Decided() {
			return r
		}
	}
	return nil
}

// applyDecision records one approver's decision and, when it concludes the
// pipeline, commits the terminal expense state. Rows are the full set for
// the expense; the rule supplies only the ordering mode and quorum
// threshold.
func applyDecision(st Store, exp *expense.Expense, rule *ApprovalRule, rows []*Approval, approverID int64, dec Decision, comments string) error {
	sortBySequence(rows)

	var row *Approval
	for _, r := range rows {
		if r.ApproverID == approverID {
			row = r
			break
		}
	}
	if row == nil {
		return ErrApprovalNotFound
	}

	if exp.Status.Terminal() {
		return internal.NewInvalidStateTransition("decided", string(exp.Status))
	}
	if row.Decided() {
		return ErrAlreadyDecided
	}
	if rule.IsSequential && firstPending(rows) != row {
		return ErrNotYourTurn
	}

	now := time.Now()
	row.Status = ApprovalStatus(dec)
	row.Comments = comments
	row.DecidedAt = &now
	row.UpdatedAt = now
	if err := st.UpdateApproval(row); err != nil {
		return err
	}

	action := ActionApproved
	if dec == DecisionRejected {
		action = ActionRejected
	}
	if err := st.AppendHistory(&HistoryEntry{
		ExpenseID:   exp.ID,
		Action:      action,
		PerformedBy: approverID,
		Comments:    comments,
		CreatedAt:   now,
	}); err != nil {
		return err
	}

	switch evaluateQuorum(rule, rows) {
	case outcomeApproved:
		if err := exp.Approve(); err != nil {
			return err
		}
		return st.UpdateExpense(exp)
	case outcomeRejected:
		if err := exp.Reject(); err != nil {
			return err
		}
		return st.UpdateExpense(exp)
	}
	return nil
}
