package approval

import (
	"sort"
	"time"

	"github.com/opexhub/expense-approval/internal"
)

// ApprovalStatus tracks a single approver's decision slot for an expense.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Decision is the action an approver takes on a pending approval.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// History actions recorded in the audit trail.
const (
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
)

// ApprovalRule configures who must approve a target user's expenses and
// under what quorum. At most one rule targets any given user.
type ApprovalRule struct {
	ID                    int64          `json:"id" gorm:"primaryKey"`
	Name                  string         `json:"name" gorm:"not null"`
	AppliesToUserID       int64          `json:"applies_to_user_id" gorm:"column:applies_to_user_id;uniqueIndex;not null"`
	IsSequential          bool           `json:"is_sequential" gorm:"column:is_sequential;default:false"`
	MinApprovalPercentage int            `json:"min_approval_percentage" gorm:"column:min_approval_percentage;default:100"`
	CreatedAt             time.Time      `json:"created_at" gorm:"column:created_at;default:now()"`
	Approvers             []RuleApprover `json:"approvers" gorm:"foreignKey:RuleID"`
}

func (ApprovalRule) TableName() string {
	return "approval_rules"
}

// SortApprovers orders the approver list by sequence in place.
func (r *ApprovalRule) SortApprovers() {
	sort.Slice(r.Approvers, func(i, j int) bool {
		return r.Approvers[i].Sequence < r.Approvers[j].Sequence
	})
}

// QuorumMet reports whether approvedCount approvals out of total satisfy the
// rule's percentage threshold. 100 means unanimous consent.
func (r *ApprovalRule) QuorumMet(approvedCount, total int) bool {
	if total == 0 {
		return false
	}
	return float64(approvedCount)/float64(total)*100 >= float64(r.MinApprovalPercentage)
}

// Implicit reports whether the rule is the manager fallback rather than a
// stored definition.
func (r *ApprovalRule) Implicit() bool {
	return r.ID == 0
}

// RuleApprover is one entry of a rule's ordered approver list. For
// sequential rules the sequence defines strict approval order starting at 1;
// for parallel rules it is advisory display order only.
type RuleApprover struct {
	RuleID         int64 `json:"-" gorm:"column:rule_id;primaryKey"`
	ApproverUserID int64 `json:"approver_user_id" gorm:"column:approver_user_id;primaryKey"`
	Sequence       int   `json:"sequence" gorm:"not null"`
}

func (RuleApprover) TableName() string {
	return "rule_approvers"
}

// Approval is one approver's slot for one expense, materialized by the
// router when the expense is submitted. The row set carries the rule
// snapshot for the expense's lifetime: the approver set and sequence here
// stay authoritative even if the rule definition changes later.
type Approval struct {
	ID         int64          `json:"id" gorm:"primaryKey"`
	ExpenseID  int64          `json:"expense_id" gorm:"column:expense_id;uniqueIndex:idx_expense_approver;not null"`
	ApproverID int64          `json:"approver_id" gorm:"column:approver_id;uniqueIndex:idx_expense_approver;not null"`
	Sequence   int            `json:"sequence" gorm:"not null"`
	Status     ApprovalStatus `json:"status" gorm:"default:pending"`
	Comments   string         `json:"comments"`
	DecidedAt  *time.Time     `json:"decided_at,omitempty" gorm:"column:decided_at"`
	CreatedAt  time.Time      `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Approval) TableName() string {
	return "approvals"
}

func (a *Approval) Decided() bool {
	return a.Status != StatusPending
}

// HistoryEntry is an append-only audit record; entries are never mutated or
// deleted.
type HistoryEntry struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	ExpenseID   int64     `json:"expense_id" gorm:"column:expense_id;not null"`
	Action      string    `json:"action" gorm:"not null"`
	PerformedBy int64     `json:"performed_by" gorm:"column:performed_by"`
	Comments    string    `json:"comments"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (HistoryEntry) TableName() string {
	return "approval_history"
}

// Domain errors
var (
	ErrNoApproverConfigured = internal.ErrNoApproverConfigured
	ErrAlreadyRouted        = internal.ErrAlreadyRouted
	ErrApprovalNotFound     = internal.ErrApprovalNotFound
	ErrNotYourTurn          = internal.ErrNotYourTurn
	ErrAlreadyDecided       = internal.ErrAlreadyDecided
	ErrDuplicateRule        = internal.ErrDuplicateRule
)
