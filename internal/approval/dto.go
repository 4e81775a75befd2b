package approval

import (
	"github.com/opexhub/expense-approval/internal"
	"github.com/opexhub/expense-approval/internal/expense"
)

// CreateRuleDTO is the request payload for defining an approval rule.
// MinApprovalPercentage defaults to 100 (unanimous). Approver sequences
// default to list order when omitted.
type CreateRuleDTO struct {
	Name                  string            `json:"name"`
	AppliesToUserID       int64             `json:"applies_to_user_id"`
	IsSequential          bool              `json:"is_sequential"`
	MinApprovalPercentage *int              `json:"min_approval_percentage,omitempty"`
	Approvers             []RuleApproverDTO `json:"approvers"`
}

type RuleApproverDTO struct {
	ApproverUserID int64 `json:"approver_user_id"`
	Sequence       int   `json:"sequence,omitempty"`
}

func (dto CreateRuleDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationFieldError("name", "rule name is required", internal.ErrCodeValidationFailed)
	}
	if dto.AppliesToUserID <= 0 {
		return internal.NewValidationFieldError("applies_to_user_id", "target user is required", internal.ErrCodeValidationFailed)
	}
	if dto.MinApprovalPercentage != nil {
		if pct := *dto.MinApprovalPercentage; pct < 1 || pct > 100 {
			return internal.NewValidationFieldError("min_approval_percentage", "percentage must be between 1 and 100", internal.ErrCodeValidationFailed)
		}
	}
	if len(dto.Approvers) == 0 {
		return internal.NewValidationFieldError("approvers", "at least one approver is required", internal.ErrCodeValidationFailed)
	}

	seen := make(map[int64]bool, len(dto.Approvers))
	for _, a := range dto.Approvers {
		if a.ApproverUserID <= 0 {
			return internal.NewValidationFieldError("approvers", "approver user id is required", internal.ErrCodeValidationFailed)
		}
		if a.ApproverUserID == dto.AppliesToUserID {
			return internal.NewValidationFieldError("approvers", "a user cannot approve their own expenses", internal.ErrCodeValidationFailed)
		}
		if seen[a.ApproverUserID] {
			return internal.NewValidationFieldError("approvers", "duplicate approver in rule", internal.ErrCodeValidationFailed)
		}
		seen[a.ApproverUserID] = true

		if a.Sequence < 0 {
			return internal.NewValidationFieldError("approvers", "sequence must be positive", internal.ErrCodeValidationFailed)
		}
	}

	// Uniqueness is checked on the defaulted sequences so an omitted value
	// cannot collide with an explicit one.
	sequences := make(map[int]bool, len(dto.Approvers))
	for _, seq := range dto.effectiveSequences() {
		if sequences[seq] {
			return internal.NewValidationFieldError("approvers", "duplicate sequence in rule", internal.ErrCodeValidationFailed)
		}
		sequences[seq] = true
	}
	return nil
}

// effectiveSequences returns each approver's sequence with list order filled
// in for omitted values. Validate and Rule must agree on this defaulting.
func (dto CreateRuleDTO) effectiveSequences() []int {
	out := make([]int, len(dto.Approvers))
	for i, a := range dto.Approvers {
		seq := a.Sequence
		if seq == 0 {
			seq = i + 1
		}
		out[i] = seq
	}
	return out
}

// Rule builds the domain rule, assigning list-order sequences to approvers
// that did not specify one.
func (dto CreateRuleDTO) Rule() *ApprovalRule {
	pct := 100
	if dto.MinApprovalPercentage != nil {
		pct = *dto.MinApprovalPercentage
	}

	rule := &ApprovalRule{
		Name:                  dto.Name,
		AppliesToUserID:       dto.AppliesToUserID,
		IsSequential:          dto.IsSequential,
		MinApprovalPercentage: pct,
		Approvers:             make([]RuleApprover, 0, len(dto.Approvers)),
	}
	sequences := dto.effectiveSequences()
	for i, a := range dto.Approvers {
		rule.Approvers = append(rule.Approvers, RuleApprover{
			ApproverUserID: a.ApproverUserID,
			Sequence:       sequences[i],
		})
	}
	rule.SortApprovers()
	return rule
}

// DecisionDTO carries an approver's optional comment.
type DecisionDTO struct {
	Comments string `json:"comments"`
}

func (dto DecisionDTO) Validate() error {
	if len(dto.Comments) > 1000 {
		return internal.NewValidationFieldError("comments", "comments must be less than 1000 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

// PendingApprovalItem is one entry of an approver's work queue. Actionable
// is false when a sequential rule is still waiting on an earlier approver.
type PendingApprovalItem struct {
	Approval   *Approval        `json:"approval"`
	Expense    *expense.Expense `json:"expense"`
	Actionable bool             `json:"actionable"`
}
