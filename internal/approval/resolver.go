package approval

import (
	"github.com/opexhub/expense-approval/internal/user"
)

// resolveRule finds the approval rule governing the submitter's expenses.
// An explicit rule targeting the submitter always wins. Without one the
// submitter's manager becomes a single-approver implicit rule, and a
// submitter with neither fails with ErrNoApproverConfigured.
func resolveRule(st Store, submitter *user.User) (*ApprovalRule, error) {
	rule, err := st.GetRuleForUser(submitter.ID)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		rule.SortApprovers()
		return rule, nil
	}

	if !submitter.HasManager() {
		return nil, ErrNoApproverConfigured
	}

	return &ApprovalRule{
		Name:                  "manager approval",
		AppliesToUserID:       submitter.ID,
		IsSequential:          false,
		MinApprovalPercentage: 100,
		Approvers: []RuleApprover{
			{ApproverUserID: *submitter.ManagerID, Sequence: 1},
		},
	}, nil
}
