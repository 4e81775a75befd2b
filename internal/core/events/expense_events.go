package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExpenseSubmitted = "expense.submitted"
	ExpenseApproved  = "expense.approved"
	ExpenseRejected  = "expense.rejected"
)

// ExpenseEvent is emitted on every expense lifecycle transition.
type ExpenseEvent struct {
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	ExpenseID   int64     `json:"expense_id"`
	SubmitterID int64     `json:"submitter_id"`
	ActorID     int64     `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e ExpenseEvent) EventName() string {
	return e.Name
}

func NewExpenseEvent(name string, expenseID, submitterID, actorID int64) ExpenseEvent {
	return ExpenseEvent{
		EventID:     uuid.NewString(),
		Name:        name,
		ExpenseID:   expenseID,
		SubmitterID: submitterID,
		ActorID:     actorID,
		OccurredAt:  time.Now(),
	}
}
