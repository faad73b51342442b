package usecase

import (
	"context"
)

// ClearPlanInput contains the parameters for clearing the review.
type ClearPlanInput struct{}

// ClearPlanOutput contains the result of a clear.
type ClearPlanOutput struct{}

// ClearPlan deletes the stored plan, its import and the audit log.
type ClearPlan struct {
	session PlanSession
}

// NewClearPlan creates a new ClearPlan use case.
func NewClearPlan(session PlanSession) *ClearPlan {
	return &ClearPlan{session: session}
}

// Execute removes every stored copy in one store call.
// If the store fails, the stored and in-memory state are left as they were.
func (uc *ClearPlan) Execute(ctx context.Context, _ ClearPlanInput) (*ClearPlanOutput, error) {
	if err := uc.session.Clear(ctx); err != nil {
		return nil, err
	}
	return &ClearPlanOutput{}, nil
}
