package usecase

import (
	"context"
)

// SavePlanInput contains the parameters for saving the plan.
type SavePlanInput struct{}

// SavePlanOutput contains the result of a save.
type SavePlanOutput struct {
	WasDirty bool // State differed from the store before saving
}

// SavePlan writes the current plan and audit log to the store unchanged.
type SavePlan struct {
	session PlanSession
}

// NewSavePlan creates a new SavePlan use case.
func NewSavePlan(session PlanSession) *SavePlan {
	return &SavePlan{session: session}
}

// Execute persists the current state.
func (uc *SavePlan) Execute(ctx context.Context, _ SavePlanInput) (*SavePlanOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}
	dirty := uc.session.Dirty()
	if err := uc.session.Save(ctx); err != nil {
		return nil, err
	}
	return &SavePlanOutput{WasDirty: dirty}, nil
}
