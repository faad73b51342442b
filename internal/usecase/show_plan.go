package usecase

import (
	"context"

	"github.com/runoshun/plan-review/internal/domain"
)

// ShowPlanInput contains the parameters for showing the plan.
type ShowPlanInput struct{}

// ShowPlanOutput contains the current plan and its validation.
type ShowPlanOutput struct {
	Plan       *domain.Plan
	Validation domain.ValidationResult
	Dirty      bool // In-memory state differs from the store
}

// ShowPlan is the use case for displaying the plan under review.
type ShowPlan struct {
	session PlanSession
}

// NewShowPlan creates a new ShowPlan use case.
func NewShowPlan(session PlanSession) *ShowPlan {
	return &ShowPlan{session: session}
}

// Execute returns the current plan.
func (uc *ShowPlan) Execute(ctx context.Context, _ ShowPlanInput) (*ShowPlanOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}
	plan, err := uc.session.Plan()
	if err != nil {
		return nil, err
	}
	result, err := uc.session.Validate()
	if err != nil {
		return nil, err
	}
	return &ShowPlanOutput{
		Plan:       plan,
		Validation: result,
		Dirty:      uc.session.Dirty(),
	}, nil
}
