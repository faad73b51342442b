package usecase

import (
	"context"

	"github.com/runoshun/plan-review/internal/domain"
)

// ValidatePlanInput contains the parameters for validating the plan.
type ValidatePlanInput struct {
	Strict bool // Treat capacity warnings as failures
}

// ValidatePlanOutput contains the validation result.
type ValidatePlanOutput struct {
	Result domain.ValidationResult
	Passed bool
}

// ValidatePlan runs validation against the plan under review.
type ValidatePlan struct {
	session PlanSession
}

// NewValidatePlan creates a new ValidatePlan use case.
func NewValidatePlan(session PlanSession) *ValidatePlan {
	return &ValidatePlan{session: session}
}

// Execute validates the current plan. It never changes state.
func (uc *ValidatePlan) Execute(ctx context.Context, in ValidatePlanInput) (*ValidatePlanOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}
	result, err := uc.session.Validate()
	if err != nil {
		return nil, err
	}

	passed := !result.HasErrors()
	if in.Strict && len(result.Warnings) > 0 {
		passed = false
	}
	return &ValidatePlanOutput{Result: result, Passed: passed}, nil
}
