package usecase

import (
	"context"
	"errors"

	"github.com/runoshun/plan-review/internal/domain"
)

// ApprovePlanInput contains the parameters for approving the plan.
type ApprovePlanInput struct{}

// ApprovePlanOutput contains the approved plan.
type ApprovePlanOutput struct {
	Plan       *domain.Plan
	Validation domain.ValidationResult // Warnings that did not block approval
}

// ApprovePlan is the use case for approving the plan under review.
type ApprovePlan struct {
	session PlanSession
}

// NewApprovePlan creates a new ApprovePlan use case.
func NewApprovePlan(session PlanSession) *ApprovePlan {
	return &ApprovePlan{session: session}
}

// Execute approves the plan if validation reports no errors.
// A blocked approval returns *domain.ApprovalBlockedError.
func (uc *ApprovePlan) Execute(ctx context.Context, _ ApprovePlanInput) (*ApprovePlanOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}

	approveErr := uc.session.Approve(ctx)
	if approveErr != nil && !errors.Is(approveErr, domain.ErrPersistFailed) {
		return nil, approveErr
	}

	plan, err := uc.session.Plan()
	if err != nil {
		return nil, err
	}
	result, err := uc.session.Validate()
	if err != nil {
		return nil, err
	}
	return &ApprovePlanOutput{Plan: plan, Validation: result}, approveErr
}
