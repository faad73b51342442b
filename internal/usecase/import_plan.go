package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/runoshun/plan-review/internal/domain"
)

// ImportPlanInput contains the parameters for importing a plan document.
type ImportPlanInput struct {
	Source io.Reader // Plan JSON (required)
}

// ImportPlanOutput contains the result of an import.
type ImportPlanOutput struct {
	Plan       *domain.Plan
	Validation domain.ValidationResult
}

// ImportPlan replaces the plan under review and starts a new audit log.
type ImportPlan struct {
	session PlanSession
}

// NewImportPlan creates a new ImportPlan use case.
func NewImportPlan(session PlanSession) *ImportPlan {
	return &ImportPlan{session: session}
}

// Execute reads and imports the document.
// An invalid document leaves any previously stored plan in place.
func (uc *ImportPlan) Execute(ctx context.Context, in ImportPlanInput) (*ImportPlanOutput, error) {
	if in.Source == nil {
		return nil, fmt.Errorf("%w: no document given", domain.ErrInvalidInput)
	}
	raw, err := io.ReadAll(in.Source)
	if err != nil {
		return nil, fmt.Errorf("read plan document: %w", err)
	}

	// A persistence failure still leaves the import committed in memory.
	importErr := uc.session.Import(ctx, raw)
	if importErr != nil && !errors.Is(importErr, domain.ErrPersistFailed) {
		return nil, importErr
	}

	plan, err := uc.session.Plan()
	if err != nil {
		return nil, err
	}
	result, err := uc.session.Validate()
	if err != nil {
		return nil, err
	}
	return &ImportPlanOutput{Plan: plan, Validation: result}, importErr
}
