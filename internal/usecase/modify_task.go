package usecase

import (
	"context"
	"errors"

	"github.com/runoshun/plan-review/internal/domain"
)

// ModifyTaskInput contains the parameters for editing a task.
// Fields are ordered to minimize memory padding.
type ModifyTaskInput struct {
	Estimate         *float64 // New estimate in days; ignored unless positive
	TaskID           string   // Task ID (required)
	Title            string   // New title; blank keeps the current one
	DependsOn        []string // Dependency titles, used when ReplaceDependsOn is set
	ReplaceDependsOn bool     // Replace dependencies; otherwise the current ones are kept
}

// TaskOutput contains a task after a mutation and the resulting validation.
type TaskOutput struct {
	Task       *domain.Task
	SprintID   string
	Validation domain.ValidationResult
}

// ModifyTask is the use case for editing a task.
type ModifyTask struct {
	session PlanSession
}

// NewModifyTask creates a new ModifyTask use case.
func NewModifyTask(session PlanSession) *ModifyTask {
	return &ModifyTask{session: session}
}

// Execute edits the task and persists the result.
func (uc *ModifyTask) Execute(ctx context.Context, in ModifyTaskInput) (*TaskOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}

	deps := in.DependsOn
	if !in.ReplaceDependsOn {
		current, _, err := findTask(uc.session, in.TaskID)
		if err != nil {
			return nil, err
		}
		deps = current.DependsOn
	}

	err := uc.session.ModifyTask(ctx, in.TaskID, domain.TaskEdit{
		Title:     in.Title,
		Estimate:  in.Estimate,
		DependsOn: deps,
	})
	return taskResult(uc.session, in.TaskID, err)
}

// taskResult builds the output after a task mutation.
// A persistence failure still returns the committed task alongside the error.
func taskResult(s PlanSession, taskID string, mutateErr error) (*TaskOutput, error) {
	if mutateErr != nil && !errors.Is(mutateErr, domain.ErrPersistFailed) {
		return nil, mutateErr
	}
	task, sprintID, err := findTask(s, taskID)
	if err != nil {
		return nil, err
	}
	result, err := s.Validate()
	if err != nil {
		return nil, err
	}
	return &TaskOutput{Task: task, SprintID: sprintID, Validation: result}, mutateErr
}
