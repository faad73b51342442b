package usecase

import (
	"context"
	"errors"

	"github.com/runoshun/plan-review/internal/domain"
)

// AddTaskInput contains the parameters for adding a task.
type AddTaskInput struct {
	Estimate  *float64 // Estimate in days; defaults to 2
	SprintID  string   // Target sprint ID (required)
	Title     string
	DependsOn []string
}

// AddTask is the use case for adding a reviewer task to a sprint.
type AddTask struct {
	session PlanSession
}

// NewAddTask creates a new AddTask use case.
func NewAddTask(session PlanSession) *AddTask {
	return &AddTask{session: session}
}

// Execute appends a new task to the sprint and persists the result.
func (uc *AddTask) Execute(ctx context.Context, in AddTaskInput) (*TaskOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}

	id, err := uc.session.AddTask(ctx, domain.NewTask{
		SprintID:  in.SprintID,
		Title:     in.Title,
		Estimate:  in.Estimate,
		DependsOn: in.DependsOn,
	})
	if err != nil && !errors.Is(err, domain.ErrPersistFailed) {
		return nil, err
	}
	return taskResult(uc.session, id, err)
}
