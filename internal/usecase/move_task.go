package usecase

import (
	"context"
)

// MoveTaskInput contains the parameters for moving a task.
type MoveTaskInput struct {
	TaskID   string // Task ID (required)
	SprintID string // Target sprint ID (required)
}

// MoveTask is the use case for moving a task to another sprint.
type MoveTask struct {
	session PlanSession
}

// NewMoveTask creates a new MoveTask use case.
func NewMoveTask(session PlanSession) *MoveTask {
	return &MoveTask{session: session}
}

// Execute moves the task to the end of the target sprint and persists the result.
func (uc *MoveTask) Execute(ctx context.Context, in MoveTaskInput) (*TaskOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}
	err := uc.session.MoveTask(ctx, in.TaskID, in.SprintID)
	return taskResult(uc.session, in.TaskID, err)
}
