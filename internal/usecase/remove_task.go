package usecase

import (
	"context"
)

// RemoveTaskInput contains the parameters for removing a task.
type RemoveTaskInput struct {
	TaskID string // Task ID (required)
	Reason string // Recorded as removed_reason and in the audit entry
}

// RemoveTask is the use case for soft-deleting a task.
type RemoveTask struct {
	session PlanSession
}

// NewRemoveTask creates a new RemoveTask use case.
func NewRemoveTask(session PlanSession) *RemoveTask {
	return &RemoveTask{session: session}
}

// Execute marks the task removed and persists the result.
// The task stays in its sprint and keeps resolving as a dependency.
func (uc *RemoveTask) Execute(ctx context.Context, in RemoveTaskInput) (*TaskOutput, error) {
	if err := ensureLoaded(ctx, uc.session); err != nil {
		return nil, err
	}
	err := uc.session.RemoveTask(ctx, in.TaskID, in.Reason)
	return taskResult(uc.session, in.TaskID, err)
}
