// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/engine"
)

// PlanSession is the review state a use case operates on.
// *engine.Engine implements it.
type PlanSession interface {
	Loaded() bool
	Load(ctx context.Context) error
	Plan() (*domain.Plan, error)
	Audit() (domain.AuditLog, error)
	Validate() (domain.ValidationResult, error)
	Import(ctx context.Context, raw []byte) error
	ModifyTask(ctx context.Context, taskID string, edit domain.TaskEdit) error
	MoveTask(ctx context.Context, taskID, targetSprintID string) error
	RemoveTask(ctx context.Context, taskID, reason string) error
	AddTask(ctx context.Context, in domain.NewTask) (string, error)
	Approve(ctx context.Context) error
	Save(ctx context.Context) error
	Clear(ctx context.Context) error
	Export(ctx context.Context) (*engine.Export, error)
	Dirty() bool
}

// Ensure Engine implements PlanSession.
var _ PlanSession = (*engine.Engine)(nil)

// ensureLoaded restores the stored plan unless one is already held.
func ensureLoaded(ctx context.Context, s PlanSession) error {
	if s.Loaded() {
		return nil
	}
	return s.Load(ctx)
}

// findTask returns a copy of the task with the given id and the id of its sprint.
func findTask(s PlanSession, taskID string) (*domain.Task, string, error) {
	plan, err := s.Plan()
	if err != nil {
		return nil, "", err
	}
	task, idx := plan.FindTask(taskID)
	if task == nil {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	return task, plan.Sprints[idx].SprintID, nil
}
