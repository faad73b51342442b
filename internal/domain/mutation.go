package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Snapshot is the plan and audit log pair that replaces the previous pair as a unit.
type Snapshot struct {
	Plan  *Plan
	Audit AuditLog
}

// Stamp identifies who commits a change and when.
type Stamp struct {
	At time.Time
	By string
}

func (s Stamp) timestamp() string {
	return FormatTimestamp(s.At)
}

func (s Stamp) actor() string {
	if s.By == "" {
		return DefaultActor
	}
	return s.By
}

// TaskEdit holds the fields a reviewer may change on an existing task.
// Title is applied only when non-blank, Estimate only when finite and positive.
// DependsOn always replaces the current dependencies.
type TaskEdit struct {
	Estimate  *float64
	Title     string
	DependsOn []string
}

// NewTask describes a task added by a reviewer.
type NewTask struct {
	Estimate  *float64
	SprintID  string
	Title     string
	DependsOn []string
}

// NewImportedPlan parses a plan document the way an import does:
// status defaults to draft, last_modified_utc is stamped, a review id is
// assigned when the document has none, and derived fields are recomputed.
func NewImportedPlan(raw []byte, at time.Time, reviewID string) (*Plan, error) {
	p, err := ParsePlan(raw)
	if err != nil {
		return nil, err
	}
	if p.ReviewID == "" {
		p.ReviewID = reviewID
	}
	p.LastModifiedUTC = FormatTimestamp(at)
	recompute(p)
	if err := CheckTotals(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return p, nil
}

// commit stamps and recomputes the working copy and appends the audit entry.
// If the recomputed sums overflow, s is returned unchanged.
func commit(s Snapshot, work *Plan, st Stamp, entry AuditEntry) (Snapshot, error) {
	work.LastModifiedUTC = st.timestamp()
	recompute(work)
	if err := CheckTotals(work); err != nil {
		return s, err
	}
	entry.TimestampUTC = st.timestamp()
	entry.By = st.actor()
	return Snapshot{Plan: work, Audit: s.Audit.Append(entry)}, nil
}

// ModifyTask edits the title, estimate and dependencies of a task.
func ModifyTask(s Snapshot, taskID string, edit TaskEdit, st Stamp) (Snapshot, error) {
	if s.Plan == nil {
		return s, ErrNoPlan
	}
	work := s.Plan.Clone()
	t, _ := work.FindTask(taskID)
	if t == nil {
		return s, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	before := t.Fields()
	if title := strings.TrimSpace(edit.Title); title != "" {
		t.Title = title
	}
	if edit.Estimate != nil && validEstimate(*edit.Estimate) {
		t.EstimateDays = *edit.Estimate
	}
	t.DependsOn = CleanTitles(edit.DependsOn)

	return commit(s, work, st, AuditEntry{
		Action: ActionModifyTask,
		TaskID: taskID,
		Before: before,
		After:  t.Fields(),
	})
}

// MoveTask moves a task to the end of another sprint's task list.
func MoveTask(s Snapshot, taskID, targetSprintID string, st Stamp) (Snapshot, error) {
	if s.Plan == nil {
		return s, ErrNoPlan
	}
	work := s.Plan.Clone()
	_, from := work.FindTask(taskID)
	if from < 0 {
		return s, fmt.Errorf("%w: %s", ErrTaskNotInSprint, taskID)
	}
	to := work.FindSprint(targetSprintID)
	if to < 0 {
		return s, fmt.Errorf("%w: %s", ErrSprintNotFound, targetSprintID)
	}

	src := &work.Sprints[from]
	var moved Task
	for j := range src.Tasks {
		if src.Tasks[j].ID == taskID {
			moved = src.Tasks[j]
			src.Tasks = append(src.Tasks[:j], src.Tasks[j+1:]...)
			break
		}
	}
	work.Sprints[to].Tasks = append(work.Sprints[to].Tasks, moved)

	return commit(s, work, st, AuditEntry{
		Action:     ActionMoveTask,
		TaskID:     taskID,
		FromSprint: work.Sprints[from].SprintID,
		ToSprint:   work.Sprints[to].SprintID,
	})
}

// RemoveTask soft-deletes a task. The task keeps its id and title for lookups.
func RemoveTask(s Snapshot, taskID, reason string, st Stamp) (Snapshot, error) {
	if s.Plan == nil {
		return s, ErrNoPlan
	}
	work := s.Plan.Clone()
	t, _ := work.FindTask(taskID)
	if t == nil {
		return s, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	reason = strings.TrimSpace(reason)
	t.Status = TaskRemoved
	t.RemovedReason = reason

	return commit(s, work, st, AuditEntry{
		Action: ActionRemoveTask,
		TaskID: taskID,
		Reason: &reason,
	})
}

// AddTask appends a reviewer task to a sprint and returns the new snapshot and task id.
func AddTask(s Snapshot, in NewTask, st Stamp) (Snapshot, string, error) {
	if s.Plan == nil {
		return s, "", ErrNoPlan
	}
	work := s.Plan.Clone()
	idx := work.FindSprint(in.SprintID)
	if idx < 0 {
		return s, "", fmt.Errorf("%w: %s", ErrSprintNotFound, in.SprintID)
	}

	estimate := DefaultNewTaskEstimateDays
	if in.Estimate != nil && validEstimate(*in.Estimate) {
		estimate = *in.Estimate
	}
	task := Task{
		ID:           NextHumanTaskID(work),
		Title:        strings.TrimSpace(in.Title),
		Type:         HumanTaskType,
		Status:       TaskActive,
		DependsOn:    CleanTitles(in.DependsOn),
		EstimateDays: estimate,
	}
	sp := &work.Sprints[idx]
	sp.Tasks = append(sp.Tasks, task)

	next, err := commit(s, work, st, AuditEntry{
		Action:   ActionAddTask,
		TaskID:   task.ID,
		SprintID: sp.SprintID,
		Task:     task.Fields(),
	})
	if err != nil {
		return s, "", err
	}
	return next, task.ID, nil
}

// NextHumanTaskID returns H-<seq> with seq one past the total task count,
// advanced further while the id is already taken.
func NextHumanTaskID(p *Plan) string {
	for seq := p.TaskCount() + 1; ; seq++ {
		id := fmt.Sprintf("%s%03d", HumanTaskIDPrefix, seq)
		if !p.HasTaskID(id) {
			return id
		}
	}
}

// Approve marks the plan approved. It is rejected with an *ApprovalBlockedError
// while validation reports errors; warnings do not block.
func Approve(s Snapshot, st Stamp) (Snapshot, error) {
	if s.Plan == nil {
		return s, ErrNoPlan
	}
	work := s.Plan.Clone()
	recompute(work)
	if res := Validate(work); res.HasErrors() {
		return s, &ApprovalBlockedError{Errors: res.Errors}
	}

	work.Status = PlanApproved
	work.ApprovedBy = st.actor()
	work.ApprovedAtUTC = st.timestamp()

	return commit(s, work, st, AuditEntry{Action: ActionApprovePlan})
}

func validEstimate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
