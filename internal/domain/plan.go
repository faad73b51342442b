// Package domain contains core business entities and interfaces.
package domain

import (
	"slices"
	"strings"
	"time"
)

// Defaults applied when a plan document omits a value.
const (
	DefaultEstimateDays        = 1.0  // Aggregation fallback for a task without an estimate
	DefaultNewTaskEstimateDays = 2.0  // Estimate of a task added by a reviewer
	DefaultCapacityDays        = 14.0 // Sprint capacity when the document omits it

	HumanTaskType     = "human_override" // Type of tasks added by a reviewer
	HumanTaskIDPrefix = "H-"             // ID prefix of tasks added by a reviewer
	DefaultActor      = "Project Manager"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp in plan and audit documents.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskActive  TaskStatus = "active"  // Counted towards capacity and resolvable as a dependency
	TaskRemoved TaskStatus = "removed" // Soft-deleted; kept for audit history and lookups
)

// PlanStatus is the review state of a plan.
type PlanStatus string

const (
	PlanDraft    PlanStatus = "draft"
	PlanApproved PlanStatus = "approved"
)

// Task is a unit of work inside a sprint.
// DependsOn holds task titles, not ids.
type Task struct {
	Extra         extraFields `json:"-"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Type          string      `json:"type,omitempty"`
	Status        TaskStatus  `json:"status,omitempty"`
	RemovedReason string      `json:"removed_reason,omitempty"`
	DependsOn     []string    `json:"depends_on"`
	EstimateDays  float64     `json:"estimate_days"`
}

// IsRemoved reports whether the task has been soft-deleted.
// Any status other than "removed" counts as active.
func (t *Task) IsRemoved() bool {
	return t.Status == TaskRemoved
}

// Estimate returns the estimate used for aggregation.
func (t *Task) Estimate() float64 {
	if t.EstimateDays <= 0 {
		return DefaultEstimateDays
	}
	return t.EstimateDays
}

// TitleKey returns the title as used for dependency lookups.
func (t *Task) TitleKey() string {
	return strings.TrimSpace(t.Title)
}

// Fields returns the editable fields of the task, as recorded in audit entries.
func (t *Task) Fields() *TaskFields {
	return &TaskFields{
		Title:        t.Title,
		EstimateDays: t.EstimateDays,
		DependsOn:    slices.Clone(nonNil(t.DependsOn)),
	}
}

// Sprint is a time-boxed bucket of tasks. Its position in Plan.Sprints is its place in the timeline.
type Sprint struct {
	Extra                 extraFields `json:"-"`
	SprintID              string      `json:"sprint_id"`
	Tasks                 []Task      `json:"tasks"`
	CapacityDays          float64     `json:"capacity_days"`
	UsedDays              float64     `json:"used_days"`
	RemainingCapacityDays float64     `json:"remaining_capacity_days"`
}

// Capacity returns the capacity used for recompute and validation.
func (s *Sprint) Capacity() float64 {
	if s.CapacityDays <= 0 {
		return DefaultCapacityDays
	}
	return s.CapacityDays
}

// Summary holds whole-plan aggregates.
type Summary struct {
	Extra              extraFields `json:"-"`
	NumSprints         int         `json:"num_sprints"`
	TotalEstimatedDays float64     `json:"total_estimated_days"`
	AvgDaysPerSprint   float64     `json:"avg_days_per_sprint"`
}

// Plan is the sprint schedule under review.
type Plan struct {
	Extra           extraFields `json:"-"`
	ReviewID        string      `json:"review_id,omitempty"`
	Status          PlanStatus  `json:"status"`
	OriginalGoal    string      `json:"original_goal,omitempty"`
	LastModifiedUTC string      `json:"last_modified_utc,omitempty"`
	ApprovedBy      string      `json:"approved_by,omitempty"`
	ApprovedAtUTC   string      `json:"approved_at_utc,omitempty"`
	Sprints         []Sprint    `json:"sprints"`
	Summary         Summary     `json:"summary"`
}

// Normalize fills defaults for values a plan document may omit.
func (p *Plan) Normalize() {
	if p.Status == "" {
		p.Status = PlanDraft
	}
	if p.Sprints == nil {
		p.Sprints = []Sprint{}
	}
	for i := range p.Sprints {
		sp := &p.Sprints[i]
		if sp.CapacityDays <= 0 {
			sp.CapacityDays = DefaultCapacityDays
		}
		if sp.Tasks == nil {
			sp.Tasks = []Task{}
		}
		for j := range sp.Tasks {
			t := &sp.Tasks[j]
			if t.Status == "" {
				t.Status = TaskActive
			}
			if t.EstimateDays <= 0 {
				t.EstimateDays = DefaultEstimateDays
			}
			t.DependsOn = nonNil(t.DependsOn)
		}
	}
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Extra = p.Extra.clone()
	c.Summary.Extra = p.Summary.Extra.clone()
	c.Sprints = make([]Sprint, len(p.Sprints))
	for i, sp := range p.Sprints {
		cs := sp
		cs.Extra = sp.Extra.clone()
		cs.Tasks = make([]Task, len(sp.Tasks))
		for j, t := range sp.Tasks {
			ct := t
			ct.Extra = t.Extra.clone()
			ct.DependsOn = slices.Clone(t.DependsOn)
			cs.Tasks[j] = ct
		}
		c.Sprints[i] = cs
	}
	return &c
}

// TaskCount returns the number of tasks across all sprints, removed ones included.
func (p *Plan) TaskCount() int {
	n := 0
	for i := range p.Sprints {
		n += len(p.Sprints[i].Tasks)
	}
	return n
}

// AllTasks returns pointers to every task in sprint order.
func (p *Plan) AllTasks() []*Task {
	tasks := make([]*Task, 0, p.TaskCount())
	for i := range p.Sprints {
		for j := range p.Sprints[i].Tasks {
			tasks = append(tasks, &p.Sprints[i].Tasks[j])
		}
	}
	return tasks
}

// FindTask returns the task with the given id and the index of its sprint.
// Returns nil, -1 if no sprint holds it.
func (p *Plan) FindTask(id string) (*Task, int) {
	for i := range p.Sprints {
		for j := range p.Sprints[i].Tasks {
			if p.Sprints[i].Tasks[j].ID == id {
				return &p.Sprints[i].Tasks[j], i
			}
		}
	}
	return nil, -1
}

// FindSprint returns the index of the sprint with the given id, or -1.
func (p *Plan) FindSprint(id string) int {
	for i := range p.Sprints {
		if p.Sprints[i].SprintID == id {
			return i
		}
	}
	return -1
}

// HasTaskID reports whether any task uses the given id.
func (p *Plan) HasTaskID(id string) bool {
	t, _ := p.FindTask(id)
	return t != nil
}

// SplitTitles parses a comma-separated title list, trimming entries and dropping empty ones.
func SplitTitles(s string) []string {
	return CleanTitles(strings.Split(s, ","))
}

// CleanTitles trims each title and drops empty ones. The result is never nil.
func CleanTitles(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
