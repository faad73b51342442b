package domain

import "slices"

// AuditAction identifies the kind of change recorded in the audit log.
type AuditAction string

// Audit actions.
const (
	ActionApprovePlan AuditAction = "approve_plan"
	ActionModifyTask  AuditAction = "modify_task"
	ActionMoveTask    AuditAction = "move_task"
	ActionRemoveTask  AuditAction = "remove_task"
	ActionAddTask     AuditAction = "add_task"
)

// TaskFields is the editable part of a task, as captured in audit payloads.
type TaskFields struct {
	Title        string   `json:"title" yaml:"title"`
	DependsOn    []string `json:"depends_on" yaml:"depends_on"`
	EstimateDays float64  `json:"estimate_days" yaml:"estimate_days"`
}

// AuditEntry records one committed change.
// Only the payload fields relevant to Action are set.
type AuditEntry struct {
	Before       *TaskFields `json:"before,omitempty" yaml:"before,omitempty"`
	After        *TaskFields `json:"after,omitempty" yaml:"after,omitempty"`
	Task         *TaskFields `json:"task,omitempty" yaml:"task,omitempty"`
	Reason       *string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	TimestampUTC string      `json:"timestamp_utc" yaml:"timestamp_utc"`
	Action       AuditAction `json:"action" yaml:"action"`
	By           string      `json:"by" yaml:"by"`
	TaskID       string      `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	SprintID     string      `json:"sprint_id,omitempty" yaml:"sprint_id,omitempty"`
	FromSprint   string      `json:"from_sprint,omitempty" yaml:"from_sprint,omitempty"`
	ToSprint     string      `json:"to_sprint,omitempty" yaml:"to_sprint,omitempty"`
}

// AuditLog is the ordered history of committed changes.
type AuditLog []AuditEntry

// Append returns a new log with entry at the end. The receiver is never modified,
// so earlier snapshots keep seeing their own history.
func (l AuditLog) Append(entry AuditEntry) AuditLog {
	out := make(AuditLog, len(l), len(l)+1)
	copy(out, l)
	return append(out, entry)
}

// Clone returns a copy of the log that shares no backing array with l.
func (l AuditLog) Clone() AuditLog {
	if l == nil {
		return AuditLog{}
	}
	return slices.Clone(l)
}
