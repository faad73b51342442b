package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplePlan is a generator response as it arrives at import.
const samplePlan = `{
  "sprint_plan_id": "SP-42",
  "original_goal": "Ship the billing MVP",
  "assumptions": ["two engineers"],
  "sprints": [
    {
      "sprint_id": "S1",
      "capacity_days": 5,
      "goal": "foundations",
      "tasks": [
        {"id": "T-001", "title": "A", "estimate_days": 3, "depends_on": [], "priority": "high"}
      ]
    },
    {
      "sprint_id": "S2",
      "tasks": [
        {"id": "T-002", "title": "B", "estimate_days": 4, "depends_on": ["A"]},
        {"id": "T-003", "title": "C", "depends_on": null}
      ]
    }
  ],
  "summary": {"num_sprints": 9, "risk": "low"}
}`

func mustParse(t *testing.T, raw string) *Plan {
	t.Helper()
	p, err := ParsePlan([]byte(raw))
	require.NoError(t, err)
	return p
}

func TestParsePlan_Normalizes(t *testing.T) {
	p := mustParse(t, samplePlan)

	assert.Equal(t, PlanDraft, p.Status)
	require.Len(t, p.Sprints, 2)
	assert.Equal(t, 5.0, p.Sprints[0].CapacityDays)
	assert.Equal(t, DefaultCapacityDays, p.Sprints[1].CapacityDays)

	c := p.Sprints[1].Tasks[1]
	assert.Equal(t, TaskActive, c.Status)
	assert.Equal(t, DefaultEstimateDays, c.EstimateDays)
	assert.NotNil(t, c.DependsOn)
	assert.Empty(t, c.DependsOn)
}

func TestParsePlan_PreservesUnknownKeys(t *testing.T) {
	p := mustParse(t, samplePlan)

	out, err := EncodePlan(p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "SP-42", doc["sprint_plan_id"])
	assert.Equal(t, []any{"two engineers"}, doc["assumptions"])
	assert.Equal(t, []string{"assumptions", "sprint_plan_id"}, p.ExtraKeys())

	sprint := doc["sprints"].([]any)[0].(map[string]any)
	assert.Equal(t, "foundations", sprint["goal"])
	task := sprint["tasks"].([]any)[0].(map[string]any)
	assert.Equal(t, "high", task["priority"])
	summary := doc["summary"].(map[string]any)
	assert.Equal(t, "low", summary["risk"])
}

func TestParsePlan_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `{"sprints": [`},
		{"not an object", `[1, 2]`},
		{"missing sprints", `{"original_goal": "x"}`},
		{"null sprints", `{"sprints": null}`},
		{"sprints wrong type", `{"sprints": "S1"}`},
		{"duplicate sprint", `{"sprints": [{"sprint_id": "S1"}, {"sprint_id": "S1"}]}`},
		{"duplicate task", `{"sprints": [{"sprint_id": "S1", "tasks": [{"id": "T1"}]}, {"sprint_id": "S2", "tasks": [{"id": "T1"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePlan([]byte(tt.raw))
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParsePlan_EmptySprintList(t *testing.T) {
	p := mustParse(t, `{"sprints": []}`)
	assert.Empty(t, p.Sprints)
	assert.Equal(t, PlanDraft, p.Status)
}

func TestPlan_Clone_IsDeep(t *testing.T) {
	p := mustParse(t, samplePlan)
	c := p.Clone()

	c.Sprints[1].Tasks[0].DependsOn[0] = "changed"
	c.Sprints[0].Tasks[0].Title = "changed"
	c.Sprints = append(c.Sprints, Sprint{SprintID: "S3"})

	assert.Equal(t, "A", p.Sprints[1].Tasks[0].DependsOn[0])
	assert.Equal(t, "A", p.Sprints[0].Tasks[0].Title)
	assert.Len(t, p.Sprints, 2)
}

func TestPlan_FindTask(t *testing.T) {
	p := mustParse(t, samplePlan)

	task, idx := p.FindTask("T-003")
	require.NotNil(t, task)
	assert.Equal(t, "C", task.Title)
	assert.Equal(t, 1, idx)

	task, idx = p.FindTask("nope")
	assert.Nil(t, task)
	assert.Equal(t, -1, idx)

	assert.Equal(t, 1, p.FindSprint("S2"))
	assert.Equal(t, -1, p.FindSprint("S9"))
	assert.Equal(t, 3, p.TaskCount())
}

func TestSplitTitles(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitTitles(" A , ,B,"))
	assert.Equal(t, []string{}, SplitTitles(""))
	assert.Equal(t, []string{}, CleanTitles(nil))
}

func TestAuditLog_RoundTrip(t *testing.T) {
	reason := "obsolete"
	log := AuditLog{}.Append(AuditEntry{
		TimestampUTC: "2026-01-02T03:04:05.000Z",
		Action:       ActionRemoveTask,
		By:           DefaultActor,
		TaskID:       "T-001",
		Reason:       &reason,
	})

	raw, err := EncodeAuditLog(log)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"audit_log"`)

	got, err := ParseAuditLog(raw)
	require.NoError(t, err)
	assert.Equal(t, log, got)
}

func TestEncodeAuditLog_Empty(t *testing.T) {
	raw, err := EncodeAuditLog(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"audit_log": []}`, string(raw))

	got, err := ParseAuditLog([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = ParseAuditLog([]byte(`{"audit_log": 3}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuditLog_AppendDoesNotAlias(t *testing.T) {
	base := make(AuditLog, 1, 4)
	base[0] = AuditEntry{Action: ActionAddTask}

	a := base.Append(AuditEntry{Action: ActionMoveTask})
	b := base.Append(AuditEntry{Action: ActionRemoveTask})

	assert.Len(t, base, 1)
	assert.Equal(t, ActionMoveTask, a[1].Action)
	assert.Equal(t, ActionRemoveTask, b[1].Action)
}
