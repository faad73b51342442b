package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPlan assembles a normalized plan from sprints.
func buildPlan(sprints ...Sprint) *Plan {
	p := &Plan{Sprints: sprints}
	p.Normalize()
	recompute(p)
	return p
}

func sprint(id string, capacity float64, tasks ...Task) Sprint {
	return Sprint{SprintID: id, CapacityDays: capacity, Tasks: tasks}
}

func task(id, title string, estimate float64, deps ...string) Task {
	return Task{ID: id, Title: title, EstimateDays: estimate, DependsOn: deps}
}

func TestRecompute_ScenarioA(t *testing.T) {
	p := buildPlan(
		sprint("S1", 5, task("T1", "A", 3)),
		sprint("S2", 0, task("T2", "B", 4, "A")),
	)

	res := Validate(p)

	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 3.0, p.Sprints[0].UsedDays)
	assert.Equal(t, 2.0, p.Sprints[0].RemainingCapacityDays)
	assert.Equal(t, 4.0, p.Sprints[1].UsedDays)
	assert.Equal(t, 10.0, p.Sprints[1].RemainingCapacityDays)
	assert.Equal(t, 2, p.Summary.NumSprints)
	assert.Equal(t, 7.0, p.Summary.TotalEstimatedDays)
	assert.Equal(t, 3.5, p.Summary.AvgDaysPerSprint)
}

func TestRecompute_IsPureAndIdempotent(t *testing.T) {
	p := &Plan{Sprints: []Sprint{sprint("S1", 5, task("T1", "A", 3), task("T2", "B", 0))}}

	once := Recompute(p)
	twice := Recompute(once)

	assert.Equal(t, 0.0, p.Sprints[0].UsedDays, "input must not change")
	assert.Equal(t, 4.0, once.Sprints[0].UsedDays, "absent estimate counts as 1")
	assert.Equal(t, once, twice)
}

func TestRecompute_ExcludesRemovedTasks(t *testing.T) {
	removed := task("T2", "B", 4)
	removed.Status = TaskRemoved
	p := buildPlan(sprint("S1", 10, task("T1", "A", 3), removed))

	assert.Equal(t, 3.0, p.Sprints[0].UsedDays)
	assert.Equal(t, 3.0, p.Summary.TotalEstimatedDays)
}

func TestRecompute_SumInvariantAndNonNegative(t *testing.T) {
	p := buildPlan(
		sprint("S1", 2, task("T1", "A", 5), task("T2", "B", 1.5)),
		sprint("S2", 3, task("T3", "C", 1)),
		sprint("S3", 4),
	)

	total := 0.0
	for _, sp := range p.Sprints {
		assert.GreaterOrEqual(t, sp.RemainingCapacityDays, 0.0)
		total += sp.UsedDays
	}
	assert.Equal(t, total, p.Summary.TotalEstimatedDays)
	assert.Equal(t, 2.5, p.Summary.AvgDaysPerSprint)
}

func TestRecompute_AverageRoundsToTwoPlaces(t *testing.T) {
	p := buildPlan(
		sprint("S1", 0, task("T1", "A", 1)),
		sprint("S2", 0),
		sprint("S3", 0),
	)
	assert.Equal(t, 0.33, p.Summary.AvgDaysPerSprint)
}

func TestRecompute_NilPlan(t *testing.T) {
	assert.Nil(t, Recompute(nil))
}

func TestRecompute_NoSprints(t *testing.T) {
	p := buildPlan()
	assert.Equal(t, 0, p.Summary.NumSprints)
	assert.Equal(t, 0.0, p.Summary.AvgDaysPerSprint)
}

func TestValidate_ScenarioB_OrderingError(t *testing.T) {
	p := buildPlan(
		sprint("S1", 0, task("T1", "B", 1, "A")),
		sprint("S2", 0, task("T2", "A", 1)),
	)

	res := Validate(p)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Sprint ordering error: 'B' is in Sprint 1 but dependency 'A' is in Sprint 2.", res.Errors[0])
}

func TestValidate_SameSprintDependencyIsFine(t *testing.T) {
	p := buildPlan(sprint("S1", 0, task("T1", "B", 1, "A"), task("T2", "A", 1)))
	assert.Empty(t, Validate(p).Errors)
}

func TestValidate_ScenarioC_MissingDependency(t *testing.T) {
	p := buildPlan(sprint("S1", 0, task("T1", "X", 1, "Ghost")))

	res := Validate(p)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Task 'X' depends on missing task title 'Ghost'.", res.Errors[0])
}

func TestValidate_RemovedDependency(t *testing.T) {
	a := task("T1", "A", 2)
	a.Status = TaskRemoved
	p := buildPlan(sprint("S1", 0, a, task("T2", "B", 1, "A")))

	res := Validate(p)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Task 'B' depends on REMOVED task 'A'.", res.Errors[0])
}

func TestValidate_RemovedTasksAreNotChecked(t *testing.T) {
	b := task("T1", "B", 1, "Ghost")
	b.Status = TaskRemoved
	p := buildPlan(sprint("S1", 0, b))
	assert.Empty(t, Validate(p).Errors)
}

func TestValidate_TitlesAreTrimmed(t *testing.T) {
	p := buildPlan(sprint("S1", 0, task("T1", "  A ", 1), task("T2", "B", 1, " A")))
	assert.Empty(t, Validate(p).Errors)
}

func TestValidate_ScenarioF_CapacityWarning(t *testing.T) {
	p := buildPlan(sprint("S1", 5, task("T1", "A", 3), task("T2", "B", 5)))

	res := Validate(p)

	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "Capacity warning: S1 used_days=8 > capacity_days=5.", res.Warnings[0])
	assert.Equal(t, 0.0, p.Sprints[0].RemainingCapacityDays)
}

func TestValidate_CapacityAtLimitDoesNotWarn(t *testing.T) {
	p := buildPlan(sprint("S1", 5, task("T1", "A", 2.5), task("T2", "B", 2.5)))
	assert.Empty(t, Validate(p).Warnings)
}

func TestValidate_ActiveTitleWinsOverRemoved(t *testing.T) {
	old := task("T1", "A", 1)
	old.Status = TaskRemoved
	p := buildPlan(
		sprint("S1", 0, task("T2", "A", 1)),
		sprint("S2", 0, old, task("T3", "B", 1, "A")),
	)

	assert.Empty(t, Validate(p).Errors)
}

func TestValidate_DuplicateActiveTitles(t *testing.T) {
	p := buildPlan(
		sprint("S1", 0, task("T1", "A", 1)),
		sprint("S2", 0, task("T2", "A", 1)),
	)

	res := Validate(p)

	require.Len(t, res.Errors, 1)
	assert.Equal(t,
		"Duplicate task title 'A' is used by tasks T1, T2; dependency references to it are ambiguous.",
		res.Errors[0])
}

func TestValidate_UntitledTaskStillCheckedForOrdering(t *testing.T) {
	p := buildPlan(
		sprint("S1", 0, task("T1", "", 1, "A")),
		sprint("S2", 0, task("T2", "A", 1)),
	)

	res := Validate(p)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Sprint ordering error")
}

func TestValidate_Cycle(t *testing.T) {
	p := buildPlan(sprint("S1", 0,
		task("T1", "A", 1, "B"),
		task("T2", "B", 1, "A"),
		task("T3", "C", 1, "C"),
	))

	res := Validate(p)

	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{
		"Dependency cycle detected: A -> B -> A.",
		"Dependency cycle detected: C -> C.",
	}, res.Warnings)
}

func TestApprove_CycleDoesNotBlock(t *testing.T) {
	// Setup
	p := buildPlan(sprint("S1", 0, task("T1", "A", 1, "B"), task("T2", "B", 1, "A")))

	// Execute
	next, err := Approve(Snapshot{Plan: p}, Stamp{By: "Reviewer"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, PlanApproved, next.Plan.Status)
	assert.Equal(t, []string{"Dependency cycle detected: A -> B -> A."}, Validate(next.Plan).Warnings)
}

func TestValidate_CycleThroughRemovedTaskIsIgnored(t *testing.T) {
	b := task("T2", "B", 1, "A")
	b.Status = TaskRemoved
	p := buildPlan(sprint("S1", 0, task("T1", "A", 1, "B"), b))

	res := Validate(p)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Task 'A' depends on REMOVED task 'B'.", res.Errors[0])
	assert.Empty(t, res.Warnings)
}

func TestValidate_DoesNotModifyPlan(t *testing.T) {
	p := buildPlan(sprint("S1", 1, task("T1", "A", 3, "Ghost")))
	before := p.Clone()

	Validate(p)

	assert.Equal(t, before, p)
}

func TestValidate_NilPlan(t *testing.T) {
	res := Validate(nil)
	assert.NotNil(t, res.Errors)
	assert.NotNil(t, res.Warnings)
	assert.False(t, res.HasErrors())
}
