package gitstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/engine"
	"github.com/runoshun/plan-review/internal/testutil"
)

const reviewPlan = `{
  "original_goal": "Billing MVP",
  "sprints": [
    {"sprint_id": "S1", "capacity_days": 5, "tasks": [
      {"id": "T-001", "title": "Schema", "estimate_days": 3, "depends_on": []}
    ]},
    {"sprint_id": "S2", "capacity_days": 5, "tasks": [
      {"id": "T-002", "title": "API", "estimate_days": 4, "depends_on": ["Schema"]}
    ]}
  ]
}`

func TestIntegration_EngineOverGitStore(t *testing.T) {
	store := newTestStore(t)
	clock := &testutil.MockClock{NowTime: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)}
	ctx := context.Background()

	eng := engine.New(store, clock, &testutil.MockLogger{}, "")
	require.NoError(t, eng.Import(ctx, []byte(reviewPlan)))
	clock.Advance(time.Minute)
	id, err := eng.AddTask(ctx, domain.NewTask{SprintID: "S2", Title: "Docs", DependsOn: []string{"API"}})
	require.NoError(t, err)
	require.NoError(t, eng.Approve(ctx))

	// Reopen from the repository
	reopened := engine.New(store, clock, &testutil.MockLogger{}, "")
	require.NoError(t, reopened.Load(ctx))
	plan, err := reopened.Plan()
	require.NoError(t, err)
	assert.Equal(t, domain.PlanApproved, plan.Status)
	task, sprintIdx := plan.FindTask(id)
	require.NotNil(t, task)
	assert.Equal(t, 1, sprintIdx)
	assert.Equal(t, 6.0, plan.Sprints[1].UsedDays)

	exp, err := reopened.Export(ctx)
	require.NoError(t, err)
	stored, err := store.Get(ctx, domain.KeyPlanDraft)
	require.NoError(t, err)
	assert.Equal(t, stored, exp.Plan)

	revs, err := store.History(0)
	require.NoError(t, err)
	// init, import, add_task, approve
	assert.Len(t, revs, 4)

	require.NoError(t, reopened.Clear(ctx))
	assert.ErrorIs(t, engine.New(store, clock, &testutil.MockLogger{}, "").Load(ctx), domain.ErrNoPlan)
	imported, err := store.Get(ctx, domain.KeyPlanImport)
	assert.Nil(t, imported)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}
