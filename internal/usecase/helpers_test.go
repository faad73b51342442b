package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runoshun/plan-review/internal/engine"
	"github.com/runoshun/plan-review/internal/testutil"
)

// reviewDoc has a dependency chain API -> Schema and an over-capacity sprint S2.
const reviewDoc = `{
  "original_goal": "Billing MVP",
  "sprints": [
    {"sprint_id": "S1", "capacity_days": 5, "tasks": [
      {"id": "T-001", "title": "Schema", "estimate_days": 3, "depends_on": []},
      {"id": "T-002", "title": "Fixtures", "estimate_days": 1, "depends_on": ["Schema"]}
    ]},
    {"sprint_id": "S2", "capacity_days": 4, "tasks": [
      {"id": "T-003", "title": "API", "estimate_days": 5, "depends_on": ["Schema"]}
    ]}
  ]
}`

type testEnv struct {
	store *testutil.MockBlobStore
	clock *testutil.MockClock
}

func newTestEnv() *testEnv {
	return &testEnv{
		store: testutil.NewMockBlobStore(),
		clock: &testutil.MockClock{NowTime: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)},
	}
}

// session returns a fresh engine over the shared store, like a new CLI invocation.
func (e *testEnv) session() *engine.Engine {
	return engine.New(e.store, e.clock, &testutil.MockLogger{}, "Reviewer")
}

// imported returns an env whose store holds reviewDoc.
func imported(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv()
	_, err := NewImportPlan(env.session()).Execute(context.Background(), ImportPlanInput{
		Source: strings.NewReader(reviewDoc),
	})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	return env
}

func ptr[T any](v T) *T {
	return &v
}
