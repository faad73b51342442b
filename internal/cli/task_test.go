package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/plan-review/internal/domain"
)

func TestTaskCommand_NoSubcommand_ShowsHelp(t *testing.T) {
	res := newTestEnv(t).run("", "task")

	require.NoError(t, res.err)
	for _, s := range []string{"modify", "move", "remove", "add"} {
		assert.Contains(t, res.stdout, s)
	}
}

func TestTaskModifyCommand(t *testing.T) {
	// Setup
	env := imported(t)

	// Execute
	res := env.run("", "task", "modify", "T-003", "--title", "Public API", "--estimate", "2.5")

	// Assert: dependencies are kept when --depends-on is not given
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `Modified T-003 "Public API" in S2 (2.5d)`)

	audit := auditEntries(t, env)
	require.Len(t, audit, 1)
	assert.Equal(t, domain.ActionModifyTask, audit[0].Action)
	assert.Equal(t, []string{"Schema"}, audit[0].After.DependsOn)
}

func TestTaskModifyCommand_ClearDependencies(t *testing.T) {
	env := imported(t)

	res := env.run("", "task", "modify", "T-002", "--depends-on", "")

	require.NoError(t, res.err)
	audit := auditEntries(t, env)
	require.Len(t, audit, 1)
	assert.Equal(t, []string{}, audit[0].After.DependsOn)
}

func TestTaskModifyCommand_NotFound(t *testing.T) {
	env := imported(t)
	before := env.store.Snapshot()

	res := env.run("", "task", "modify", "T-404", "--title", "x")

	assert.ErrorIs(t, res.err, domain.ErrTaskNotFound)
	assert.Empty(t, res.stdout)
	assert.Equal(t, before, env.store.Snapshot())
}

func TestTaskModifyCommand_OverflowingEstimate(t *testing.T) {
	// Setup
	env := imported(t)
	require.NoError(t, env.run("", "task", "modify", "T-001", "--estimate", "1.7e308").err)
	before := env.store.Snapshot()

	// Execute
	res := env.run("", "task", "modify", "T-002", "--estimate", "1.7e308")

	// Assert
	assert.ErrorIs(t, res.err, domain.ErrEstimateOverflow)
	assert.Empty(t, res.stdout)
	assert.Equal(t, before, env.store.Snapshot())
	assert.Len(t, auditEntries(t, env), 1)
}

func TestTaskMoveCommand(t *testing.T) {
	// Setup
	env := imported(t)

	// Execute
	res := env.run("", "task", "move", "T-002", "S2")

	// Assert
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `Moved T-002 "Fixtures" in S2 (1d)`)
	assert.Contains(t, res.stdout, "Capacity warning: S2 used_days=6 > capacity_days=4.")

	show := env.run("", "show")
	require.NoError(t, show.err)
	assert.Contains(t, show.stdout, "S1  3 / 5 days used, 2 remaining")
}

func TestTaskMoveCommand_Errors(t *testing.T) {
	tests := []struct {
		want error
		name string
		args []string
	}{
		{name: "unknown task", args: []string{"T-404", "S2"}, want: domain.ErrTaskNotInSprint},
		{name: "unknown sprint", args: []string{"T-001", "S9"}, want: domain.ErrSprintNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := imported(t)

			res := env.run("", append([]string{"task", "move"}, tt.args...)...)

			assert.ErrorIs(t, res.err, tt.want)
			assert.Empty(t, auditEntries(t, env))
		})
	}
}

func TestTaskRemoveCommand(t *testing.T) {
	env := imported(t)

	res := env.run("", "task", "remove", "T-001", "--reason", "out of scope")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `Removed T-001 "Schema"`)
	assert.Contains(t, res.stdout, "error:   Task 'Fixtures' depends on REMOVED task 'Schema'.")

	show := env.run("", "show")
	require.NoError(t, show.err)
	assert.Contains(t, show.stdout, "[removed] Schema (out of scope)")
}

func TestTaskAddCommand(t *testing.T) {
	// Setup
	env := imported(t)

	// Execute
	res := env.run("", "task", "add", "--sprint", "S1", "--title", "Docs", "--depends-on", "Schema, API")

	// Assert
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `Added H-004 "Docs" in S1 (2d)`)

	audit := auditEntries(t, env)
	require.Len(t, audit, 1)
	assert.Equal(t, domain.ActionAddTask, audit[0].Action)
	assert.Equal(t, "S1", audit[0].SprintID)
	assert.Equal(t, []string{"Schema", "API"}, audit[0].Task.DependsOn)
}

func TestTaskAddCommand_ReviewerTaskType(t *testing.T) {
	env := imported(t)
	require.NoError(t, env.run("", "task", "add", "--sprint", "S2", "--title", "Docs").err)

	show := env.run("", "show", "-o", "json")
	help := env.run("", "task", "add", "--help")

	require.NoError(t, show.err)
	var plan domain.Plan
	require.NoError(t, json.Unmarshal([]byte(show.stdout), &plan))
	added, _ := plan.FindTask("H-004")
	require.NotNil(t, added)
	assert.Equal(t, domain.HumanTaskType, added.Type)
	require.NoError(t, help.err)
	assert.Contains(t, help.stdout, `type "`+domain.HumanTaskType+`"`)
}

func TestTaskAddCommand_Errors(t *testing.T) {
	t.Run("sprint required", func(t *testing.T) {
		res := imported(t).run("", "task", "add", "--title", "Docs")
		assert.ErrorContains(t, res.err, "sprint")
	})

	t.Run("unknown sprint", func(t *testing.T) {
		res := imported(t).run("", "task", "add", "--sprint", "S9", "--title", "Docs")
		assert.ErrorIs(t, res.err, domain.ErrSprintNotFound)
	})
}

func TestAuditCommand(t *testing.T) {
	// Setup
	env := imported(t)
	require.NoError(t, env.run("", "task", "move", "T-002", "S2").err)
	require.NoError(t, env.run("", "task", "remove", "T-003", "--reason", "later").err)

	t.Run("text", func(t *testing.T) {
		res := env.run("", "audit")

		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "T-002: S1 -> S2")
		assert.Contains(t, res.stdout, "T-003 (later)")
	})

	t.Run("filtered", func(t *testing.T) {
		res := env.run("", "audit", "--task", "T-003")

		require.NoError(t, res.err)
		assert.NotContains(t, res.stdout, "T-002")
		assert.Contains(t, res.stdout, "(1 of 2 entries)")
	})

	t.Run("yaml", func(t *testing.T) {
		res := env.run("", "audit", "-o", "yaml", "--limit", "1")

		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "action: remove_task")
		assert.Contains(t, res.stdout, "reason: later")
		assert.NotContains(t, res.stdout, "move_task")
	})
}

func TestAuditCommand_Empty(t *testing.T) {
	res := imported(t).run("", "audit")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No audit entries")
}

func TestLogsCommand_NoFile(t *testing.T) {
	res := newTestEnv(t).run("", "logs")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No log entries")
}

// auditEntries reads the audit log through the audit command.
func auditEntries(t *testing.T, env *testEnv) []domain.AuditEntry {
	t.Helper()
	res := env.run("", "audit", "-o", "json")
	require.NoError(t, res.err)
	var entries []domain.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &entries))
	return entries
}
