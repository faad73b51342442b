package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/usecase"
)

func TestImportCommand_Stdin(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Execute
	res := env.run(reviewDoc, "import", "-")

	// Assert
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "2 sprints, 3 tasks")
	assert.Contains(t, res.stdout, "warning: Capacity warning: S2 used_days=5 > capacity_days=4.")
	assert.Contains(t, env.store.Blobs, domain.KeyPlanDraft)
}

func TestImportCommand_File(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(reviewDoc), 0o600))

	res := env.run("", "import", path)

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "2 sprints, 3 tasks")
}

func TestImportCommand_Errors(t *testing.T) {
	t.Run("invalid document", func(t *testing.T) {
		env := newTestEnv(t)

		res := env.run(`{"sprints": "nope"}`, "import", "-")

		assert.ErrorIs(t, res.err, domain.ErrInvalidInput)
		assert.Empty(t, env.store.Blobs)
	})

	t.Run("missing file", func(t *testing.T) {
		res := newTestEnv(t).run("", "import", filepath.Join(t.TempDir(), "missing.json"))

		assert.ErrorContains(t, res.err, "open plan")
	})

	t.Run("no argument", func(t *testing.T) {
		res := newTestEnv(t).run("", "import")

		assert.Error(t, res.err)
	})
}

func TestShowCommand_Text(t *testing.T) {
	env := imported(t)

	res := env.run("", "show")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Goal: Billing MVP")
	assert.Contains(t, res.stdout, "S1  4 / 5 days used, 1 remaining")
	assert.Contains(t, res.stdout, "S2  5 / 4 days used, 0 remaining")
	assert.Contains(t, res.stdout, "Fixtures")
	assert.Contains(t, res.stdout, "Findings")
	assert.Contains(t, res.stdout, "2 sprints, 9 days estimated, 4.5 days per sprint")
}

func TestShowCommand_JSON(t *testing.T) {
	env := imported(t)

	res := env.run("", "show", "-o", "json")

	require.NoError(t, res.err)
	var plan domain.Plan
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &plan))
	assert.Equal(t, "Billing MVP", plan.OriginalGoal)
	require.Len(t, plan.Sprints, 2)
	assert.Equal(t, 4.0, plan.Sprints[0].UsedDays)
	assert.NotEmpty(t, plan.ReviewID)
}

func TestShowCommand_YAML(t *testing.T) {
	env := imported(t)

	res := env.run("", "show", "--output", "yaml")

	require.NoError(t, res.err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "Billing MVP", doc["original_goal"])
	assert.Equal(t, "draft", doc["status"])
	assert.Contains(t, res.stdout, "sprint_id: S1")
	assert.NotContains(t, res.stdout, "{")
}

func TestShowCommand_Errors(t *testing.T) {
	t.Run("no plan", func(t *testing.T) {
		res := newTestEnv(t).run("", "show")
		assert.ErrorIs(t, res.err, domain.ErrNoPlan)
	})

	t.Run("unknown format", func(t *testing.T) {
		res := imported(t).run("", "show", "-o", "xml")
		assert.ErrorContains(t, res.err, "unknown output format")
	})
}

func TestValidateCommand(t *testing.T) {
	t.Run("warnings pass", func(t *testing.T) {
		res := imported(t).run("", "validate")

		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "warning: Capacity warning: S2")
	})

	t.Run("strict fails on warnings", func(t *testing.T) {
		res := imported(t).run("", "validate", "--strict")

		assert.ErrorIs(t, res.err, ErrValidationFailed)
		assert.ErrorContains(t, res.err, "0 errors, 1 warnings")
	})

	t.Run("errors fail", func(t *testing.T) {
		env := imported(t)
		require.NoError(t, env.run("", "task", "remove", "T-001").err)

		res := env.run("", "validate", "-o", "json")

		assert.ErrorIs(t, res.err, ErrValidationFailed)
		var result domain.ValidationResult
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &result))
		assert.Equal(t, []string{
			"Task 'Fixtures' depends on REMOVED task 'Schema'.",
			"Task 'API' depends on REMOVED task 'Schema'.",
		}, result.Errors)
	})

	t.Run("clean plan", func(t *testing.T) {
		env := imported(t)
		require.NoError(t, env.run("", "task", "modify", "T-003", "--estimate", "4").err)

		res := env.run("", "validate", "--strict")

		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "no issues found")
	})
}

func TestApproveCommand(t *testing.T) {
	// Setup
	env := imported(t)

	// Execute
	res := env.run("", "approve")

	// Assert
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Approved by Project Manager at 2026-03-04T05:07:07.000Z")

	status := env.run("", "status")
	require.NoError(t, status.err)
	assert.Contains(t, status.stdout, "approved (saved)")
	assert.Contains(t, status.stdout, "2026-03-04T05:07:07.000Z by Project Manager")
}

func TestApproveCommand_Blocked(t *testing.T) {
	// Setup
	env := imported(t)
	require.NoError(t, env.run("", "task", "modify", "T-002", "--depends-on", "Ghost").err)
	before := env.store.Snapshot()

	// Execute
	res := env.run("", "approve")

	// Assert
	assert.ErrorIs(t, res.err, domain.ErrApprovalBlocked)
	assert.Contains(t, res.stderr, "Approval blocked:")
	assert.Contains(t, res.stderr, "Task 'Fixtures' depends on missing task title 'Ghost'.")
	assert.Equal(t, before, env.store.Snapshot())
}

func TestSaveCommand(t *testing.T) {
	env := imported(t)
	puts := env.store.PutCalls

	res := env.run("", "save")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "no pending changes")
	assert.Equal(t, puts+1, env.store.PutCalls)
}

func TestClearCommand(t *testing.T) {
	t.Run("requires force", func(t *testing.T) {
		env := imported(t)

		res := env.run("", "clear")

		assert.ErrorContains(t, res.err, "--force")
		assert.Contains(t, env.store.Blobs, domain.KeyPlanDraft)
	})

	t.Run("clears plan", func(t *testing.T) {
		env := imported(t)

		res := env.run("", "clear", "--force")

		require.NoError(t, res.err)
		assert.NotContains(t, env.store.Blobs, domain.KeyPlanDraft)
		status := env.run("", "status")
		require.NoError(t, status.err)
		assert.Contains(t, status.stdout, "No plan under review")
	})
}

func TestExportCommand(t *testing.T) {
	// Setup
	env := imported(t)
	dir := filepath.Join(t.TempDir(), "out")

	// Execute
	res := env.run("", "export", "--dir", dir)

	// Assert
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, filepath.Join(dir, usecase.ExportPlanFile))
	assert.Contains(t, res.stdout, "blake3:")
	plan, err := os.ReadFile(filepath.Join(dir, usecase.ExportPlanFile))
	require.NoError(t, err)
	assert.Equal(t, env.store.Blobs[domain.KeyPlanDraft], plan)
	assert.FileExists(t, filepath.Join(dir, usecase.ExportAuditFile))
}

func TestExportCommand_Stdout(t *testing.T) {
	env := imported(t)

	res := env.run("", "export", "--stdout")

	require.NoError(t, res.err)
	assert.Equal(t, string(env.store.Blobs[domain.KeyPlanDraft]), res.stdout)
}

func TestStatusCommand(t *testing.T) {
	env := imported(t)
	require.NoError(t, env.run("", "task", "remove", "T-002", "--reason", "merged").err)

	res := env.run("", "status")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "draft (saved)")
	assert.Contains(t, res.stdout, "2 active, 1 removed")
	assert.Contains(t, res.stdout, "Audit entries:  1")
	assert.Contains(t, res.stdout, "0 errors, 1 warnings")
	assert.Contains(t, res.stdout, "mock, 2 writes, last op put")
}
