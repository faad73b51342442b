// Package cli provides the command-line interface for planreview.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/plan-review/internal/app"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupReview  = "review"
	groupHistory = "history"
)

// NewRootCommand creates the root command for planreview.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "planreview",
		Short: "Review, edit and approve sprint plans",
		Long: `planreview keeps an AI-generated sprint plan consistent while a human
reviews it. Every edit recomputes sprint capacity, is validated against
dependency and capacity rules, and is recorded in an append-only audit log.

Typical flow:
  planreview init
  planreview import plan.json
  planreview task move T-002 S2
  planreview validate
  planreview approve
  planreview export`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("Warning: "+w))
			}
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupReview, Title: "Review Commands:"},
		&cobra.Group{ID: groupHistory, Title: "History Commands:"},
	)

	// Setup commands
	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	// Review commands
	importCmd := newImportCommand(c)
	importCmd.GroupID = groupReview

	showCmd := newShowCommand(c)
	showCmd.GroupID = groupReview

	validateCmd := newValidateCommand(c)
	validateCmd.GroupID = groupReview

	taskCmd := newTaskCommand(c)
	taskCmd.GroupID = groupReview

	approveCmd := newApproveCommand(c)
	approveCmd.GroupID = groupReview

	saveCmd := newSaveCommand(c)
	saveCmd.GroupID = groupReview

	clearCmd := newClearCommand(c)
	clearCmd.GroupID = groupReview

	exportCmd := newExportCommand(c)
	exportCmd.GroupID = groupReview

	// History commands
	auditCmd := newAuditCommand(c)
	auditCmd.GroupID = groupHistory

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupHistory

	logsCmd := newLogsCommand(c)
	logsCmd.GroupID = groupHistory

	root.AddCommand(
		initCmd,
		configCmd,
		importCmd,
		showCmd,
		validateCmd,
		taskCmd,
		approveCmd,
		saveCmd,
		clearCmd,
		exportCmd,
		auditCmd,
		statusCmd,
		logsCmd,
	)

	return root
}
