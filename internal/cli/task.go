package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runoshun/plan-review/internal/app"
	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/usecase"
)

// newTaskCommand creates the task command.
func newTaskCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Edit tasks in the plan",
		Long: `Edit tasks in the plan under review.

Every successful edit recomputes sprint capacity, is appended to the audit
log and is written to the store. Failed edits change nothing.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newTaskModifyCommand(c))
	cmd.AddCommand(newTaskMoveCommand(c))
	cmd.AddCommand(newTaskRemoveCommand(c))
	cmd.AddCommand(newTaskAddCommand(c))

	return cmd
}

// newTaskModifyCommand creates the task modify subcommand.
func newTaskModifyCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title     string
		DependsOn string
		Estimate  float64
	}

	cmd := &cobra.Command{
		Use:   "modify <task-id>",
		Short: "Change a task's title, estimate or dependencies",
		Long: `Change a task's title, estimate or dependencies.

Only the given flags are applied. --depends-on replaces the dependency list
with a comma-separated list of task titles; pass "" to clear it. A
non-positive estimate keeps the current one.

Examples:
  planreview task modify T-003 --estimate 2.5
  planreview task modify T-003 --depends-on "Schema, Fixtures"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.ModifyTaskInput{
				TaskID: args[0],
				Title:  opts.Title,
			}
			if cmd.Flags().Changed("estimate") {
				in.Estimate = &opts.Estimate
			}
			if cmd.Flags().Changed("depends-on") {
				in.DependsOn = domain.SplitTitles(opts.DependsOn)
				in.ReplaceDependsOn = true
			}

			out, err := c.ModifyTaskUseCase().Execute(cmd.Context(), in)
			writeTaskResult(cmd.OutOrStdout(), "Modified", out)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "New title")
	cmd.Flags().Float64Var(&opts.Estimate, "estimate", 0, "New estimate in days")
	cmd.Flags().StringVar(&opts.DependsOn, "depends-on", "", "Comma-separated dependency titles")

	return cmd
}

// newTaskMoveCommand creates the task move subcommand.
func newTaskMoveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <sprint-id>",
		Short: "Move a task to another sprint",
		Long: `Move a task to the end of a sprint's task list.

Naming the sprint the task is already in moves it to the end of that sprint.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.MoveTaskUseCase().Execute(cmd.Context(), usecase.MoveTaskInput{
				TaskID:   args[0],
				SprintID: args[1],
			})
			writeTaskResult(cmd.OutOrStdout(), "Moved", out)
			return err
		},
	}
}

// newTaskRemoveCommand creates the task remove subcommand.
func newTaskRemoveCommand(c *app.Container) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "remove <task-id>",
		Short: "Mark a task as removed",
		Long: `Mark a task as removed.

The task stays in its sprint for the record but no longer counts towards
capacity. Tasks that depend on it fail validation until they are edited.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.RemoveTaskUseCase().Execute(cmd.Context(), usecase.RemoveTaskInput{
				TaskID: args[0],
				Reason: reason,
			})
			writeTaskResult(cmd.OutOrStdout(), "Removed", out)
			return err
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the task is removed")

	return cmd
}

// newTaskAddCommand creates the task add subcommand.
func newTaskAddCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Sprint    string
		Title     string
		DependsOn string
		Estimate  float64
	}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reviewer task to a sprint",
		Long: `Add a task to the end of a sprint.

Added tasks get the next H-NNN id and type "human_override". The estimate defaults
to 2 days.

Examples:
  planreview task add --sprint S1 --title "Security review" --depends-on API`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := usecase.AddTaskInput{
				SprintID:  opts.Sprint,
				Title:     opts.Title,
				DependsOn: domain.SplitTitles(opts.DependsOn),
			}
			if cmd.Flags().Changed("estimate") {
				in.Estimate = &opts.Estimate
			}

			out, err := c.AddTaskUseCase().Execute(cmd.Context(), in)
			writeTaskResult(cmd.OutOrStdout(), "Added", out)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Sprint, "sprint", "", "Target sprint ID (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Task title")
	cmd.Flags().Float64Var(&opts.Estimate, "estimate", 0, "Estimate in days")
	cmd.Flags().StringVar(&opts.DependsOn, "depends-on", "", "Comma-separated dependency titles")
	_ = cmd.MarkFlagRequired("sprint")

	return cmd
}

// writeTaskResult prints the edited task and the findings after the edit.
// A nil out (rejected edit) prints nothing.
func writeTaskResult(w io.Writer, verb string, out *usecase.TaskOutput) {
	if out == nil {
		return
	}
	t := out.Task
	_, _ = fmt.Fprintf(w, "%s %s %q in %s (%sd)\n", verb, t.ID, t.Title, out.SprintID, days(t.EstimateDays))
	writeFindings(w, out.Validation, false)
}
