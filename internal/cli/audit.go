package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/plan-review/internal/app"
	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/usecase"
)

// newAuditCommand creates the audit command.
func newAuditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Format string
		TaskID string
		Limit  int
	}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Display the audit log",
		Long: `Display the audit log of the plan under review, oldest entry first.

Output formats:
  text  one line per entry
  json  the audit entries
  yaml  the audit entries as YAML`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.Format); err != nil {
				return err
			}
			out, err := c.ShowAuditUseCase().Execute(cmd.Context(), usecase.ShowAuditInput{
				TaskID: opts.TaskID,
				Limit:  opts.Limit,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.Format != formatText {
				return writeStructured(w, opts.Format, out.Entries)
			}
			if len(out.Entries) == 0 {
				_, _ = fmt.Fprintln(w, mutedStyle.Render("No audit entries"))
				return nil
			}
			for _, e := range out.Entries {
				_, _ = fmt.Fprintf(w, "%s  %s  %-12s %s\n",
					mutedStyle.Render(e.TimestampUTC), e.By, e.Action, describeEntry(e))
			}
			if len(out.Entries) < out.Total {
				_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("(%d of %d entries)", len(out.Entries), out.Total)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().StringVar(&opts.TaskID, "task", "", "Only entries for this task ID")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Show only the most recent N entries")

	return cmd
}

// describeEntry summarizes the payload of an audit entry.
func describeEntry(e domain.AuditEntry) string {
	switch e.Action {
	case domain.ActionModifyTask:
		return fmt.Sprintf("%s: %s -> %s", e.TaskID, describeFields(e.Before), describeFields(e.After))
	case domain.ActionMoveTask:
		return fmt.Sprintf("%s: %s -> %s", e.TaskID, e.FromSprint, e.ToSprint)
	case domain.ActionRemoveTask:
		if e.Reason != nil && *e.Reason != "" {
			return fmt.Sprintf("%s (%s)", e.TaskID, *e.Reason)
		}
		return e.TaskID
	case domain.ActionAddTask:
		return fmt.Sprintf("%s in %s: %s", e.TaskID, e.SprintID, describeFields(e.Task))
	}
	return e.TaskID
}

func describeFields(f *domain.TaskFields) string {
	if f == nil {
		return "-"
	}
	s := fmt.Sprintf("%q %sd", f.Title, days(f.EstimateDays))
	if len(f.DependsOn) > 0 {
		s += " after " + strings.Join(f.DependsOn, ", ")
	}
	return s
}

// newLogsCommand creates the logs command.
func newLogsCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Lines  int
		Review bool
	}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the operation log",
		Long: `Display .planreview/logs/planreview.log.

Every committed or rejected edit, import and persistence failure is logged.
With --review, only lines for the plan currently under review are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowLogsUseCase().Execute(cmd.Context(), usecase.ShowLogsInput{
				Lines:      opts.Lines,
				ReviewOnly: opts.Review,
			})
			if err != nil {
				return err
			}
			return writeLog(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 0, "Number of lines to display from the end (0 = all)")
	cmd.Flags().BoolVar(&opts.Review, "review", false, "Only show lines for the current review")

	return cmd
}

func writeLog(w io.Writer, out *usecase.ShowLogsOutput) error {
	if out.Content == "" {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No log entries in "+out.LogPath))
		return nil
	}
	_, err := fmt.Fprint(w, out.Content)
	return err
}
