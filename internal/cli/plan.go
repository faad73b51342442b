package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/plan-review/internal/app"
	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/usecase"
)

// ErrValidationFailed is returned by validate when the plan does not pass.
var ErrValidationFailed = errors.New("validation failed")

// newImportCommand creates the import command.
func newImportCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a plan document for review",
		Long: `Import a JSON plan document, replacing any plan under review.

The document is normalized, sprint capacity is recomputed, a new review ID
is assigned and the audit log starts empty. Use "-" to read from stdin.

Error conditions:
- Malformed JSON or missing sprints: "invalid plan document"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open plan: %w", err)
				}
				defer func() { _ = f.Close() }()
				src = f
			}

			out, err := c.ImportPlanUseCase().Execute(cmd.Context(), usecase.ImportPlanInput{Source: src})
			if out != nil {
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "Imported review %s: %d sprints, %d tasks\n",
					out.Plan.ReviewID, len(out.Plan.Sprints), out.Plan.TaskCount())
				writeFindings(w, out.Validation, false)
			}
			return err
		},
	}
}

// newShowCommand creates the show command.
func newShowCommand(c *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the plan under review",
		Long: `Display the plan under review with recomputed sprint capacity.

Output formats:
  text  sprint and task tables followed by validation findings
  json  the plan document
  yaml  the plan document as YAML`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			out, err := c.ShowPlanUseCase().Execute(cmd.Context(), usecase.ShowPlanInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if format != formatText {
				return writeStructured(w, format, out.Plan)
			}
			writePlan(w, out.Plan)
			if out.Validation.HasErrors() || len(out.Validation.Warnings) > 0 {
				_, _ = fmt.Fprintln(w)
				_, _ = fmt.Fprintln(w, headerStyle.Render("Findings"))
				writeFindings(w, out.Validation, false)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format: text, json or yaml")

	return cmd
}

// writePlan prints the plan as one table per sprint.
func writePlan(w io.Writer, p *domain.Plan) {
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Review %s (%s)", p.ReviewID, p.Status)))
	if p.OriginalGoal != "" {
		_, _ = fmt.Fprintf(w, "Goal: %s\n", p.OriginalGoal)
	}
	if p.Status == domain.PlanApproved {
		_, _ = fmt.Fprintf(w, "Approved by %s at %s\n", p.ApprovedBy, p.ApprovedAtUTC)
	}

	for i := range p.Sprints {
		sp := &p.Sprints[i]
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "%s  %s / %s days used, %s remaining\n",
			sp.SprintID, days(sp.UsedDays), days(sp.CapacityDays), days(sp.RemainingCapacityDays))

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for j := range sp.Tasks {
			t := &sp.Tasks[j]
			deps := "-"
			if len(t.DependsOn) > 0 {
				deps = strings.Join(t.DependsOn, ", ")
			}
			title := t.Title
			if t.IsRemoved() {
				title = "[removed] " + title
				if t.RemovedReason != "" {
					title += " (" + t.RemovedReason + ")"
				}
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%sd\t%s\n", t.ID, title, days(t.EstimateDays), deps)
		}
		_ = tw.Flush()
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d sprints, %s days estimated, %s days per sprint",
		p.Summary.NumSprints, days(p.Summary.TotalEstimatedDays), days(p.Summary.AvgDaysPerSprint))))
}

func days(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// newValidateCommand creates the validate command.
func newValidateCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Format string
		Strict bool
	}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the plan for consistency problems",
		Long: `Check the plan under review.

Errors (missing or removed dependencies, ordering violations, duplicate
titles) block approval. Capacity overruns and dependency cycles are warnings.
With --strict, warnings also fail validation.

Exits non-zero when validation fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.Format); err != nil {
				return err
			}
			out, err := c.ValidatePlanUseCase().Execute(cmd.Context(), usecase.ValidatePlanInput{Strict: opts.Strict})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.Format != formatText {
				if err := writeStructured(w, opts.Format, out.Result); err != nil {
					return err
				}
			} else {
				writeFindings(w, out.Result, true)
			}
			if !out.Passed {
				return fmt.Errorf("%w: %d errors, %d warnings", ErrValidationFailed, len(out.Result.Errors), len(out.Result.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Treat warnings as failures")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", formatText, "Output format: text, json or yaml")

	return cmd
}

// newApproveCommand creates the approve command.
func newApproveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "approve",
		Short: "Approve the plan",
		Long: `Approve the plan under review.

Approval is refused while validation reports errors. Warnings do not block.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ApprovePlanUseCase().Execute(cmd.Context(), usecase.ApprovePlanInput{})
			var blocked *domain.ApprovalBlockedError
			if errors.As(err, &blocked) {
				w := cmd.ErrOrStderr()
				_, _ = fmt.Fprintln(w, errorStyle.Render("Approval blocked:"))
				writeFindings(w, domain.ValidationResult{Errors: blocked.Errors}, false)
				return domain.ErrApprovalBlocked
			}
			if out != nil {
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Approved by %s at %s", out.Plan.ApprovedBy, out.Plan.ApprovedAtUTC)))
				writeFindings(w, out.Validation, false)
			}
			return err
		},
	}
}

// newSaveCommand creates the save command.
func newSaveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the plan and audit log to the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.SavePlanUseCase().Execute(cmd.Context(), usecase.SavePlanInput{})
			if err != nil {
				return err
			}
			if out.WasDirty {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Saved pending changes")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Saved (no pending changes)")
			}
			return nil
		},
	}
}

// newClearCommand creates the clear command.
func newClearCommand(c *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the plan and audit log",
		Long: `Remove the plan under review and its audit log from the store.

Requires --force. This cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return errors.New("refusing to clear without --force")
			}
			if _, err := c.ClearPlanUseCase().Execute(cmd.Context(), usecase.ClearPlanInput{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cleared plan and audit log")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm discarding the plan")

	return cmd
}

// newExportCommand creates the export command.
func newExportCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Dir    string
		Stdout bool
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the final plan and audit log",
		Long: `Write final_plan.json and audit_log.json to --dir.

The files hold exactly the documents kept in the store. Their BLAKE3
digests are printed so copies can be checked later. With --stdout only
the plan is written to standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := usecase.ExportPlanInput{}
			if !opts.Stdout {
				in.Dir = opts.Dir
			}
			out, err := c.ExportPlanUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.Stdout {
				_, err := w.Write(out.Export.Plan)
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "%s\tblake3:%s\n", out.PlanPath, out.Export.PlanDigest)
			_, _ = fmt.Fprintf(tw, "%s\tblake3:%s\n", out.AuditPath, out.Export.AuditDigest)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "Directory to write the export files to")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Write the plan to stdout instead of files")

	return cmd
}

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the review state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowStatusUseCase().Execute(cmd.Context(), usecase.ShowStatusInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !out.HasPlan {
				_, _ = fmt.Fprintln(w, mutedStyle.Render("No plan under review (run 'planreview import')"))
				return nil
			}

			saved := "saved"
			if out.Dirty {
				saved = "unsaved changes"
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "Review:\t%s\n", out.ReviewID)
			_, _ = fmt.Fprintf(tw, "Status:\t%s (%s)\n", out.Status, saved)
			_, _ = fmt.Fprintf(tw, "Last modified:\t%s\n", dash(out.LastModifiedUTC))
			if out.Status == domain.PlanApproved {
				_, _ = fmt.Fprintf(tw, "Approved:\t%s by %s\n", out.ApprovedAtUTC, out.ApprovedBy)
			}
			_, _ = fmt.Fprintf(tw, "Sprints:\t%d\n", out.Sprints)
			_, _ = fmt.Fprintf(tw, "Tasks:\t%d active, %d removed\n", out.ActiveTasks, out.RemovedTasks)
			_, _ = fmt.Fprintf(tw, "Estimated:\t%s days\n", days(out.Summary.TotalEstimatedDays))
			_, _ = fmt.Fprintf(tw, "Audit entries:\t%d\n", out.AuditEntries)
			_, _ = fmt.Fprintf(tw, "Findings:\t%d errors, %d warnings\n", out.Errors, out.Warnings)
			if out.Store != nil {
				_, _ = fmt.Fprintf(tw, "Store:\t%s\n", describeStore(out.Store))
			}
			return tw.Flush()
		},
	}
}

// describeStore renders the parts of the write history the backend records.
func describeStore(st *domain.StoreStats) string {
	parts := []string{string(st.Backend)}
	if st.Revisions > 0 {
		parts = append(parts, fmt.Sprintf("%d writes", st.Revisions))
	}
	if !st.LastWrite.IsZero() {
		parts = append(parts, "last write "+domain.FormatTimestamp(st.LastWrite))
	}
	if st.LastOp != "" {
		parts = append(parts, "last op "+st.LastOp)
	}
	return strings.Join(parts, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
