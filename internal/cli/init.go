package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/plan-review/internal/app"
	"github.com/runoshun/plan-review/internal/domain"
	"github.com/runoshun/plan-review/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Backend string
		Actor   string
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize planreview in the current project",
		Long: `Initialize the current project for planreview.

This command creates the .planreview/ directory with:
- config.toml: repository configuration
- logs/: directory for log files
- the state store selected by --backend (state.json, state.db, or a git ref)

Error conditions:
- Already initialized: "planreview already initialized"
- Unknown backend: "unknown store backend"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *c.AppConfig
			cfg.Warnings = nil
			if opts.Backend != "" {
				cfg.Store.Backend = domain.StoreBackend(opts.Backend)
			}
			if !cfg.Store.Backend.IsValid() {
				return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Store.Backend)
			}
			if opts.Actor != "" {
				cfg.Review.Actor = opts.Actor
			}

			uc, err := c.InitRepoUseCase(&cfg)
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.InitRepoInput{
				Config: &cfg,
				Dir:    c.Config.Dir,
				Root:   c.Config.Root,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Initialized planreview in %s (backend: %s)\n", out.Dir, cfg.Store.Backend)
			if !out.ConfigCreated {
				_, _ = fmt.Fprintln(w, mutedStyle.Render("Kept existing config.toml"))
			}
			if out.GitignoreNeedsAdd {
				_, _ = fmt.Fprintln(w, warningStyle.Render("Hint: add .planreview/ to .gitignore"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Store backend: json, git or sqlite")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "Reviewer name recorded in audit entries")

	return cmd
}
