package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/cli/config"
	"github.com/conduit-lang/beanmeta/internal/diagnostics"
	"github.com/conduit-lang/beanmeta/internal/overridecheck"
)

// NewCheckCommand creates the check command
func NewCheckCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check overriding methods for constraint consistency",
		Long: `Check every method of the model against the methods it overrides.

The metadata of every type is built first, so inconsistent mapping
descriptors or group sequences are reported as errors before any override
rule runs. Rules are selected with the "rules" config key; by default
cascading, group conversions and parameter constraints are checked.

Examples:
  # Check the model configured in beanmeta.yaml
  beanmeta check

  # Check an explicit model with two mapping descriptors
  beanmeta check --model types.yaml --mapping a.yaml --mapping b.yaml

  # Machine-readable output
  beanmeta check --format json

The command exits with a non-zero status when error diagnostics exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			logger, err := flags.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, logger)
		},
	}
}

// runCheck loads the project, builds all metadata and renders the override
// diagnostics. It returns ErrCheckFailed when any diagnostic is an error.
func runCheck(ctx context.Context, w io.Writer, cfg *config.Config, logger *zap.Logger) error {
	p, err := loadProject(cfg, logger)
	if err != nil {
		return err
	}

	rules, err := p.rules()
	if err != nil {
		return err
	}

	if err := p.registry.WarmUp(ctx, p.typeNames()); err != nil {
		return err
	}

	checker := overridecheck.NewChecker(p.graph,
		overridecheck.WithRules(rules...),
		overridecheck.WithLogger(logger),
	)
	diags := overridecheck.Diagnostics(checker.CheckHierarchy(p.graph))

	if err := writeDiagnostics(w, diags, cfg.Output); err != nil {
		return err
	}

	if diagnostics.Summarize(diags).ErrorCount > 0 {
		return ErrCheckFailed
	}
	return nil
}

func writeDiagnostics(w io.Writer, diags []diagnostics.Diagnostic, out config.OutputConfig) error {
	if out.Format == config.FormatJSON {
		s, err := diagnostics.FormatJSON(diags)
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}

	diagnostics.WriteTerminal(w, diags, diagnostics.TerminalOptions{NoColor: out.NoColor})
	return nil
}
