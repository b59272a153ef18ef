package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/cli/config"
	"github.com/conduit-lang/beanmeta/internal/utils"
	"github.com/conduit-lang/beanmeta/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run check whenever the model or a mapping changes",
		Long: `Run check once, then watch the model file and every mapping descriptor
and run it again after each change. Bursts of writes are collapsed using
the watch.debounce setting.

Examples:
  beanmeta watch
  beanmeta watch --model types.yaml --mapping constraints.yaml
`,
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

			out := cmd.OutOrStdout()
			watcher, err := newCheckWatcher(cmd, out, cfg, logger)
			if err != nil {
				return err
			}

			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}

			banner := color.New(color.FgCyan, color.Bold)
			if cfg.Output.NoColor {
				banner.DisableColor()
			}
			fmt.Fprintln(out)
			banner.Fprintln(out, "Watching for changes (Ctrl+C to stop)")
			for _, f := range watcher.Files() {
				fmt.Fprintf(out, "   %s\n", f)
			}

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-sigChan:
			case <-cmd.Context().Done():
			}

			fmt.Fprintln(out, "\nShutting down...")
			return watcher.Stop()
		},
	}
}

// newCheckWatcher runs check once and returns a watcher that repeats it on
// every change. Failed checks are reported and watching continues.
func newCheckWatcher(cmd *cobra.Command, out io.Writer, cfg *config.Config, logger *zap.Logger) (*watch.FileWatcher, error) {
	mappings, err := utils.ExpandPaths(cfg.Mappings)
	if err != nil {
		return nil, err
	}
	files := append([]string{cfg.Model}, mappings...)

	run := func() {
		err := runCheck(cmd.Context(), out, cfg, logger)
		if err != nil && !errors.Is(err, ErrCheckFailed) {
			errorColor := color.New(color.FgRed, color.Bold)
			if cfg.Output.NoColor {
				errorColor.DisableColor()
			}
			errorColor.Fprintf(out, "Error: %v\n", err)
		}
	}
	run()

	return watch.NewFileWatcher(files, func(changed []string) error {
		names := make([]string, len(changed))
		for i, f := range changed {
			names[i] = filepath.Base(f)
		}
		fmt.Fprintf(out, "\n[%s] changed: %v\n", time.Now().Format("15:04:05"), names)
		run()
		return nil
	},
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithLogger(logger),
	)
}
