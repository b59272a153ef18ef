package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/beanmeta/internal/cli/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// ErrCheckFailed is returned by check when error diagnostics were reported.
var ErrCheckFailed = errors.New("override check failed")

// globalFlags holds the persistent flags shared by every subcommand
type globalFlags struct {
	configFile string
	model      string
	mappings   []string
	format     string
	noColor    bool
	verbose    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "beanmeta",
		Short: "Constraint metadata and override consistency tooling",
		Long: color.CyanString(`beanmeta - constraint metadata for class hierarchies

beanmeta reads a type model and optional mapping descriptors, aggregates the
constraint metadata of every type and checks that overriding methods keep the
validation contract of the methods they override.

Commands:
  • check     report override violations
  • describe  print the aggregated metadata of a type
  • watch     re-run check whenever the model or a mapping changes`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file (default ./beanmeta.yaml)")
	pf.StringVar(&flags.model, "model", "", "Type model file")
	pf.StringArrayVar(&flags.mappings, "mapping", nil, "Mapping descriptor file (repeatable)")
	pf.StringVar(&flags.format, "format", "", "Output format: terminal or json")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand(flags))
	rootCmd.AddCommand(NewDescribeCommand(flags))
	rootCmd.AddCommand(NewWatchCommand(flags))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the beanmeta version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "beanmeta version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// settings loads the configuration and applies the flags that were set on
// the command line over it.
func (f *globalFlags) settings(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configFile != "" {
		cfg, err = config.LoadFile(f.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("model") {
		cfg.Model = f.model
	}
	if cmd.Flags().Changed("mapping") {
		cfg.Mappings = append([]string(nil), f.mappings...)
	}
	if cmd.Flags().Changed("format") {
		switch f.format {
		case config.FormatTerminal, config.FormatJSON:
			cfg.Output.Format = f.format
		default:
			return nil, fmt.Errorf("--format must be %q or %q, got: %s", config.FormatTerminal, config.FormatJSON, f.format)
		}
	}
	if f.noColor {
		cfg.Output.NoColor = true
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds a development logger for --verbose and a production
// logger at the configured level otherwise. Logs always go to stderr.
func (f *globalFlags) newLogger(cfg *config.Config) (*zap.Logger, error) {
	if f.verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	zcfg.Sampling = nil
	return zcfg.Build()
}

// Execute runs the root command
func Execute() error {
	return ExecuteWith(NewRootCommand())
}

// ExecuteWith runs cmd and reports a failure on its error stream.
func ExecuteWith(cmd *cobra.Command) error {
	if err := cmd.Execute(); err != nil {
		// check has already rendered its diagnostics
		if !errors.Is(err, ErrCheckFailed) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
