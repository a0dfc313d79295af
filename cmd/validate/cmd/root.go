// Package cmd provides the CLI commands for validate.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/validate/internal/config"
	"github.com/Aman-CERP/validate/internal/logging"
	"github.com/Aman-CERP/validate/internal/profiling"
	"github.com/Aman-CERP/validate/pkg/version"
)

// Debug logging and profiling flags
var (
	debugMode      bool
	loggingCleanup func()

	profileOpts    profiling.Options
	profileSession *profiling.Session
)

// runOptions holds the flags of the root command.
type runOptions struct {
	groups       string
	modules      string
	status       bool
	jsonOutput   bool
	configPath   string
	installDir   string
	parallel     bool
	checkTimeout time.Duration
	strict       bool
	noColor      bool
}

// NewRootCmd creates the root command for the validate CLI.
func NewRootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a network monitoring server installation",
		Long: `validate checks that a monitoring server installation is operable: its
configuration, dependencies, database, disk, external programs, file
ownership and poller.

Preconditions run first. If one fails, validate prints the problem and
exits with status 3 without running anything else. All other checks run
to completion and report every problem with a suggested fix.`,
		Example: `  # Run every default check
  validate

  # Run the database and disk checks, printing a line per group
  validate -g database,disk -s

  # Machine-readable report
  validate --json`,
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.SetVersionTemplate("validate version {{.Version}}\n")

	cmd.Flags().StringVarP(&opts.groups, "groups", "g", "", "Comma-separated list of check groups to run")
	cmd.Flags().StringVarP(&opts.modules, "modules", "m", "", "Alias for --groups")
	_ = cmd.Flags().MarkHidden("modules")
	cmd.Flags().BoolVarP(&opts.status, "status", "s", false, "Print a status line for every group, even when it passed")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: <install-dir>/config.yaml, or $VALIDATE_CONFIG)")
	cmd.Flags().StringVar(&opts.installDir, "install-dir", "", "Installation directory (default: found from the working directory)")
	cmd.Flags().BoolVar(&opts.parallel, "parallel", false, "Run checks concurrently (report order is unchanged)")
	cmd.Flags().DurationVar(&opts.checkTimeout, "check-timeout", 0, "Fail checks that take longer than this (0 = no limit)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with status 1 when any check fails")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.validate/logs/")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")
	_ = cmd.PersistentFlags().MarkHidden("profile-cpu")
	_ = cmd.PersistentFlags().MarkHidden("profile-mem")
	_ = cmd.PersistentFlags().MarkHidden("profile-trace")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newGroupsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging enables debug logging and starts CPU/trace
// profiling if requested.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if debugMode {
		logCfg := logging.DebugConfig()
		logCfg.Level = debugLogLevel(cmd)
		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("level", logCfg.Level),
			slog.String("version", version.Version))
	}

	if profileOpts.Enabled() {
		session, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profileSession = session
	}
	return nil
}

// debugLogLevel returns validate.log_level from the configuration the command
// would run against. An unreadable configuration falls back to debug; the
// preconditions report it.
func debugLogLevel(cmd *cobra.Command) string {
	var opts runOptions
	if f := cmd.Flags().Lookup("config"); f != nil {
		opts.configPath = f.Value.String()
	}
	if f := cmd.Flags().Lookup("install-dir"); f != nil {
		opts.installDir = f.Value.String()
	}
	_, configPath := resolvePaths(opts)

	cfg, err := config.Load(configPath)
	if err != nil {
		return "debug"
	}
	return cfg.Run.LogLevel
}

// stopProfilingAndLogging stops profiling, writes the memory profile and
// closes the debug log. Safe to call more than once.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profileSession != nil {
		err = profileSession.Stop()
		profileSession = nil
	}

	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// runLogger returns the logger for a run: the debug log when enabled,
// otherwise nothing is logged.
func runLogger() *slog.Logger {
	if debugMode {
		return slog.Default()
	}
	return logging.Discard()
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().ExecuteContext(context.Background())
	// Cobra skips the post-run hook when RunE fails.
	if stopErr := stopProfilingAndLogging(nil, nil); err == nil {
		err = stopErr
	}
	return err
}

// resolvePaths determines the install directory and configuration file.
// Precedence: flags, then VALIDATE_CONFIG, then searching upwards from the
// working directory.
func resolvePaths(opts runOptions) (installDir, configPath string) {
	configPath = opts.configPath
	if configPath == "" {
		configPath = os.Getenv("VALIDATE_CONFIG")
	}

	installDir = opts.installDir
	if installDir == "" && configPath != "" {
		installDir = filepath.Dir(configPath)
	}
	if installDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		installDir, err = config.FindInstallDir(wd)
		if err != nil {
			installDir = wd
		}
	}

	if configPath == "" {
		configPath = filepath.Join(installDir, config.FileName)
	}
	return installDir, configPath
}
