package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/validate/internal/checks"
	"github.com/Aman-CERP/validate/internal/config"
	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/probe"
	"github.com/Aman-CERP/validate/internal/report"
	"github.com/Aman-CERP/validate/internal/ui"
)

// exit terminates the process when a signal interrupts a run.
var exit = os.Exit

func runValidate(cmd *cobra.Command, opts runOptions) error {
	// Set up context with signal handling (uses signal.NotifyContext to prevent goroutine leaks)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := runLogger()
	out := cmd.OutOrStdout()
	installDir, configPath := resolvePaths(opts)

	env := &preflight.Env{
		InstallDir: installDir,
		ConfigPath: configPath,
		Tools:      probe.New(),
		Logger:     logger,
	}
	defer func() { _ = env.DB.Close() }()

	renderer := report.New(report.WithColor(!opts.jsonOutput && ui.UseColor(out, opts.noColor)))

	// Whatever happens from here on, the operator sees the version header.
	// The signal handler reads a snapshot: Env belongs to the engine while
	// preconditions fill it in.
	versions := newVersionCache(func() preflight.Versions {
		return checks.Versions(context.Background(), env)
	})
	guard := preflight.NewRunGuard(headerOutput(cmd, opts), versions.Versions, renderer.RenderEmptyRunHeader)
	defer guard.Release()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Context().Err() == nil && guard.Flush() {
				logger.Warn("run interrupted")
				exit(ExitInterrupted)
			}
		case <-finished:
		}
	}()

	runOpts := engineOptions(cmd, opts, configPath)

	progress := ui.NewRenderer(ui.NewConfig(cmd.ErrOrStderr(),
		ui.WithNoColor(opts.noColor),
		ui.WithForcePlain(opts.jsonOutput),
		ui.WithVerbose(debugMode)))
	if err := progress.Start(ctx); err != nil {
		logger.Debug("progress display unavailable", slog.String("error", err.Error()))
	}
	runOpts.Progress = func(p preflight.Progress) {
		versions.observe(p)
		stage := ui.StageChecks
		if p.Kind == preflight.KindPrecondition {
			stage = ui.StagePreconditions
		}
		progress.UpdateProgress(ui.ProgressEvent{Stage: stage, Current: p.Done, Total: p.Total, CheckID: p.CheckID})
	}

	engine := preflight.NewEngine(
		preflight.WithLogger(logger),
		preflight.WithVersionSource(checks.VersionSource),
	)
	rep := engine.Run(ctx, newRegistry(), env, runOpts)
	_ = progress.Stop()

	var err error
	if opts.jsonOutput {
		err = report.RenderJSON(out, rep)
	} else {
		err = renderer.Render(out, rep)
	}
	guard.Complete()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to write report", err)
	}

	if rep.Aborted() {
		return reportedExit(ExitAborted, "precondition failed: "+rep.Fatal.Message)
	}
	if opts.strict && rep.HasFailures() {
		_, _, fail := rep.Counts()
		return reportedExit(ExitFailure, fmt.Sprintf("%d checks failed", fail))
	}
	return nil
}

// headerOutput is where the fallback header goes: stdout, unless stdout
// carries the JSON report.
func headerOutput(cmd *cobra.Command, opts runOptions) io.Writer {
	if opts.jsonOutput {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// engineOptions merges flags with the validate section of the configuration.
// Flags win; a configuration that does not load is left to the preconditions
// to report.
func engineOptions(cmd *cobra.Command, opts runOptions, configPath string) preflight.Options {
	groups := opts.groups
	if groups == "" {
		groups = opts.modules
	}

	runOpts := preflight.Options{
		Groups:       preflight.ParseGroups(groups),
		Parallel:     opts.parallel,
		CheckTimeout: opts.checkTimeout,
	}
	// Asking for groups implies wanting to see how each one did.
	runOpts.Verbose = opts.status || len(runOpts.Groups) > 0

	if cfg, err := config.Load(configPath); err == nil {
		if !cmd.Flags().Changed("parallel") {
			runOpts.Parallel = cfg.Run.Parallel
		}
		if !cmd.Flags().Changed("check-timeout") {
			runOpts.CheckTimeout = cfg.CheckTimeout()
		}
	}
	return runOpts
}

// versionCache holds the latest version header. It is refreshed on the
// engine's goroutine and read from any goroutine.
type versionCache struct {
	load    func() preflight.Versions
	current atomic.Pointer[preflight.Versions]
}

func newVersionCache(load func() preflight.Versions) *versionCache {
	c := &versionCache{load: load}
	c.refresh()
	return c
}

func (c *versionCache) refresh() {
	v := c.load()
	c.current.Store(&v)
}

// observe refreshes the snapshot after each passed precondition, since
// those are what add configuration and database versions.
func (c *versionCache) observe(p preflight.Progress) {
	if p.Kind == preflight.KindPrecondition {
		c.refresh()
	}
}

// Versions returns the latest snapshot.
func (c *versionCache) Versions() preflight.Versions {
	return *c.current.Load()
}
