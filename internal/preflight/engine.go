package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

// Options configures a single run.
type Options struct {
	// Groups restricts standard checks to these groups. Empty runs all default checks.
	Groups []string
	// Verbose asks the reporter to print a status line for every group.
	Verbose bool
	// Parallel runs standard checks concurrently. Result order is unchanged.
	Parallel bool
	// MaxWorkers bounds concurrency in parallel mode; 0 means unbounded.
	MaxWorkers int
	// CheckTimeout bounds each standard check; 0 disables the bound.
	CheckTimeout time.Duration
	// Progress, if set, is called after each check finishes. Calls are serialized.
	Progress func(Progress)
}

// Progress reports how far a run has come.
type Progress struct {
	Kind    Kind
	CheckID string
	Done    int
	Total   int
}

// Engine runs checks from a registry.
type Engine struct {
	logger   *slog.Logger
	versions VersionSource
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for phase and check events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithVersionSource sets the source of the report's version header.
func WithVersionSource(src VersionSource) Option {
	return func(e *Engine) {
		e.versions = src
	}
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the preconditions and then the selected standard checks.
// It never returns an error: failures become results or a fatal abort.
func (e *Engine) Run(ctx context.Context, reg *Registry, env *Env, opts Options) *Report {
	if env == nil {
		env = &Env{}
	}
	groups := normalizeGroups(opts.Groups)
	report := &Report{
		State:   StateNotStarted,
		Groups:  groups,
		Verbose: opts.Verbose,
	}
	sel := reg.Select(groups)
	notify := progressNotifier(opts.Progress)

	report.State = StatePreconditionsRunning
	e.logger.Debug("precondition phase started", slog.Int("checks", len(sel.Preconditions)))

	for i, c := range sel.Preconditions {
		start := time.Now()
		results, err := safeExecute(ctx, c, env)
		if err != nil {
			abort := *AbortFrom(err)
			if abort.CheckID == "" {
				abort.CheckID = c.ID()
			}
			e.logger.Warn("precondition aborted run",
				slog.String("check", c.ID()),
				slog.String("message", abort.Message),
				slog.Duration("duration", time.Since(start)))

			report.State = StatePreconditionsFailed
			report.Fatal = &abort
			report.Results = nil
			report.Versions = e.collectVersions(ctx, env)
			return report
		}

		e.logger.Debug("precondition passed",
			slog.String("check", c.ID()),
			slog.Duration("duration", time.Since(start)))
		notify(Progress{Kind: KindPrecondition, CheckID: c.ID(), Done: i + 1, Total: len(sel.Preconditions)})
		if matches(c, groups) {
			report.Results = append(report.Results, attributeAll(results, c)...)
		}
	}

	report.Versions = e.collectVersions(ctx, env)
	report.State = StateMainRunning

	for _, g := range sel.Unknown {
		e.logger.Warn("no checks registered for group", slog.String("group", g))
		report.Results = append(report.Results, Warn(SelectionGroup,
			fmt.Sprintf("No checks registered for group '%s'", g),
			"Run 'validate groups' to list the available groups").
			attribute("", SelectionGroup))
	}

	e.logger.Debug("main phase started",
		slog.Int("checks", len(sel.Standard)),
		slog.Bool("parallel", opts.Parallel))

	var main [][]Result
	if opts.Parallel {
		main = e.runParallel(ctx, sel.Standard, env, opts, notify)
	} else {
		main = make([][]Result, len(sel.Standard))
		for i, c := range sel.Standard {
			main[i] = e.runStandard(ctx, c, env, opts.CheckTimeout)
			notify(Progress{Kind: KindStandard, CheckID: c.ID(), Done: i + 1, Total: len(sel.Standard)})
		}
	}
	for _, rs := range main {
		report.Results = append(report.Results, rs...)
	}

	report.State = StateCompleted
	ok, warn, fail := report.Counts()
	e.logger.Debug("run completed",
		slog.Int("ok", ok), slog.Int("warn", warn), slog.Int("fail", fail))
	return report
}

// runParallel runs checks concurrently, writing each check's results into
// its own slot so order matches registration order.
func (e *Engine) runParallel(ctx context.Context, checks []Check, env *Env, opts Options, notify func(Progress)) [][]Result {
	slots := make([][]Result, len(checks))

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	if opts.MaxWorkers > 0 {
		g.SetLimit(opts.MaxWorkers)
	}
	for i, c := range checks {
		g.Go(func() error {
			slots[i] = e.runStandard(ctx, c, env, opts.CheckTimeout)
			mu.Lock()
			done++
			notify(Progress{Kind: KindStandard, CheckID: c.ID(), Done: done, Total: len(checks)})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return slots
}

// progressNotifier serializes calls to fn; a nil fn yields a no-op.
func progressNotifier(fn func(Progress)) func(Progress) {
	if fn == nil {
		return func(Progress) {}
	}
	var mu sync.Mutex
	return func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		fn(p)
	}
}

// runStandard executes one main-phase check and converts any error into a
// FAIL result attributed to the check.
func (e *Engine) runStandard(ctx context.Context, c Check, env *Env, timeout time.Duration) []Result {
	local := *env
	start := time.Now()

	results, err := executeWithTimeout(ctx, c, &local, timeout)
	if err != nil {
		e.logger.Warn("check failed",
			append([]any{slog.String("check", c.ID())}, verrors.LogAttrs(err)...)...)
		results = append(results, failFromError(c, err))
	}

	e.logger.Debug("check finished",
		slog.String("check", c.ID()),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return attributeAll(results, c)
}

func (e *Engine) collectVersions(ctx context.Context, env *Env) (v Versions) {
	if e.versions == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("version source panicked", slog.Any("panic", r))
			v = nil
		}
	}()
	return e.versions.Versions(ctx, env)
}

// executeWithTimeout runs the check, giving up after timeout even when the
// check ignores its context.
func executeWithTimeout(ctx context.Context, c Check, env *Env, timeout time.Duration) ([]Result, error) {
	if timeout <= 0 {
		return safeExecute(ctx, c, env)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		results []Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := safeExecute(ctx, c, env)
		done <- outcome{results, err}
	}()

	timedOut := func() error {
		return verrors.Newf(verrors.ErrCodeTimeout, "timed out after %s", timeout).
			WithDetail("check_id", c.ID()).
			WithSuggestion("Raise --check-timeout or investigate why the check hangs")
	}

	select {
	case o := <-done:
		if o.err != nil && errors.Is(o.err, context.DeadlineExceeded) && ctx.Err() != nil {
			return o.results, timedOut()
		}
		return o.results, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, timedOut()
		}
		return nil, ctx.Err()
	}
}

// safeExecute calls Execute, converting a panic into an error.
func safeExecute(ctx context.Context, c Check, env *Env) (results []Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = verrors.Newf(verrors.ErrCodeCheckPanic, "panicked: %v", r).
				WithDetail("check_id", c.ID())
		}
	}()
	return c.Execute(ctx, env)
}

// failFromError builds the FAIL result for a check that returned an error.
func failFromError(c Check, err error) Result {
	msg := err.Error()
	if e, ok := verrors.As(err); ok {
		msg = e.Message
	}
	return Fail(primaryGroup(c), fmt.Sprintf("Check %s failed: %s", c.ID(), msg), verrors.GetSuggestion(err))
}

func attributeAll(results []Result, c Check) []Result {
	group := primaryGroup(c)
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = r.attribute(c.ID(), group)
	}
	return out
}

func primaryGroup(c Check) string {
	if groups := c.Groups(); len(groups) > 0 {
		return groups[0]
	}
	return DefaultGroup
}
