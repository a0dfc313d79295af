package preflight

import (
	"io"
	"sync"
)

// HeaderFunc writes the last-resort version header.
type HeaderFunc func(w io.Writer, versions Versions) error

// RunGuard guarantees the version header is written when a run ends before
// its report is rendered, whether by early return, panic or signal.
//
//	guard := preflight.NewRunGuard(os.Stdout, currentVersions, report.RenderEmptyRunHeader)
//	defer guard.Release()
//	...
//	guard.Complete()
type RunGuard struct {
	w        io.Writer
	versions func() Versions
	header   HeaderFunc

	mu       sync.Mutex
	complete bool
	flushed  bool
}

// NewRunGuard creates a guard. versions is called at flush time so it sees
// whatever is known by then.
func NewRunGuard(w io.Writer, versions func() Versions, header HeaderFunc) *RunGuard {
	return &RunGuard{w: w, versions: versions, header: header}
}

// Complete marks the report as rendered; Release becomes a no-op.
func (g *RunGuard) Complete() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.complete = true
}

// Completed reports whether Complete was called.
func (g *RunGuard) Completed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.complete
}

// Release must be deferred directly. It writes the fallback header unless
// the run completed, and re-raises any panic afterwards.
func (g *RunGuard) Release() {
	r := recover()
	g.Flush()
	if r != nil {
		panic(r)
	}
}

// Flush writes the fallback header at most once, and only when the run did
// not complete. It reports whether the header was written. Safe to call from
// a signal handler goroutine.
func (g *RunGuard) Flush() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.complete || g.flushed {
		return false
	}
	g.flushed = true

	var v Versions
	if g.versions != nil {
		v = g.versions()
	}
	if g.header != nil {
		_ = g.header(g.w, v)
	}
	return true
}
