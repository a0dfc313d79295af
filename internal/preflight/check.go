package preflight

import (
	"context"
	"log/slog"
	"slices"

	"github.com/Aman-CERP/validate/internal/config"
	"github.com/Aman-CERP/validate/internal/probe"
	"github.com/Aman-CERP/validate/internal/store"
)

// DefaultGroup is assigned to checks registered without a group.
const DefaultGroup = "default"

// Kind distinguishes gating preconditions from independent standard checks.
type Kind int

const (
	// KindStandard checks run in the main phase and never stop the run.
	KindStandard Kind = iota
	// KindPrecondition checks run first; an abort ends the run.
	KindPrecondition
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindPrecondition:
		return "precondition"
	default:
		return "unknown"
	}
}

// Check is a single validation unit.
//
// Execute returns zero or more Results. A non-nil error from a standard check
// is converted into a FAIL result attributed to the check. A precondition
// stops the run by returning an *Abort; any other error from a precondition
// is treated as an abort too.
type Check interface {
	ID() string
	Groups() []string
	Kind() Kind
	Execute(ctx context.Context, env *Env) ([]Result, error)
}

// Optional is implemented by checks that only run when one of their groups
// is requested by name.
type Optional interface {
	Optional() bool
}

func isOptional(c Check) bool {
	o, ok := c.(Optional)
	return ok && o.Optional()
}

// ExecFunc is the signature of a check body.
type ExecFunc func(ctx context.Context, env *Env) ([]Result, error)

// Func adapts a plain function into a Check.
type Func struct {
	id       string
	groups   []string
	kind     Kind
	optional bool
	fn       ExecFunc
}

// Standard returns a main-phase check. With no groups it joins DefaultGroup.
func Standard(id string, groups []string, fn ExecFunc) *Func {
	if len(groups) == 0 {
		groups = []string{DefaultGroup}
	}
	return &Func{id: id, groups: slices.Clone(groups), kind: KindStandard, fn: fn}
}

// Precondition returns a gating check. Its group is used for the results it
// reports when it does not abort.
func Precondition(id, group string, fn ExecFunc) *Func {
	if group == "" {
		group = DefaultGroup
	}
	return &Func{id: id, groups: []string{group}, kind: KindPrecondition, fn: fn}
}

// AsOptional marks the check as non-default: it runs only when one of its
// groups is requested explicitly.
func (f *Func) AsOptional() *Func {
	f.optional = true
	return f
}

// ID implements Check.
func (f *Func) ID() string { return f.id }

// Groups implements Check.
func (f *Func) Groups() []string { return slices.Clone(f.groups) }

// Kind implements Check.
func (f *Func) Kind() Kind { return f.kind }

// Optional implements Optional.
func (f *Func) Optional() bool { return f.optional }

// Execute implements Check.
func (f *Func) Execute(ctx context.Context, env *Env) ([]Result, error) {
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(ctx, env)
}

// Env is the context handed to checks. Preconditions may fill in
// collaborators (such as DB) for later checks; standard checks receive
// their own copy and must treat it as read-only.
type Env struct {
	InstallDir string
	ConfigPath string
	Config     *config.Config
	// Settings is a flat view of Config keyed by dotted path.
	Settings map[string]string
	// DB is nil until the database precondition connects.
	DB     *store.DB
	Tools  *probe.Prober
	Logger *slog.Logger
}

// Setting returns a flat setting value.
func (e *Env) Setting(key string) (string, bool) {
	if e == nil || e.Settings == nil {
		return "", false
	}
	v, ok := e.Settings[key]
	return v, ok
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}
