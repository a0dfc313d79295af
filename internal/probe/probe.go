// Package probe locates external programs and reads their versions.
//
// Results are cached per command and arguments, so the version header and
// the programs checks share a single subprocess per tool.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

const (
	// DefaultCacheSize is the number of probe results kept.
	DefaultCacheSize = 64
	// DefaultTimeout bounds a single version probe.
	DefaultTimeout = 5 * time.Second
)

// Tool describes how to ask a program for its version.
type Tool struct {
	// Name is the display name, e.g. "RRDTool".
	Name string
	// Command is a name resolved via PATH or an absolute path.
	Command string
	// Args make the program print its version.
	Args []string
	// Pattern extracts the version from the output; the first submatch wins.
	Pattern *regexp.Regexp
}

// Known tool definitions. Command is overridden from configuration.
var (
	RRDTool  = Tool{Name: "RRDTool", Command: "rrdtool", Pattern: regexp.MustCompile(`RRDtool ([0-9][0-9.]*)`)}
	SNMPGet  = Tool{Name: "SNMP", Command: "snmpget", Args: []string{"-V"}, Pattern: regexp.MustCompile(`version:\s*([0-9][0-9.]*)`)}
	SNMPWalk = Tool{Name: "snmpwalk", Command: "snmpwalk", Args: []string{"-V"}, Pattern: regexp.MustCompile(`version:\s*([0-9][0-9.]*)`)}
	FPing    = Tool{Name: "fping", Command: "fping", Args: []string{"-v"}, Pattern: regexp.MustCompile(`[Vv]ersion ([0-9][0-9.]*)`)}
	Git      = Tool{Name: "Git", Command: "git", Args: []string{"--version"}, Pattern: regexp.MustCompile(`git version ([0-9][0-9.]*)`)}
)

// WithCommand returns a copy of t using command.
func (t Tool) WithCommand(command string) Tool {
	if command != "" {
		t.Command = command
	}
	return t
}

// Info is the outcome of probing a tool.
type Info struct {
	Name string
	// Path is the resolved executable, empty when not found.
	Path string
	// Version is empty when the output did not match the pattern.
	Version string
	Output  string
	// Err is set when the program is missing or could not run.
	Err error
}

// Found reports whether the executable was located.
func (i Info) Found() bool {
	return i.Path != ""
}

// Runner executes a program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, path string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, path, args...).CombinedOutput()
}

// LookupFunc resolves a command to an executable path.
type LookupFunc func(command string) (string, error)

// Prober probes tools and caches the results.
type Prober struct {
	runner  Runner
	lookup  LookupFunc
	timeout time.Duration
	cache   *lru.Cache[string, Info]

	// probing serializes misses so a tool is never run twice concurrently.
	probing sync.Mutex
}

// Option configures a Prober.
type Option func(*Prober)

// WithRunner sets the program runner.
func WithRunner(r Runner) Option {
	return func(p *Prober) { p.runner = r }
}

// WithLookup sets the executable resolver.
func WithLookup(fn LookupFunc) Option {
	return func(p *Prober) { p.lookup = fn }
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	cache, _ := lru.New[string, Info](DefaultCacheSize)
	p := &Prober{
		runner:  ExecRunner{},
		lookup:  exec.LookPath,
		timeout: DefaultTimeout,
		cache:   cache,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lookup resolves a command without running it.
func (p *Prober) Lookup(command string) (string, error) {
	if command == "" {
		return "", verrors.New(verrors.ErrCodeToolMissing, "no command configured", nil)
	}
	path, err := p.lookup(command)
	if err != nil {
		return "", verrors.New(verrors.ErrCodeToolMissing,
			fmt.Sprintf("%s not found", command), err).
			WithSuggestion(fmt.Sprintf("Install %s or set its path under programs in config.yaml", filepath.Base(command)))
	}
	return path, nil
}

// Probe locates the tool and reads its version. A tool that exits non-zero
// but prints a matching version is considered found; some programs print
// their version only in their usage text.
func (p *Prober) Probe(ctx context.Context, t Tool) Info {
	key := cacheKey(t)
	if info, ok := p.cache.Get(key); ok {
		return info
	}

	p.probing.Lock()
	defer p.probing.Unlock()
	if info, ok := p.cache.Get(key); ok {
		return info
	}

	info := p.probe(ctx, t)
	// Cancellation says nothing about the tool; don't remember it.
	if !errors.Is(info.Err, context.Canceled) {
		p.cache.Add(key, info)
	}
	return info
}

func (p *Prober) probe(ctx context.Context, t Tool) Info {
	info := Info{Name: t.Name}

	path, err := p.Lookup(t.Command)
	if err != nil {
		info.Err = err
		return info
	}
	info.Path = path

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, runErr := p.runner.Run(ctx, path, t.Args...)
	info.Output = string(bytes.TrimSpace(out))
	if t.Pattern != nil {
		if m := t.Pattern.FindStringSubmatch(info.Output); len(m) > 1 {
			info.Version = m[1]
		}
	}

	if runErr != nil && info.Version == "" {
		if ctx.Err() != nil {
			info.Err = verrors.New(verrors.ErrCodeTimeout,
				fmt.Sprintf("%s did not answer within %s", t.Command, p.timeout), runErr)
		} else {
			info.Err = verrors.New(verrors.ErrCodeToolMissing,
				fmt.Sprintf("%s could not be executed", path), runErr).
				WithSuggestion("chmod +x " + path)
		}
	}
	return info
}

// Purge drops all cached results.
func (p *Prober) Purge() {
	p.cache.Purge()
}

func cacheKey(t Tool) string {
	var b bytes.Buffer
	b.WriteString(t.Command)
	for _, a := range t.Args {
		b.WriteByte(0)
		b.WriteString(a)
	}
	return b.String()
}
