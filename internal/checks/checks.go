// Package checks holds the validations run against a monitoring server
// installation, and the registry that orders them.
//
// Preconditions gate the run: the configuration file must exist and parse,
// install_dir must point at the installation, dependencies must be
// installed, and the database must be reachable. Everything after that is
// a standard check that reports problems without stopping the run.
package checks

import (
	"context"
	"net"
	"time"

	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/probe"
)

// Group names.
const (
	GroupConfig       = "config"
	GroupDependencies = "dependencies"
	GroupDatabase     = "database"
	GroupDisk         = "disk"
	GroupRRD          = "rrd"
	GroupPrograms     = "programs"
	GroupUser         = "user"
	GroupPoller       = "poller"
	GroupUpdates      = "updates"
	GroupSystem       = "system"
	GroupMail         = "mail"
)

// DialFunc opens a network connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options supplies the collaborators checks use to reach the outside world.
// Zero values select the real implementations.
type Options struct {
	// Runner executes git for the updates checks.
	Runner probe.Runner
	// Dial connects to the mail server.
	Dial DialFunc
	// Now is the clock used for age comparisons.
	Now func() time.Time
	// MemInfoPath is read for available memory (default /proc/meminfo).
	MemInfoPath string
}

func (o Options) withDefaults() Options {
	if o.Runner == nil {
		o.Runner = probe.ExecRunner{}
	}
	if o.Dial == nil {
		var d net.Dialer
		o.Dial = d.DialContext
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.MemInfoPath == "" {
		o.MemInfoPath = "/proc/meminfo"
	}
	return o
}

// New returns a registry holding every check in execution order.
func New(opts Options) *preflight.Registry {
	opts = opts.withDefaults()
	reg := preflight.NewRegistry()

	// Preconditions, in the order they gate each other.
	reg.MustRegister(
		preflight.Precondition("config.exists", GroupConfig, configExists),
		preflight.Precondition("config.syntax", GroupConfig, configSyntax),
		preflight.Precondition("config.install_dir", GroupConfig, installDir),
		preflight.Precondition("dependencies", GroupDependencies, dependencies),
		preflight.Precondition("database.connect", GroupDatabase, databaseConnect),
	)

	reg.MustRegister(
		preflight.Standard("config.base_url", []string{GroupConfig}, baseURL),
		preflight.Standard("database.schema", []string{GroupDatabase}, databaseSchema),
		preflight.Standard("database.tables", []string{GroupDatabase}, databaseTables),
		preflight.Standard("database.integrity", []string{GroupDatabase}, databaseIntegrity),
		preflight.Standard("disk.free", []string{GroupDisk}, diskFree),
		preflight.Standard("rrd.dir", []string{GroupRRD}, rrdDir),
		preflight.Standard("programs", []string{GroupPrograms}, programs),
		preflight.Standard("user.ownership", []string{GroupUser}, ownership),
		preflight.Standard("poller.lock", []string{GroupPoller}, pollerLock),
		preflight.Standard("poller.heartbeat", []string{GroupPoller}, heartbeat(opts.Now)),
		preflight.Standard("updates.git", []string{GroupUpdates}, gitState(opts.Runner)),
		preflight.Standard("system.file_descriptors", []string{GroupSystem}, fileDescriptors).AsOptional(),
		preflight.Standard("system.memory", []string{GroupSystem}, memory(opts.MemInfoPath)).AsOptional(),
		preflight.Standard("mail.smtp", []string{GroupMail}, smtp(opts.Dial)).AsOptional(),
	)
	return reg
}

// Default returns the registry with real collaborators.
func Default() *preflight.Registry {
	return New(Options{})
}
