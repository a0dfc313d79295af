package checks

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"github.com/Aman-CERP/validate/internal/config"
	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/probe"
	"github.com/Aman-CERP/validate/pkg/version"
)

const unknownVersion = "?"

// Versions reports the header rows: the application, its database and the
// external programs it depends on. It works with whatever the run got to,
// so it also serves the header printed when a run stops early.
func Versions(ctx context.Context, env *preflight.Env) preflight.Versions {
	progs := config.NewConfig().Programs
	if env != nil && env.Config != nil {
		progs = env.Config.Programs
	}

	schema, engine := unknownVersion, unknownVersion
	if env != nil && env.DB != nil {
		if v, err := env.DB.SchemaVersion(ctx); err == nil {
			schema = strconv.Itoa(v)
		}
		if v, err := env.DB.EngineVersion(ctx); err == nil {
			engine = v
		}
	}

	prober := tools(env)
	toolVersion := func(t probe.Tool) string {
		info := prober.Probe(ctx, t)
		if info.Version == "" {
			return unknownVersion
		}
		return info.Version
	}

	return preflight.Versions{
		{Name: "NetMon", Version: version.Short()},
		{Name: "DB Schema", Version: schema},
		{Name: "Go", Version: strings.TrimPrefix(runtime.Version(), "go")},
		{Name: "SQLite", Version: engine},
		{Name: "RRDTool", Version: toolVersion(probe.RRDTool.WithCommand(progs.RRDTool))},
		{Name: "SNMP", Version: toolVersion(probe.SNMPGet.WithCommand(progs.SNMPGet))},
	}
}

// VersionSource is Versions as a preflight.VersionSource.
var VersionSource preflight.VersionSource = preflight.VersionFunc(Versions)
