package checks

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/validate/internal/preflight"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		url        string
		wantStatus preflight.Status
		wantFix    string
	}{
		{"http://netmon.example.com/", preflight.StatusOK, ""},
		{"https://netmon.example.com/netmon/", preflight.StatusOK, ""},
		{"http://netmon.example.com", preflight.StatusWarn, "Set base_url to http://netmon.example.com/"},
		{"", preflight.StatusWarn, "Set base_url in config.yaml to the address users open in their browser"},
		{"netmon.example.com/", preflight.StatusFail, "Set base_url to e.g. http://netmon.example.com/"},
		{"ftp://netmon.example.com/", preflight.StatusFail, "Set base_url to e.g. http://netmon.example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			env := newInstall(t).env(t)
			env.Config.BaseURL = tt.url

			results, err := baseURL(context.Background(), env)

			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.wantStatus, results[0].Status())
			assert.Equal(t, tt.wantFix, results[0].Remediation())
		})
	}
}

func TestDatabaseChecks_Healthy(t *testing.T) {
	// Given: a connected, current database
	env := newInstall(t).env(t)
	connect(t, env)
	ctx := context.Background()

	// When: running the database checks
	schema, err := databaseSchema(ctx, env)
	require.NoError(t, err)
	tables, err := databaseTables(ctx, env)
	require.NoError(t, err)
	integrity, err := databaseIntegrity(ctx, env)
	require.NoError(t, err)

	// Then: everything passes; the fixture is not in WAL mode
	assert.Equal(t, []preflight.Status{preflight.StatusOK}, statuses(schema))
	assert.Equal(t, []preflight.Status{preflight.StatusOK}, statuses(tables))
	require.Len(t, integrity, 2)
	assert.Equal(t, "Database integrity check passed", integrity[0].Message())
	assert.Equal(t, preflight.StatusWarn, integrity[1].Status())
	assert.Contains(t, integrity[1].Remediation(), "PRAGMA journal_mode=WAL")
}

func TestDatabaseChecks_Outdated(t *testing.T) {
	// Given: a database at schema 1 with a table missing
	i := newInstall(t)
	require.NoError(t, os.Remove(i.path("netmon.db")))
	i.createDB(t,
		"CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)",
		"INSERT INTO schema_migrations (version) VALUES (1)",
		"CREATE TABLE devices (id INTEGER PRIMARY KEY)",
		"CREATE TABLE ports (id INTEGER PRIMARY KEY)",
		"CREATE TABLE pollers (name TEXT, last_polled INTEGER)",
	)
	env := i.env(t)
	env.Config.Database.MinSchema = 3
	connect(t, env)

	// When: running the schema checks
	schema, err := databaseSchema(context.Background(), env)
	require.NoError(t, err)
	tables, err := databaseTables(context.Background(), env)
	require.NoError(t, err)

	// Then: both fail with the migration command
	require.Len(t, schema, 1)
	assert.Equal(t, "Database schema is at version 1, version 3 is required", schema[0].Message())
	assert.Equal(t, migrateCommand, schema[0].Remediation())
	require.Len(t, tables, 1)
	assert.Equal(t, preflight.StatusFail, tables[0].Status())
	assert.Equal(t, []string{"alert_rules"}, tables[0].List())
}

func TestDatabaseChecks_NoConnection(t *testing.T) {
	env := newInstall(t).env(t)

	for _, fn := range []preflight.ExecFunc{databaseSchema, databaseTables, databaseIntegrity} {
		results, err := fn(context.Background(), env)

		assert.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestDiskFree(t *testing.T) {
	t.Run("enough space", func(t *testing.T) {
		env := newInstall(t).env(t)
		env.Config.Disk.MinFreeMB = 0
		env.Config.Disk.WarnFreePercent = 0

		results, err := diskFree(context.Background(), env)

		require.NoError(t, err)
		// Install dir and RRD dir.
		assert.Equal(t, []preflight.Status{preflight.StatusOK, preflight.StatusOK}, statuses(results))
	})

	t.Run("below minimum", func(t *testing.T) {
		// Given: a minimum no filesystem can meet
		env := newInstall(t).env(t)
		env.Config.Disk.MinFreeMB = 1 << 40

		// When: checking free space
		results, err := diskFree(context.Background(), env)

		// Then: both directories fail
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, preflight.StatusFail, r.Status())
			assert.True(t, strings.HasPrefix(r.Message(), "Only "), r.Message())
		}
	})

	t.Run("missing rrd dir is skipped", func(t *testing.T) {
		i := newInstall(t)
		require.NoError(t, os.RemoveAll(i.path("rrd")))
		env := i.env(t)
		env.Config.Disk.MinFreeMB = 0
		env.Config.Disk.WarnFreePercent = 0

		results, err := diskFree(context.Background(), env)

		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestRRDDir(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, i install)
		wantStatus preflight.Status
		wantPrefix string
	}{
		{
			name:       "with files",
			setup:      func(*testing.T, install) {},
			wantStatus: preflight.StatusOK,
			wantPrefix: "RRD directory",
		},
		{
			name: "empty",
			setup: func(t *testing.T, i install) {
				require.NoError(t, os.RemoveAll(i.path("rrd", "core-sw1")))
			},
			wantStatus: preflight.StatusWarn,
			wantPrefix: "No RRD files found",
		},
		{
			name: "missing",
			setup: func(t *testing.T, i install) {
				require.NoError(t, os.RemoveAll(i.path("rrd")))
			},
			wantStatus: preflight.StatusFail,
			wantPrefix: "RRD directory",
		},
		{
			name: "not a directory",
			setup: func(t *testing.T, i install) {
				require.NoError(t, os.RemoveAll(i.path("rrd")))
				i.write(t, "rrd", "")
			},
			wantStatus: preflight.StatusFail,
			wantPrefix: "RRD directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newInstall(t)
			tt.setup(t, i)

			results, err := rrdDir(context.Background(), i.env(t))

			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.wantStatus, results[0].Status())
			assert.True(t, strings.HasPrefix(results[0].Message(), tt.wantPrefix), results[0].Message())
		})
	}
}

func TestRRDDir_RemovesWriteTestFile(t *testing.T) {
	i := newInstall(t)

	_, err := rrdDir(context.Background(), i.env(t))
	require.NoError(t, err)

	entries, err := os.ReadDir(i.path("rrd"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "core-sw1", entries[0].Name())
}

func TestPrograms(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		env := newInstall(t).env(t)

		results, err := programs(context.Background(), env)

		require.NoError(t, err)
		require.Len(t, results, 5)
		for _, r := range results {
			assert.Equal(t, preflight.StatusOK, r.Status(), r.Message())
		}
		assert.Equal(t, "RRDTool 1.7.2 found at /usr/bin/rrdtool", results[0].Message())
	})

	t.Run("missing required and optional", func(t *testing.T) {
		// Given: fping and git are not installed
		env := newInstall(t).env(t)
		env.Tools = fakeTools(map[string]bool{"fping": true, "git": true})

		// When: probing programs
		results, err := programs(context.Background(), env)

		// Then: fping fails, git only warns
		require.NoError(t, err)
		assert.Equal(t, []preflight.Status{
			preflight.StatusOK, preflight.StatusOK, preflight.StatusOK,
			preflight.StatusFail, preflight.StatusWarn,
		}, statuses(results))
		assert.Equal(t, "fping not found", results[3].Message())
		assert.Contains(t, results[3].Remediation(), "Install fping")
	})

	t.Run("configured path", func(t *testing.T) {
		env := newInstall(t).env(t)
		env.Config.Programs.RRDTool = "/opt/rrdtool/bin/rrdtool"
		env.Tools = fakeTools(map[string]bool{"/opt/rrdtool/bin/rrdtool": true})

		results, err := programs(context.Background(), env)

		require.NoError(t, err)
		assert.Equal(t, preflight.StatusFail, results[0].Status())
		assert.Equal(t, "/opt/rrdtool/bin/rrdtool not found", results[0].Message())
	})
}

func TestOwnership(t *testing.T) {
	t.Run("owned by the configured user", func(t *testing.T) {
		env := newInstall(t).env(t)

		results, err := ownership(context.Background(), env)

		require.NoError(t, err)
		require.NotEmpty(t, results)
		last := results[len(results)-1]
		assert.Equal(t, preflight.StatusOK, last.Status())
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newInstall(t).env(t)
		env.Config.User = "no-such-user-netmon"

		results, err := ownership(context.Background(), env)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, preflight.StatusFail, results[0].Status())
		assert.Equal(t, "The user 'no-such-user-netmon' does not exist", results[0].Message())
	})
}

func TestCodedFailures_AreLogged(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, i install, env *preflight.Env)
		check    preflight.ExecFunc
		wantCode string
		wantFix  string
	}{
		{
			name: "rrd directory missing",
			setup: func(t *testing.T, i install, _ *preflight.Env) {
				require.NoError(t, os.RemoveAll(i.path("rrd")))
			},
			check:    rrdDir,
			wantCode: "ERR_201_FILE_NOT_FOUND",
			wantFix:  "mkdir -p",
		},
		{
			name: "schema outdated",
			setup: func(t *testing.T, _ install, env *preflight.Env) {
				env.Config.Database.MinSchema = 99
				connect(t, env)
			},
			check:    databaseSchema,
			wantCode: "ERR_403_SCHEMA_OUTDATED",
			wantFix:  migrateCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: an installation with one problem and a debug log
			i := newInstall(t)
			env := i.env(t)
			var log bytes.Buffer
			env.Logger = slog.New(slog.NewJSONHandler(&log, nil))
			tt.setup(t, i, env)

			// When: running the check
			results, err := tt.check(context.Background(), env)

			// Then: the FAIL carries the fix and the log carries the code
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, preflight.StatusFail, results[0].Status())
			assert.True(t, strings.HasPrefix(results[0].Remediation(), tt.wantFix), results[0].Remediation())
			assert.Contains(t, log.String(), tt.wantCode)
		})
	}
}
