package checks

import (
	"context"
	"fmt"

	verrors "github.com/Aman-CERP/validate/internal/errors"
	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/store"
)

const migrateCommand = "./scripts/migrate"

// The database checks report nothing when the connection failed; that
// failure is already in the report.

func databaseSchema(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
	if env.DB == nil {
		return nil, nil
	}
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}

	v, err := env.DB.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	if v < cfg.Database.MinSchema {
		return []preflight.Result{failure(env, GroupDatabase,
			verrors.Newf(verrors.ErrCodeSchemaOutdated, "Database schema is at version %d, version %d is required",
				v, cfg.Database.MinSchema).WithSuggestion(migrateCommand))}, nil
	}
	return []preflight.Result{preflight.OK(GroupDatabase, fmt.Sprintf("Database schema is current (version %d)", v))}, nil
}

func databaseTables(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
	if env.DB == nil {
		return nil, nil
	}

	missing, err := env.DB.MissingTables(ctx, store.RequiredTables)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return []preflight.Result{
			preflight.Fail(GroupDatabase, "Database is missing tables", migrateCommand).WithList(missing...),
		}, nil
	}
	return []preflight.Result{preflight.OK(GroupDatabase, "All required tables are present")}, nil
}

func databaseIntegrity(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
	if env.DB == nil {
		return nil, nil
	}

	problems, err := env.DB.Integrity(ctx)
	if err != nil {
		return nil, err
	}
	var results []preflight.Result
	if len(problems) > 0 {
		results = append(results, preflight.Fail(GroupDatabase,
			"Database integrity check failed",
			"Restore the database from a backup").WithList(capList(problems)...))
	} else {
		results = append(results, preflight.OK(GroupDatabase, "Database integrity check passed"))
	}

	mode, err := env.DB.JournalMode(ctx)
	if err != nil {
		return results, err
	}
	if mode != "wal" {
		results = append(results, preflight.Warn(GroupDatabase,
			fmt.Sprintf("Database journal mode is '%s', the poller will block the web UI while writing", mode),
			fmt.Sprintf("sqlite3 %s 'PRAGMA journal_mode=WAL'", env.DB.Path())))
	}
	return results, nil
}
