package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // Pure Go SQLite driver (no CGO), registered as "sqlite"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

const (
	// DriverPure is the pure Go driver (modernc.org/sqlite).
	DriverPure = "sqlite"
	// DriverCGO is the cgo driver (github.com/mattn/go-sqlite3).
	DriverCGO = "sqlite3"

	// SchemaTable records applied schema migrations, one row per version.
	SchemaTable = "schema_migrations"
)

// RequiredTables must exist in a usable installation database.
var RequiredTables = []string{SchemaTable, "devices", "ports", "alert_rules", "pollers"}

// Options configures Open.
type Options struct {
	// Driver is DriverPure or DriverCGO. Empty selects DriverPure.
	Driver string
	// Path is the database file.
	Path string
	// Timeout bounds the initial ping; zero means no bound.
	Timeout time.Duration
}

// DB is a read-only handle on the installation database.
type DB struct {
	db     *sql.DB
	driver string
	path   string
}

// Open opens the database read-only and pings it. The file must already exist;
// validation never creates a database.
func Open(ctx context.Context, opts Options) (*DB, error) {
	driver := strings.ToLower(opts.Driver)
	if driver == "" {
		driver = DriverPure
	}
	if driver != DriverPure && driver != DriverCGO {
		return nil, verrors.Newf(verrors.ErrCodeInvalidInput, "unsupported database driver %q", opts.Driver).
			WithSuggestion("Set database.driver to 'sqlite' or 'sqlite3'")
	}

	info, err := os.Stat(opts.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, verrors.New(verrors.ErrCodeDBUnreachable,
				fmt.Sprintf("database file %s does not exist", opts.Path), err).
				WithSuggestion("Check database.dsn in config.yaml")
		}
		return nil, verrors.New(verrors.ErrCodeDBUnreachable,
			fmt.Sprintf("cannot stat database file %s", opts.Path), err)
	}
	if info.IsDir() {
		return nil, verrors.New(verrors.ErrCodeDBUnreachable,
			fmt.Sprintf("database path %s is a directory", opts.Path), nil).
			WithSuggestion("Check database.dsn in config.yaml")
	}

	db, err := sql.Open(driver, "file:"+opts.Path+"?mode=ro")
	if err != nil {
		return nil, verrors.New(verrors.ErrCodeDBUnreachable, "failed to open database", err)
	}

	// Read-only diagnostics need a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Ping alone does not touch the file with SQLite; reading the schema does.
	var n int
	if err := db.QueryRowContext(pingCtx, "SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		_ = db.Close()
		return nil, verrors.New(verrors.ErrCodeDBUnreachable,
			fmt.Sprintf("Error connecting to your database. %v", err), err).
			WithDetail("driver", driver).
			WithSuggestion("Check database.dsn in config.yaml and the file's permissions")
	}

	return &DB{db: db, driver: driver, path: opts.Path}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Driver returns the driver name in use.
func (d *DB) Driver() string { return d.driver }

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// EngineVersion returns the SQLite library version.
func (d *DB) EngineVersion(ctx context.Context) (string, error) {
	var v string
	if err := d.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
		return "", fmt.Errorf("query sqlite_version: %w", err)
	}
	return v, nil
}

// SchemaVersion returns the highest applied migration.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	err := d.db.QueryRowContext(ctx, "SELECT MAX(version) FROM "+SchemaTable).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

// MissingTables returns the tables from want that do not exist, in order.
func (d *DB) MissingTables(ctx context.Context, want []string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, t := range want {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

// Integrity runs PRAGMA integrity_check and returns the reported problems.
// A healthy database yields no problems.
func (d *DB) Integrity(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, fmt.Errorf("integrity check failed: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan integrity result: %w", err)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	return problems, rows.Err()
}

// JournalMode returns the database journal mode (e.g. "wal", "delete").
func (d *DB) JournalMode(ctx context.Context) (string, error) {
	var mode string
	if err := d.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", fmt.Errorf("query journal_mode: %w", err)
	}
	return strings.ToLower(mode), nil
}

// Count returns the number of rows in table. The table name must come from
// code, never from input.
func (d *DB) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// LastPoll returns the most recent poller run recorded in the pollers table.
// ok is false when no poller has reported yet.
func (d *DB) LastPoll(ctx context.Context) (last time.Time, ok bool, err error) {
	var unix sql.NullInt64
	if err := d.db.QueryRowContext(ctx, "SELECT MAX(last_polled) FROM pollers").Scan(&unix); err != nil {
		return time.Time{}, false, fmt.Errorf("query last poll: %w", err)
	}
	if !unix.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(unix.Int64, 0), true, nil
}
