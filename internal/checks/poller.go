package checks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/validate/internal/config"
	"github.com/Aman-CERP/validate/internal/preflight"
)

const cronFix = "Check the poller's cron entry"

// pollerLock reports whether a poller currently holds its lock. The lock is
// only ever tried, never waited for.
func pollerLock(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}
	path := cfg.Path(cfg.Poller.LockFile)

	// flock creates missing files; validation must not.
	if _, err := os.Stat(path); err != nil {
		return []preflight.Result{preflight.Warn(GroupPoller,
			fmt.Sprintf("Poller lock file %s does not exist, the poller has not run yet", path),
			cronFix)}, nil
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return []preflight.Result{preflight.Warn(GroupPoller,
			fmt.Sprintf("Cannot inspect poller lock %s: %v", path, err),
			fmt.Sprintf("Run validate as root or %s", cfg.User))}, nil
	}
	if !locked {
		return []preflight.Result{preflight.OK(GroupPoller, "Poller is running")}, nil
	}
	if err := lock.Unlock(); err != nil {
		return nil, fmt.Errorf("release poller lock: %w", err)
	}
	return []preflight.Result{preflight.OK(GroupPoller, "No poller is running right now")}, nil
}

// heartbeat checks that the poller has run recently, using the heartbeat
// file it touches and the poll times it records in the database.
func heartbeat(now func() time.Time) preflight.ExecFunc {
	return func(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
		cfg, err := loadedConfig(env)
		if err != nil {
			return nil, err
		}
		maxAge, _ := config.ParseDuration(cfg.Poller.MaxAge)
		path := cfg.Path(cfg.Poller.HeartbeatFile)

		var results []preflight.Result
		info, err := os.Stat(path)
		switch {
		case err != nil:
			results = append(results, preflight.Fail(GroupPoller,
				fmt.Sprintf("The poller has never run, %s is missing", path), cronFix))
		case maxAge > 0 && now().Sub(info.ModTime()) > maxAge:
			results = append(results, preflight.Fail(GroupPoller,
				fmt.Sprintf("The poller has not run in the last %s (last run %s ago)",
					maxAge, now().Sub(info.ModTime()).Round(time.Second)),
				cronFix))
		default:
			results = append(results, preflight.OK(GroupPoller,
				fmt.Sprintf("Poller last ran %s ago", now().Sub(info.ModTime()).Round(time.Second))))
		}

		if env.DB == nil {
			return results, nil
		}
		last, ok, err := env.DB.LastPoll(ctx)
		if err != nil {
			return results, err
		}
		switch {
		case !ok:
			results = append(results, preflight.Warn(GroupPoller,
				"No poller has reported to the database yet", cronFix))
		case maxAge > 0 && now().Sub(last) > maxAge:
			results = append(results, preflight.Warn(GroupPoller,
				fmt.Sprintf("No device has been polled in the last %s", maxAge),
				"Check the poller log in "+cfg.Path(cfg.LogDir)))
		}
		return results, nil
	}
}
