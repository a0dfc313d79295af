package checks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	verrors "github.com/Aman-CERP/validate/internal/errors"
	"github.com/Aman-CERP/validate/internal/preflight"
)

func rrdDir(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}
	dir := cfg.Path(cfg.RRDDir)
	owner := cfg.User + ":" + cfg.Group

	info, err := os.Stat(dir)
	if err != nil {
		return []preflight.Result{failure(env, GroupRRD,
			verrors.New(verrors.ErrCodeFileNotFound, fmt.Sprintf("RRD directory %s does not exist", dir), err).
				WithSuggestion(fmt.Sprintf("mkdir -p %s && chown %s %s", dir, owner, dir)))}, nil
	}
	if !info.IsDir() {
		return []preflight.Result{preflight.Fail(GroupRRD,
			fmt.Sprintf("RRD directory %s is not a directory", dir),
			"Set rrd_dir in config.yaml")}, nil
	}

	// Creating a file is the only reliable answer for ACLs and read-only mounts.
	f, err := os.CreateTemp(dir, ".validate-*")
	if err != nil {
		return []preflight.Result{failure(env, GroupRRD,
			verrors.New(verrors.ErrCodeFilePermission, fmt.Sprintf("RRD directory %s is not writable", dir), err).
				WithSuggestion(fmt.Sprintf("chown -R %s %s", owner, dir)))}, nil
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	count := 0
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".rrd") {
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return []preflight.Result{preflight.Warn(GroupRRD,
			fmt.Sprintf("No RRD files found in %s, graphs will be empty", dir),
			"Make sure the poller is running")}, nil
	}
	return []preflight.Result{preflight.OK(GroupRRD,
		fmt.Sprintf("RRD directory %s is writable (%d files)", dir, count))}, nil
}
