package checks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/Aman-CERP/validate/internal/preflight"
)

// ownership verifies the files the application writes belong to its user.
// Files owned by someone else break RRD updates and self-updates.
func ownership(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}

	u, err := user.Lookup(cfg.User)
	if err != nil {
		return []preflight.Result{preflight.Fail(GroupUser,
			fmt.Sprintf("The user '%s' does not exist", cfg.User),
			fmt.Sprintf("useradd -r -M -d %s %s", cfg.InstallDir, cfg.User))}, nil
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("user %s has a non-numeric uid %q", cfg.User, u.Uid)
	}

	var results []preflight.Result
	if current, err := user.Current(); err == nil && current.Uid != "0" && current.Uid != u.Uid {
		results = append(results, preflight.Warn(GroupUser,
			fmt.Sprintf("You are running validate as '%s', some files may not be readable", current.Username),
			fmt.Sprintf("Run validate as root or %s", cfg.User)))
	}

	var foreign []string
	record := func(path string, info fs.FileInfo) {
		if st, ok := info.Sys().(*syscall.Stat_t); ok && uint64(st.Uid) != uid {
			foreign = append(foreign, path)
		}
	}

	if info, err := os.Lstat(cfg.InstallDir); err == nil {
		record(cfg.InstallDir, info)
	}
	for _, dir := range []string{cfg.Path(cfg.RRDDir), cfg.Path(cfg.LogDir)} {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			record(path, info)
			return nil
		})
	}

	if len(foreign) > 0 {
		results = append(results, preflight.Fail(GroupUser,
			fmt.Sprintf("Files are owned by a user other than '%s', RRD updates and automatic updates will fail", cfg.User),
			fmt.Sprintf("sudo chown -R %s:%s %s", cfg.User, cfg.Group, cfg.InstallDir)).
			WithList(capList(foreign)...))
		return results, nil
	}
	return append(results, preflight.OK(GroupUser,
		fmt.Sprintf("Installation files are owned by '%s'", cfg.User))), nil
}
