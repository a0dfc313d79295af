package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	verrors "github.com/Aman-CERP/validate/internal/errors"
	"github.com/Aman-CERP/validate/internal/preflight"
)

// usage returns the available and total bytes of the filesystem holding path.
func usage(path string) (available, total uint64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	// Bavail excludes blocks reserved for root; the poller doesn't run as root.
	return stat.Bavail * uint64(stat.Bsize), stat.Blocks * uint64(stat.Bsize), nil
}

// diskFree checks free space where the application writes: the install
// directory and the RRD directory.
func diskFree(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}

	paths := []string{cfg.InstallDir}
	if rrd := cfg.Path(cfg.RRDDir); rrd != "" && filepath.Clean(rrd) != filepath.Clean(cfg.InstallDir) {
		paths = append(paths, rrd)
	}

	minFree := uint64(cfg.Disk.MinFreeMB) * 1024 * 1024
	var results []preflight.Result
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			// Missing directories are reported by their own checks.
			continue
		}

		available, total, err := usage(path)
		if err != nil {
			results = append(results, preflight.Fail(GroupDisk,
				fmt.Sprintf("Failed to check disk space for %s: %v", path, err), ""))
			continue
		}

		switch {
		case available < minFree:
			results = append(results, failure(env, GroupDisk,
				verrors.Newf(verrors.ErrCodeDiskFull, "Only %s free on %s (minimum: %d MB)",
					formatBytes(available), path, cfg.Disk.MinFreeMB).
					WithSuggestion("Free up space on the filesystem holding "+path)))
		case total > 0 && available*100/total < uint64(cfg.Disk.WarnFreePercent):
			results = append(results, preflight.Warn(GroupDisk,
				fmt.Sprintf("%s free on %s is below %d%%", formatBytes(available), path, cfg.Disk.WarnFreePercent),
				"Free up space on the filesystem holding "+path))
		default:
			results = append(results, preflight.OK(GroupDisk,
				fmt.Sprintf("%s free on %s", formatBytes(available), path)))
		}
	}
	return results, nil
}
