package checks

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/Aman-CERP/validate/internal/preflight"
)

const (
	// MinFileDescriptors is the minimum open file limit for the poller.
	MinFileDescriptors = 1024
	// MinMemoryBytes is the minimum recommended available memory (1GB).
	MinMemoryBytes = 1 * 1024 * 1024 * 1024
)

// fileDescriptors checks the open file limit. The poller keeps an RRD file
// and a socket open per device it polls concurrently.
func fileDescriptors(_ context.Context, _ *preflight.Env) ([]preflight.Result, error) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return nil, fmt.Errorf("failed to check file descriptor limit: %w", err)
	}

	currentLimit := uint64(rLimit.Cur)
	if currentLimit < MinFileDescriptors {
		return []preflight.Result{preflight.Fail(GroupSystem,
			fmt.Sprintf("Open file limit is %d (minimum: %d)", currentLimit, MinFileDescriptors),
			"Run 'ulimit -n 10240' to increase the limit")}, nil
	}
	return []preflight.Result{preflight.OK(GroupSystem,
		fmt.Sprintf("Open file limit is %d (minimum: %d)", currentLimit, MinFileDescriptors))}, nil
}

// memory checks available memory as reported by the kernel in meminfoPath.
func memory(meminfoPath string) preflight.ExecFunc {
	return func(_ context.Context, _ *preflight.Env) ([]preflight.Result, error) {
		available, err := availableMemory(meminfoPath)
		if err != nil {
			return []preflight.Result{preflight.Warn(GroupSystem,
				fmt.Sprintf("Cannot determine available memory: %v", err), "")}, nil
		}

		if available < MinMemoryBytes {
			return []preflight.Result{preflight.Warn(GroupSystem,
				fmt.Sprintf("%s memory available (recommended: 1 GB)", formatBytes(available)),
				"Reduce the number of poller workers or add memory")}, nil
		}
		return []preflight.Result{preflight.OK(GroupSystem,
			fmt.Sprintf("%s memory available (recommended: 1 GB)", formatBytes(available)))}, nil
	}
}

// availableMemory reads MemAvailable from a /proc/meminfo formatted file.
func availableMemory(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "MemAvailable:" {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid MemAvailable value %q", fields[1])
		}
		return kb * 1024, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemAvailable not found in %s", path)
}
