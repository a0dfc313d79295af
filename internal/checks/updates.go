package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/probe"
)

// releaseBranches are the branches automatic updates follow.
var releaseBranches = []string{"main", "master"}

// gitState checks that a git checkout can be updated automatically.
func gitState(runner probe.Runner) preflight.ExecFunc {
	return func(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
		cfg, err := loadedConfig(env)
		if err != nil {
			return nil, err
		}
		dir := cfg.InstallDir

		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			return []preflight.Result{preflight.OK(GroupUpdates,
				"Installation is not a git checkout, updates are managed by packages")}, nil
		}

		info := tools(env).Probe(ctx, probe.Git.WithCommand(cfg.Programs.Git))
		if !info.Found() {
			return []preflight.Result{preflight.Warn(GroupUpdates,
				"git is not installed, automatic updates will fail",
				"Install git or set programs.git in config.yaml")}, nil
		}

		out, err := runner.Run(ctx, info.Path, "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return nil, fmt.Errorf("git rev-parse: %w", err)
		}
		branch := strings.TrimSpace(string(out))

		var results []preflight.Result
		if !slices.Contains(releaseBranches, branch) {
			results = append(results, preflight.Warn(GroupUpdates,
				fmt.Sprintf("Your local git branch is %s, this will prevent automatic updates", branch),
				"git checkout main"))
		}

		out, err = runner.Run(ctx, info.Path, "-C", dir, "status", "--porcelain")
		if err != nil {
			return nil, fmt.Errorf("git status: %w", err)
		}
		var modified []string
		for _, line := range strings.Split(string(out), "\n") {
			// Porcelain lines are "XY path".
			if len(line) > 3 {
				modified = append(modified, line[3:])
			}
		}
		if len(modified) > 0 {
			results = append(results, preflight.Warn(GroupUpdates,
				"Your local git contains modified files, this could prevent automatic updates",
				"Commit or discard the changes listed below").WithList(capList(modified)...))
		}

		if len(results) == 0 {
			results = append(results, preflight.OK(GroupUpdates,
				fmt.Sprintf("Git checkout is clean on branch %s", branch)))
		}
		return results, nil
	}
}
