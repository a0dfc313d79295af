package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/validate/internal/config"
	verrors "github.com/Aman-CERP/validate/internal/errors"
	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/store"
)

// configPath returns the configuration file the run validates.
func configPath(env *preflight.Env) string {
	if env.ConfigPath != "" {
		return env.ConfigPath
	}
	return filepath.Join(env.InstallDir, config.FileName)
}

func configExists(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	path := configPath(env)
	info, err := os.Stat(path)
	if err != nil {
		_, readErr := config.Read(path)
		if readErr == nil {
			readErr = err
		}
		return nil, readErr
	}
	if info.IsDir() {
		return nil, preflight.NewAbort(fmt.Sprintf("%s is a directory, not a config file", path), "")
	}
	return nil, nil
}

// configSyntax loads the configuration and publishes it to later checks.
func configSyntax(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	path := configPath(env)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	settings, err := cfg.Flatten()
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInternal, err)
	}
	env.Config = cfg
	env.Settings = settings
	env.ConfigPath = path

	// Load succeeded, so the file is readable and parses.
	data, _ := os.ReadFile(path)
	unknown, err := config.UnknownKeys(data)
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeConfigInvalid, err)
	}
	if len(unknown) > 0 {
		return []preflight.Result{
			preflight.Warn(GroupConfig,
				fmt.Sprintf("Unknown settings in %s are ignored", filepath.Base(path)),
				"Check these keys for typos").WithList(unknown...),
		}, nil
	}
	return []preflight.Result{preflight.OK(GroupConfig, "Configuration file is valid")}, nil
}

// installDir makes sure install_dir points at the installation, or every
// relative path after this would resolve to the wrong place.
func installDir(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(cfg.InstallDir, config.FileName)); err == nil {
		env.InstallDir = cfg.InstallDir
		return nil, nil
	}

	abs, err := filepath.Abs(configPath(env))
	if err != nil {
		abs = configPath(env)
	}
	suggested, err := config.FindInstallDir(filepath.Dir(abs))
	if err != nil {
		suggested = filepath.Dir(abs)
	}
	return nil, verrors.New(verrors.ErrCodeInstallDir, "install_dir is not set correctly.", nil).
		WithDetail("install_dir", cfg.InstallDir).
		WithSuggestion("It should probably be set to: " + suggested)
}

// manifest is the dependency manifest shipped with a release.
type manifest struct {
	Dependencies []struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"dependencies"`
}

// dependencies compares the manifest against what is installed in the
// vendor directory. Missing dependencies abort; outdated ones only fail.
func dependencies(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}
	deps := cfg.Dependencies
	install := deps.InstallCommand
	vendor := cfg.Path(deps.VendorDir)

	if info, err := os.Stat(vendor); err != nil || !info.IsDir() {
		return nil, preflight.NewAbort("Dependencies have not been installed, "+vendor+" is missing", install)
	}

	manifestPath := cfg.Path(deps.Manifest)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, verrors.New(verrors.ErrCodeDependencyMissing,
				fmt.Sprintf("Dependency manifest %s does not exist", manifestPath), err).
				WithSuggestion("Set dependencies.manifest in config.yaml")
		}
		return nil, verrors.New(verrors.ErrCodeDependencyMissing,
			fmt.Sprintf("Cannot read dependency manifest %s", manifestPath), err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, verrors.New(verrors.ErrCodeDependencyMissing,
			fmt.Sprintf("Syntax error in %s: %v", filepath.Base(manifestPath), err), err)
	}

	var missing, outdated []string
	for _, dep := range m.Dependencies {
		raw, err := os.ReadFile(filepath.Join(vendor, dep.Name, "VERSION"))
		if err != nil {
			missing = append(missing, dep.Name)
			continue
		}
		installed := strings.TrimSpace(string(raw))
		if dep.Version != "" && installed != dep.Version {
			outdated = append(outdated, fmt.Sprintf("%s (%s => %s)", dep.Name, installed, dep.Version))
		}
	}

	if len(missing) > 0 {
		return nil, preflight.NewAbort("Missing dependencies!", install, missing...)
	}
	if len(outdated) > 0 {
		return []preflight.Result{
			preflight.Fail(GroupDependencies, "Outdated dependencies", install).WithList(outdated...),
		}, nil
	}
	return []preflight.Result{
		preflight.OK(GroupDependencies, fmt.Sprintf("%d dependencies installed", len(m.Dependencies))),
	}, nil
}

// databaseConnect opens the database for the checks that follow. A failed
// connection is reported in the database group rather than aborting, so the
// checks that don't need the database still run.
func databaseConnect(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}
	timeout, _ := config.ParseDuration(cfg.Database.ConnectTimeout)
	log := logger(env)

	retry := verrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Database.ConnectRetries
	retry.OnRetry = func(attempt int, err error) {
		log.Debug("retrying database connection",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}

	db, err := verrors.RetryWithResult(ctx, retry, func() (*store.DB, error) {
		return store.Open(ctx, store.Options{
			Driver:  cfg.Database.Driver,
			Path:    cfg.Path(cfg.Database.DSN),
			Timeout: timeout,
		})
	})
	if err != nil {
		return []preflight.Result{
			preflight.Fail(GroupDatabase, errorText(err), verrors.GetSuggestion(err)),
		}, nil
	}

	env.DB = db
	return []preflight.Result{preflight.OK(GroupDatabase, "Database connection successful")}, nil
}
