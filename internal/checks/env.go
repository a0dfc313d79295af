package checks

import (
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/validate/internal/config"
	verrors "github.com/Aman-CERP/validate/internal/errors"
	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/probe"
)

// maxListed caps detail lists so one bad directory cannot flood the report.
const maxListed = 10

// loadedConfig returns the configuration parsed by the config preconditions.
func loadedConfig(env *preflight.Env) (*config.Config, error) {
	if env == nil || env.Config == nil {
		return nil, verrors.New(verrors.ErrCodeInternal, "configuration has not been loaded", nil)
	}
	return env.Config, nil
}

func logger(env *preflight.Env) *slog.Logger {
	if env == nil || env.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return env.Logger
}

func tools(env *preflight.Env) *probe.Prober {
	if env == nil || env.Tools == nil {
		return probe.New()
	}
	return env.Tools
}

// capList truncates items to maxListed entries, noting how many were dropped.
func capList(items []string) []string {
	if len(items) <= maxListed {
		return items
	}
	out := append([]string(nil), items[:maxListed]...)
	return append(out, fmt.Sprintf("... and %d more", len(items)-maxListed))
}

// errorText returns the operator-facing message of err without its code.
func errorText(err error) string {
	if e, ok := verrors.As(err); ok {
		return e.Message
	}
	return err.Error()
}

// failure turns a coded error into a FAIL result and logs it with its code.
func failure(env *preflight.Env, group string, err *verrors.Error) preflight.Result {
	logger(env).Warn("check found a problem", verrors.LogAttrs(err)...)
	return preflight.Fail(group, err.Message, err.Suggestion)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
