package errors

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ve, ok := As(err)
	if !ok {
		ve = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ve.Message)
	if ve.Suggestion != "" {
		fmt.Fprintf(&sb, "  Fix: %s\n", ve.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", ve.Code)

	return sb.String()
}

// LogAttrs returns slog attributes describing err, suitable for
// logger.LogAttrs or logger.Error(msg, LogAttrs(err)...).
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	ve, ok := As(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", ve.Code),
		slog.String("message", ve.Message),
		slog.String("category", string(ve.Category)),
		slog.String("severity", string(ve.Severity)),
	}
	if ve.Cause != nil {
		attrs = append(attrs, slog.String("cause", ve.Cause.Error()))
	}
	if ve.Suggestion != "" {
		attrs = append(attrs, slog.String("suggestion", ve.Suggestion))
	}

	keys := make([]string, 0, len(ve.Details))
	for k := range ve.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String("detail_"+k, ve.Details[k]))
	}

	return attrs
}
