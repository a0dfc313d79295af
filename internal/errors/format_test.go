package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_WithSuggestion(t *testing.T) {
	// Given: an error with a suggestion
	err := New(ErrCodeConfigNotFound, "config.yaml does not exist", nil).
		WithSuggestion("cp config.yaml.example config.yaml")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: message, fix and code appear on separate lines
	assert.Equal(t, "Error: config.yaml does not exist\n"+
		"  Fix: cp config.yaml.example config.yaml\n"+
		"  Code: ERR_101_CONFIG_NOT_FOUND\n", result)
}

func TestFormatForCLI_StandardErrorIsWrapped(t *testing.T) {
	result := FormatForCLI(errors.New("boom"))

	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, ErrCodeInternal)
	assert.NotContains(t, result, "Fix:")
}

func TestFormatForCLI_FindsWrappedError(t *testing.T) {
	inner := New(ErrCodeDBUnreachable, "connection refused", nil)
	wrapped := fmt.Errorf("connect: %w", inner)

	result := FormatForCLI(wrapped)

	assert.Contains(t, result, ErrCodeDBUnreachable)
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestLogAttrs(t *testing.T) {
	// Given: an error with cause, suggestion and details
	err := New(ErrCodeFilePermission, "rrd dir not writable", errors.New("EACCES")).
		WithSuggestion("chown -R netmon:netmon /opt/netmon/rrd").
		WithDetail("path", "/opt/netmon/rrd").
		WithDetail("mode", "0755")

	// When: converting to slog attributes
	attrs := LogAttrs(err)

	// Then: details are sorted and prefixed
	require.Len(t, attrs, 8)
	keys := make([]string, 0, len(attrs))
	values := make(map[string]string, len(attrs))
	for _, a := range attrs {
		attr, ok := a.(slog.Attr)
		require.True(t, ok)
		keys = append(keys, attr.Key)
		values[attr.Key] = attr.Value.String()
	}
	assert.Equal(t, []string{
		"error_code", "message", "category", "severity",
		"cause", "suggestion", "detail_mode", "detail_path",
	}, keys)
	assert.Equal(t, ErrCodeFilePermission, values["error_code"])
	assert.Equal(t, "EACCES", values["cause"])
	assert.Equal(t, "/opt/netmon/rrd", values["detail_path"])
}

func TestLogAttrs_PlainError(t *testing.T) {
	attrs := LogAttrs(errors.New("plain"))

	require.Len(t, attrs, 1)
	attr, ok := attrs[0].(slog.Attr)
	require.True(t, ok)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "plain", attr.Value.String())
	assert.Nil(t, LogAttrs(nil))
}
