package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with Error
	err := New(ErrCodeFileNotFound, "file not found: config.yaml", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "vendor manifest not found",
			expected: "[ERR_201_FILE_NOT_FOUND] vendor manifest not found",
		},
		{
			name:     "environment error",
			code:     ErrCodeDBUnreachable,
			message:  "connection refused",
			expected: "[ERR_301_DB_UNREACHABLE] connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeDuplicateCheck, "check a registered twice", nil)
	err2 := New(ErrCodeDuplicateCheck, "check b registered twice", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodeConfigNotFound, "x", nil)))
}

func TestError_WithDetailAndSuggestion(t *testing.T) {
	// Given: a base error
	err := New(ErrCodeFilePermission, "log dir not writable", nil)

	// When: adding details and a suggestion
	err = err.WithDetail("path", "/opt/netmon/logs").
		WithSuggestion("chown -R netmon:netmon /opt/netmon/logs")

	// Then: both are available
	assert.Equal(t, "/opt/netmon/logs", err.Details["path"])
	assert.Equal(t, "chown -R netmon:netmon /opt/netmon/logs", err.Suggestion)
}

func TestError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeDuplicateCheck, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeDiskFull, CategoryIO},
		{ErrCodeDBUnreachable, CategoryEnvironment},
		{ErrCodeToolMissing, CategoryEnvironment},
		{ErrCodeDependencyMissing, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeCheckPanic, CategoryInternal},
		{"short", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, categoryFromCode(tt.code))
		})
	}
}

func TestError_SeverityAndRetryable(t *testing.T) {
	db := New(ErrCodeDBUnreachable, "refused", nil)
	assert.Equal(t, SeverityFatal, db.Severity)
	assert.True(t, db.Retryable)

	tool := New(ErrCodeToolMissing, "rrdtool not found", nil)
	assert.Equal(t, SeverityError, tool.Severity)
	assert.False(t, tool.Retryable)

	timeout := New(ErrCodeTimeout, "check timed out", nil)
	assert.Equal(t, SeverityWarning, timeout.Severity)
}

func TestHelpers_TraverseWrappedChain(t *testing.T) {
	// Given: an Error wrapped by fmt.Errorf
	inner := New(ErrCodeConfigInvalid, "bad yaml", nil).WithSuggestion("fix line 3")
	err := fmt.Errorf("load: %w", inner)

	// Then: helpers see through the wrapping
	assert.Equal(t, ErrCodeConfigInvalid, GetCode(err))
	assert.Equal(t, "fix line 3", GetSuggestion(err))
	assert.Equal(t, CategoryConfig, GetCategory(err))
	assert.True(t, IsFatal(err))
	assert.False(t, IsRetryable(err))
}

func TestHelpers_PlainError(t *testing.T) {
	err := errors.New("plain")

	assert.Empty(t, GetCode(err))
	assert.Empty(t, GetSuggestion(err))
	assert.False(t, IsFatal(err))
	assert.False(t, IsRetryable(nil))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeToolMissing, "%s not found in PATH", "rrdtool")

	assert.Equal(t, "rrdtool not found in PATH", err.Message)
	assert.Nil(t, err.Cause)
}
