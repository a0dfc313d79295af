package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	t.Setenv("HOME", "/home/netmon")

	assert.Equal(t, filepath.Join("/home/netmon", ".validate", "logs"), DefaultLogDir())
	assert.Equal(t, filepath.Join("/home/netmon", ".validate", "logs", "validate.log"), DefaultLogPath())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.False(t, cfg.WriteToStderr)
	assert.Equal(t, "debug", DebugConfig().Level)
}

func TestSetup_WritesJSONLines(t *testing.T) {
	// Given: logging into a temp file
	path := filepath.Join(t.TempDir(), "nested", "validate.log")
	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path})
	require.NoError(t, err)

	// When: logging and cleaning up
	logger.Debug("check finished", slog.String("check", "disk.free"))
	cleanup()

	// Then: one JSON line with the attributes
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "check finished", entry["msg"])
	assert.Equal(t, "disk.free", entry["check"])
	assert.Contains(t, entry, "pid")
}

func TestSetup_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validate.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetup_EmptyPath(t *testing.T) {
	_, _, err := Setup(Config{})

	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestFindLogFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := FindLogFile("")
	assert.Error(t, err)

	_, err = FindLogFile("/nonexistent/validate.log")
	assert.Error(t, err)

	explicit := filepath.Join(t.TempDir(), "x.log")
	require.NoError(t, os.WriteFile(explicit, nil, 0o644))
	found, err := FindLogFile(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, found)
}

// ============================================================================
// Writer Rotation Tests
// ============================================================================

func TestRotatingWriter_Rotation(t *testing.T) {
	// Given: a writer that rotates on every write
	logPath := filepath.Join(t.TempDir(), "rotate.log")
	w, err := NewRotatingWriter(logPath, 0, 3)
	require.NoError(t, err)
	defer w.Close()

	// When: writing twice
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	// Then: the older line moved to .1
	current, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(current))
	rotated, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(rotated))
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")
	w, err := NewRotatingWriter(logPath, 0, 2)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 6; i++ {
		_, _ = fmt.Fprintf(w, "line %d\n", i)
	}

	assert.FileExists(t, logPath+".1")
	assert.FileExists(t, logPath+".2")
	assert.NoFileExists(t, logPath+".3")
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), 1, 3)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Sync())
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(logPath, 10, 3)
	require.NoError(t, err)
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = fmt.Fprintf(w, `{"id":%d,"iter":%d}`+"\n", id, j)
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 1000, strings.Count(string(data), "\n"))
}
