package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitAborted, "aborted"), ExitAborted},
		{"wrapped exit error", fmt.Errorf("run: %w", reportedExit(ExitAborted, "aborted")), ExitAborted},
		{"zero is normalized", NewExitError(0, "odd"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeOf(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "failed to write report", cause)

	assert.Equal(t, "failed to write report: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, Reported(err))
	assert.True(t, Reported(reportedExit(ExitAborted, "precondition failed")))
}
