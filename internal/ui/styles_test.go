package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_LeaveTextUnchanged(t *testing.T) {
	// Given: plain styles
	styles := NoColorStyles()

	// Then: rendering is the identity
	for _, s := range []string{"[OK]", "[FAIL]", "[FIX] run this", ""} {
		assert.Equal(t, s, styles.OK.Render(s))
		assert.Equal(t, s, styles.Fail.Render(s))
		assert.Equal(t, s, styles.Fix.Render(s))
		assert.Equal(t, s, styles.Header.Render(s))
	}
}

func TestDefaultStyles_FailIsBold(t *testing.T) {
	styles := DefaultStyles()

	assert.True(t, styles.Fail.GetBold())
	assert.True(t, styles.Header.GetBold())
	assert.False(t, styles.Warn.GetBold())
}

func TestGetStyles(t *testing.T) {
	assert.Equal(t, NoColorStyles().Fail.GetBold(), GetStyles(true).Fail.GetBold())
	assert.True(t, GetStyles(false).Fail.GetBold())
}
