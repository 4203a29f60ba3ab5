package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySwitchesAccent(t *testing.T) {
	t.Cleanup(func() { Apply("default") })

	Apply("forest")
	assert.Equal(t, ColorGreen, HeaderStyle.GetBackground())
	assert.Equal(t, ColorGreen, ActiveTabStyle.GetForeground())

	Apply("plum")
	assert.Equal(t, ColorMagenta, OwnMessageStyle.GetForeground())
}

func TestApplyUnknownNameFallsBackToDefault(t *testing.T) {
	t.Cleanup(func() { Apply("default") })

	Apply("no-such-theme")
	assert.Equal(t, ColorBlue, HeaderStyle.GetBackground())
}
