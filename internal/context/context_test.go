package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeNumberRegexMatchesEventNodesOnly(t *testing.T) {
	assert.True(t, nodeNumberRE.MatchString("/dev/input/event3"))
	assert.True(t, nodeNumberRE.MatchString("/dev/input/event42"))
	assert.False(t, nodeNumberRE.MatchString("/dev/input/mouse0"))
	assert.False(t, nodeNumberRE.MatchString("/dev/input/js0"))
}

func TestDevicesReflectsOpenSet(t *testing.T) {
	c := &Context{devices: make(map[string]*openDevice)}
	assert.Empty(t, c.Devices())

	c.devices["/dev/input/event3"] = &openDevice{}
	assert.Equal(t, []string{"/dev/input/event3"}, c.Devices())
}
