package hysteresis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeadZoneHoldsCenter(t *testing.T) {
	a := Axis{Center: 500, Margin: 10}
	for _, in := range []int32{495, 500, 505, 510, 490} {
		got := a.Apply(in)
		assert.Equal(t, int32(500), got, "input %d within margin must not move center", in)
	}
}

func TestBoundaryIsDeadZone(t *testing.T) {
	a := Axis{Center: 0, Margin: 5}
	assert.Equal(t, int32(0), a.Apply(5))
	assert.Equal(t, int32(0), a.Apply(-5))
}

func TestNonExpansion(t *testing.T) {
	a := Axis{Center: 0, Margin: 3}
	for _, in := range []int32{-100, -10, -3, 0, 3, 10, 100} {
		before := a.Center
		out := a.Apply(in)
		diffIn := in - before
		if diffIn < 0 {
			diffIn = -diffIn
		}
		diffOut := out - before
		if diffOut < 0 {
			diffOut = -diffOut
		}
		assert.LessOrEqual(t, diffOut, diffIn)
	}
}

func TestCenterTracksSustainedMotion(t *testing.T) {
	a := Axis{Center: 0, Margin: 2}
	a.Apply(100)
	assert.Equal(t, int32(98), a.Center)
	a.Apply(200)
	assert.Equal(t, int32(198), a.Center)
}

func TestPairAppliesIndependently(t *testing.T) {
	p := NewPair(5)
	x, y := p.Apply(2, 100)
	assert.Equal(t, int32(0), x)
	assert.Equal(t, int32(95), y)
}
