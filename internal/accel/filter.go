// Package accel implements speed-dependent pointer acceleration.
//
// A Filter maps a raw (dx, dy) delta plus an elapsed time to an
// accelerated delta. The touchpad dispatcher builds its filter from a
// Profile: a function of instantaneous velocity and time that returns
// a scaling factor, grounded on xf86-input-synaptics' acceleration
// curve (constant factor clamped to [min, max]).
package accel

import "math"

// Filter maps a raw delta to an accelerated delta.
type Filter interface {
	Dispatch(dx, dy float64, timeMs int64) (float64, float64)
}

// Profile computes a scale factor from instantaneous velocity
// (distance per millisecond) and the current timestamp.
type Profile func(velocity float64, timeMs int64) float64

// PointerAccelerator is the touchpad's motion filter: it derives
// velocity from the delta and the elapsed time since the previous
// sample, evaluates Profile, and scales (dx, dy) by the result.
type PointerAccelerator struct {
	profile  Profile
	lastTime int64
	hasLast  bool
}

// NewPointerAccelerator builds a filter around the given profile.
func NewPointerAccelerator(profile Profile) *PointerAccelerator {
	return &PointerAccelerator{profile: profile}
}

// Dispatch implements Filter.
func (p *PointerAccelerator) Dispatch(dx, dy float64, timeMs int64) (float64, float64) {
	var elapsed int64 = 1
	if p.hasLast {
		if d := timeMs - p.lastTime; d > 0 {
			elapsed = d
		}
	}
	p.lastTime = timeMs
	p.hasLast = true

	dist := math.Hypot(dx, dy)
	velocity := dist / float64(elapsed)

	factor := p.profile(velocity, timeMs)
	return dx * factor, dy * factor
}

// TouchpadProfile returns the standard touchpad acceleration profile:
// factor = clamp(velocity*constant, min, max).
func TouchpadProfile(constant, min, max float64) Profile {
	return func(velocity float64, _ int64) float64 {
		factor := velocity * constant
		if factor > max {
			return max
		}
		if factor < min {
			return min
		}
		return factor
	}
}

// Params bundles the three acceleration constants derived from a
// device's coordinate diagonal.
type Params struct {
	Constant float64
	Min      float64
	Max      float64
}

// DefaultParams derives acceleration parameters from a device
// diagonal, per the defaults: constant = 50/diagonal, min = 0.16,
// max = 1.0.
func DefaultParams(diagonal float64) Params {
	const (
		numerator = 50.0
		minFactor = 0.16
		maxFactor = 1.0
	)
	return Params{
		Constant: numerator / diagonal,
		Min:      minFactor,
		Max:      maxFactor,
	}
}
