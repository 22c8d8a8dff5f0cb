// Package hysteresis implements the touchpad coordinate dead-zone
// filter: it suppresses sub-threshold jitter around a moving center
// while tracking genuine motion without long-term drift.
package hysteresis

// Axis holds the hysteresis state for a single coordinate axis: the
// moving center and the dead-zone margin around it.
type Axis struct {
	Center int32
	Margin int32
}

// Apply runs the dead-zone filter against in, returning the new
// center (which becomes the anchor for the next call):
//
//	diff := in - center
//	|diff| <= margin  -> center unchanged
//	diff >  margin    -> center + diff - margin
//	diff < -margin    -> center + diff + margin
func (a *Axis) Apply(in int32) int32 {
	diff := in - a.Center
	switch {
	case diff <= a.Margin && diff >= -a.Margin:
		// within the dead zone; center does not move
	case diff > a.Margin:
		a.Center += diff - a.Margin
	default:
		a.Center += diff + a.Margin
	}
	return a.Center
}

// Pair bundles independent X/Y hysteresis axes, as used by the
// touchpad dispatcher.
type Pair struct {
	X, Y Axis
}

// NewPair builds a Pair with the given per-axis margin applied to
// both axes (the touchpad dispatcher always uses a symmetric margin
// derived from the device diagonal).
func NewPair(margin int32) Pair {
	return Pair{
		X: Axis{Margin: margin},
		Y: Axis{Margin: margin},
	}
}

// Apply filters an (x, y) pair and returns the new (center_x, center_y).
func (p *Pair) Apply(x, y int32) (int32, int32) {
	return p.X.Apply(x), p.Y.Apply(y)
}
