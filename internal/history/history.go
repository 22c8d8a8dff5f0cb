// Package history implements the touchpad's bounded motion history: a
// depth-4 ring buffer of accepted positions, used to smooth the raw
// per-sample delta before it reaches the acceleration filter.
package history

// Depth is the ring buffer size and the minimum sample count before a
// smoothed delta may be produced.
const Depth = 4

// Sample is a single accepted (x, y) position.
type Sample struct {
	X, Y int32
}

// History is a fixed-depth ring buffer of the most recently accepted
// samples.
type History struct {
	samples [Depth]Sample
	index   int
	count   int
}

// Reset clears the buffer, as happens on finger-state change or a
// device reset.
func (h *History) Reset() {
	h.samples = [Depth]Sample{}
	h.index = 0
	h.count = 0
}

// Push appends a new accepted sample, advancing the ring index and
// saturating the fill count at Depth.
func (h *History) Push(s Sample) {
	h.index = (h.index + 1) % Depth
	h.samples[h.index] = s
	if h.count < Depth {
		h.count++
	}
}

// Count reports how many samples have been recorded since the last
// Reset, capped at Depth.
func (h *History) Count() int {
	return h.count
}

// at returns the sample `offset` positions back from the newest
// (offset 0 is newest, Depth-1 is oldest).
func (h *History) at(offset int) Sample {
	idx := (h.index - offset + Depth) % Depth
	return h.samples[idx]
}

// Ready reports whether enough samples have accumulated to produce a
// smoothed delta.
func (h *History) Ready() bool {
	return h.count >= Depth
}

// Delta computes the smoothed delta from the four most recent
// samples: dx = (h0.x + h1.x - h2.x - h3.x) / 4, and likewise for y.
// Only valid once Ready reports true.
func (h *History) Delta() (dx, dy int32) {
	h0, h1, h2, h3 := h.at(0), h.at(1), h.at(2), h.at(3)
	dx = (h0.X + h1.X - h2.X - h3.X) / 4
	dy = (h0.Y + h1.Y - h2.Y - h3.Y) / 4
	return dx, dy
}
