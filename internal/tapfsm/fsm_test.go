package tapfsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	armed    bool
	duration time.Duration
}

func (t *fakeTimer) Arm(d time.Duration) {
	t.armed = true
	t.duration = d
}

type recordingSink struct {
	presses  []int64
	releases []int64
}

func (s *recordingSink) ButtonPressed(timeMs int64)  { s.presses = append(s.presses, timeMs) }
func (s *recordingSink) ButtonReleased(timeMs int64) { s.releases = append(s.releases, timeMs) }

func TestSingleTap(t *testing.T) {
	timer := &fakeTimer{}
	sink := &recordingSink{}
	f := New(true, timer, sink)

	f.Push(EventTouch)
	f.Drain(0)
	assert.Equal(t, StateTouch, f.State())

	f.Push(EventRelease)
	f.Drain(10)
	assert.Equal(t, StateTap, f.State())
	require.True(t, timer.armed)
	assert.Equal(t, Timeout, timer.duration)

	f.Push(EventTimeout)
	f.Drain(110)

	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, []int64{110}, sink.presses)
	assert.Equal(t, []int64{110}, sink.releases)
}

func TestDoubleTap(t *testing.T) {
	timer := &fakeTimer{}
	sink := &recordingSink{}
	f := New(true, timer, sink)

	f.Push(EventTouch)
	f.Drain(0)
	f.Push(EventRelease)
	f.Drain(10)

	// second touch arrives before the timeout fires
	f.Push(EventTouch)
	f.Drain(50)
	assert.Equal(t, StateTap2, f.State())
	assert.Equal(t, []int64{50}, sink.presses)

	f.Push(EventRelease)
	f.Drain(60)

	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, []int64{50, 60}, sink.presses)
	assert.Equal(t, []int64{60, 60}, sink.releases)
}

func TestTapAndDrag(t *testing.T) {
	timer := &fakeTimer{}
	sink := &recordingSink{}
	f := New(true, timer, sink)

	f.Push(EventTouch)
	f.Drain(0)
	f.Push(EventRelease)
	f.Drain(10)

	f.Push(EventTouch)
	f.Drain(50)
	assert.Equal(t, StateTap2, f.State())

	f.Push(EventMotion)
	f.Drain(70)
	assert.Equal(t, StateDrag, f.State())

	f.Push(EventRelease)
	f.Drain(200)

	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, []int64{50}, sink.presses)
	assert.Equal(t, []int64{200}, sink.releases)
}

// Property 6: from any state, a release followed by a timer fire of T
// reaches idle with at most one click (press+release pair) emitted.
func TestLivenessFromAnyState(t *testing.T) {
	allStates := []State{StateIdle, StateTouch, StateTap, StateTap2, StateDrag}
	for _, start := range allStates {
		timer := &fakeTimer{}
		sink := &recordingSink{}
		f := New(true, timer, sink)
		f.state = start

		f.Push(EventRelease)
		f.Drain(0)
		f.Push(EventTimeout)
		f.Drain(int64(Timeout / time.Millisecond))

		assert.Equal(t, StateIdle, f.State(), "start state %v", start)
		assert.LessOrEqual(t, len(sink.presses), 2, "start state %v", start)
		assert.LessOrEqual(t, len(sink.releases), 2, "start state %v", start)
	}
}

func TestStaleTimeoutIsIgnoredAfterStateChange(t *testing.T) {
	timer := &fakeTimer{}
	sink := &recordingSink{}
	f := New(true, timer, sink)

	f.Push(EventTouch)
	f.Drain(0)
	f.Push(EventRelease)
	f.Drain(10) // now in StateTap, timer armed for t=110

	// a new touch arrives before the timer actually fires
	f.Push(EventTouch)
	f.Drain(50) // now in StateTap2

	// the stale timer eventually fires; its event is queued but the
	// FSM is no longer in StateTap, so it must be ignored.
	f.Push(EventTimeout)
	f.Drain(110)

	assert.Equal(t, StateIdle, f.State())
}

func TestDisabledFSMIgnoresEverything(t *testing.T) {
	timer := &fakeTimer{}
	sink := &recordingSink{}
	f := New(false, timer, sink)

	f.Push(EventTouch)
	f.Drain(0)
	f.Push(EventRelease)
	f.Drain(10)

	assert.Equal(t, StateIdle, f.State())
	assert.False(t, timer.armed)
	assert.Empty(t, sink.presses)
}

func TestQueueOverflowResetsToIdle(t *testing.T) {
	timer := &fakeTimer{}
	sink := &recordingSink{}
	f := New(true, timer, sink)
	f.state = StateDrag

	for i := 0; i < queueCapacity; i++ {
		f.Push(EventMotion)
	}
	// one more push overflows the bounded queue
	f.Push(EventMotion)

	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, 0, f.count)
}
