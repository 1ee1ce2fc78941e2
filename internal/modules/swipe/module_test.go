package swipe

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phinze/darkpad/internal/clock"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
)

type fakeDispatcher struct {
	mu        sync.Mutex
	actions   []gesture.Action
	touchOffs int
}

func (d *fakeDispatcher) Fire(a gesture.Action) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
	return true
}

func (d *fakeDispatcher) TouchOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touchOffs++
	return nil
}

func (d *fakeDispatcher) fired() []gesture.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]gesture.Action(nil), d.actions...)
}

type fixture struct {
	m       *Module
	cfg     *gesture.Config
	display *gesture.Display
	clock   *clock.Fake
	disp    *fakeDispatcher
}

var bothAxes = module.Resources{Axes: []module.AxisID{module.AxisX, module.AxisY}, Contact: true}

func newFixture(t *testing.T) *fixture {
	cfg := gesture.NewConfig(gesture.DefaultTapTuning(), gesture.DefaultSwipeTuning())
	cfg.SetSwipeEnabled(true)
	cfg.SetSwipeTemporary(true)
	display := &gesture.Display{}
	display.SetSuspended(true)
	clk := clock.NewFake(time.Unix(0, 0))
	disp := &fakeDispatcher{}

	f := &fixture{
		m:       New(cfg, display, clk, disp),
		cfg:     cfg,
		display: display,
		clock:   clk,
		disp:    disp,
	}
	f.m.prepare(bothAxes)
	t.Cleanup(func() { f.m.Stop() })
	return f
}

// move evaluates a position synchronously, as the axis worker would.
func (f *fixture) move(axis module.AxisID, coord int) {
	f.m.mu.Lock()
	gen := f.m.gen
	w := f.m.workers[axis]
	f.m.mu.Unlock()
	if w == nil {
		return
	}
	f.m.evaluate(w, sample{gen: gen, coord: coord})
}

func (f *fixture) swipe(axis module.AxisID, from, to int) {
	f.move(axis, from)
	f.clock.Advance(50 * time.Millisecond)
	f.move(axis, to)
}

func TestSwipeUpFiresOnceImmediately(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	assert.Equal(t, []gesture.Action{gesture.ActionVolumeUp}, f.disp.fired())

	c, on := f.m.Actuating()
	assert.True(t, on)
	assert.Equal(t, gesture.ControlUp, c)
}

func TestHoldRepeatsAtFixedCadence(t *testing.T) {
	for _, k := range []int{1, 3, 8} {
		f := newFixture(t)

		f.swipe(module.AxisY, 1000, 1500)
		f.clock.Advance(time.Duration(k) * 250 * time.Millisecond)

		fired := f.disp.fired()
		require.Len(t, fired, k+1, "k=%d", k)
		for _, a := range fired {
			assert.Equal(t, gesture.ActionVolumeDown, a)
		}
	}
}

func TestTrackRepeatUsesTrackDelay(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisX, 1200, 500)
	f.clock.Advance(3999 * time.Millisecond)
	assert.Len(t, f.disp.fired(), 1)

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, []gesture.Action{gesture.ActionTrackNext, gesture.ActionTrackNext}, f.disp.fired())
}

func TestLiftCancelsPendingRepeat(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	f.clock.Advance(250 * time.Millisecond)
	require.Len(t, f.disp.fired(), 2)

	f.clock.Advance(100 * time.Millisecond)
	f.m.HandleTouch(module.TouchEvent{Type: module.TouchLift})
	f.clock.Advance(2 * time.Second)

	assert.Len(t, f.disp.fired(), 2)
	assert.Equal(t, 0, f.clock.Pending())
	_, on := f.m.Actuating()
	assert.False(t, on)
}

func TestSlotCancelsPendingRepeat(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	f.m.HandleTouch(module.TouchEvent{Type: module.TouchSlot})
	f.clock.Advance(time.Second)

	assert.Len(t, f.disp.fired(), 1)
}

func TestActuationBlocksOtherAxis(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	f.swipe(module.AxisX, 1500, 500)

	assert.Equal(t, []gesture.Action{gesture.ActionVolumeUp}, f.disp.fired())
	c, _ := f.m.Actuating()
	assert.Equal(t, gesture.ControlUp, c)
}

func TestNewContactAfterLiftStartsFresh(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	f.m.HandleTouch(module.TouchEvent{Type: module.TouchLift})

	f.clock.Advance(time.Second)
	f.swipe(module.AxisY, 1000, 1500)

	assert.Equal(t, []gesture.Action{gesture.ActionVolumeUp, gesture.ActionVolumeDown}, f.disp.fired())
}

func TestStaleSampleIsDropped(t *testing.T) {
	f := newFixture(t)

	f.m.mu.Lock()
	gen := f.m.gen
	w := f.m.workers[module.AxisY]
	f.m.mu.Unlock()

	f.m.HandleTouch(module.TouchEvent{Type: module.TouchLift})
	f.m.evaluate(w, sample{gen: gen, coord: 1000})

	assert.False(t, w.axis.State().IsNewTouch, "stale sample must not start a contact")
}

func TestRestingContactTurnsTouchOffOnce(t *testing.T) {
	f := newFixture(t)

	f.move(module.AxisY, 1000)
	f.clock.Advance(4001 * time.Millisecond)
	f.move(module.AxisY, 1002)
	f.clock.Advance(100 * time.Millisecond)
	f.move(module.AxisY, 1003)

	assert.Equal(t, 1, f.disp.touchOffs)
	assert.True(t, f.cfg.Snapshot().ForcedOff)
	assert.Empty(t, f.disp.fired())
}

func TestAutoOffFollowsConfiguredDelay(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.cfg.SetAutoOffDelay(10*time.Second))

	f.move(module.AxisY, 1000)
	f.clock.Advance(5 * time.Second)
	f.move(module.AxisY, 1000)
	assert.Equal(t, 0, f.disp.touchOffs)

	f.clock.Advance(6 * time.Second)
	f.move(module.AxisY, 1000)
	assert.Equal(t, 1, f.disp.touchOffs)
}

func TestDisplayOnStopsRepeat(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	f.display.SetSuspended(false)
	f.clock.Advance(time.Second)

	assert.Len(t, f.disp.fired(), 1)
}

func TestMicBlocksDetection(t *testing.T) {
	f := newFixture(t)
	f.cfg.SetMicDetected(true)

	f.swipe(module.AxisY, 1500, 1000)
	assert.Empty(t, f.disp.fired())
}

func TestStopCancelsRepeat(t *testing.T) {
	f := newFixture(t)

	f.swipe(module.AxisY, 1500, 1000)
	require.NoError(t, f.m.Stop())
	f.clock.Advance(time.Second)

	assert.Len(t, f.disp.fired(), 1)

	// Events after stop are ignored.
	f.m.HandleTouch(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: 10})
}

func TestHandleTouchQueuesOwnedAxesOnly(t *testing.T) {
	f := newFixture(t)
	f.m.prepare(module.Resources{Axes: []module.AxisID{module.AxisY}, Contact: true})

	f.m.HandleTouch(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: 10})
	f.m.HandleTouch(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: 10})

	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	assert.Len(t, f.m.workers, 1)
	assert.Len(t, f.m.workers[module.AxisY].queue, 1)
}
