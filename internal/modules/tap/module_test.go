package tap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phinze/darkpad/internal/clock"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
)

type recordingFirer struct {
	mu      sync.Mutex
	actions []gesture.Action
	ch      chan gesture.Action
}

func newRecordingFirer() *recordingFirer {
	return &recordingFirer{ch: make(chan gesture.Action, 16)}
}

func (f *recordingFirer) Fire(a gesture.Action) bool {
	f.mu.Lock()
	f.actions = append(f.actions, a)
	f.mu.Unlock()
	f.ch <- a
	return true
}

func (f *recordingFirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actions)
}

type fixture struct {
	m       *Module
	cfg     *gesture.Config
	display *gesture.Display
	clock   *clock.Fake
	fire    *recordingFirer
}

func newFixture(threshold int) *fixture {
	cfg := gesture.NewConfig(gesture.DefaultTapTuning(), gesture.DefaultSwipeTuning())
	_ = cfg.SetTapThreshold(threshold)
	display := &gesture.Display{}
	display.SetSuspended(true)
	clk := clock.NewFake(time.Unix(0, 0))
	fire := newRecordingFirer()
	return &fixture{
		m:       New(cfg, display, clk, fire),
		cfg:     cfg,
		display: display,
		clock:   clk,
		fire:    fire,
	}
}

// tap feeds one contact at (x, y) straight into the worker's handler.
func (f *fixture) tap(x, y int) {
	f.m.handle(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: x})
	f.m.handle(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: y})
	f.m.handle(module.TouchEvent{Type: module.TouchLift})
}

func TestDoubleTapWakes(t *testing.T) {
	f := newFixture(1)

	f.tap(500, 900)
	f.clock.Advance(100 * time.Millisecond)
	f.tap(510, 905)

	assert.Equal(t, []gesture.Action{gesture.ActionWake}, f.fire.actions)
	assert.Equal(t, 0, f.m.State().Count)
}

func TestRepeatTapReportingOnlyXWakes(t *testing.T) {
	f := newFixture(1)

	f.tap(500, 900)
	f.clock.Advance(100 * time.Millisecond)
	// Same height as the first tap: evdev drops the unchanged Y.
	f.m.handle(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: 510})
	f.m.handle(module.TouchEvent{Type: module.TouchLift})

	assert.Equal(t, []gesture.Action{gesture.ActionWake}, f.fire.actions)
}

func TestRepeatTapReportingNoChangeInXWakes(t *testing.T) {
	f := newFixture(1)

	f.tap(500, 900)
	f.clock.Advance(100 * time.Millisecond)
	f.m.handle(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: 880})
	f.m.handle(module.TouchEvent{Type: module.TouchLift})

	assert.Equal(t, []gesture.Action{gesture.ActionWake}, f.fire.actions)
}

func TestSlowTapsDoNotWake(t *testing.T) {
	f := newFixture(1)

	f.tap(500, 900)
	f.clock.Advance(300 * time.Millisecond)
	f.tap(500, 900)

	assert.Empty(t, f.fire.actions)
	assert.Equal(t, 1, f.m.State().Count)
}

func TestMovingContactCountsOnce(t *testing.T) {
	f := newFixture(1)

	for i := 0; i < 5; i++ {
		f.m.handle(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: 500 + i})
		f.m.handle(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: 900})
		f.clock.Advance(10 * time.Millisecond)
	}

	assert.Empty(t, f.fire.actions)
	assert.Equal(t, 1, f.m.State().Count)
}

func TestSlotResetsCount(t *testing.T) {
	f := newFixture(1)

	f.tap(500, 900)
	f.m.handle(module.TouchEvent{Type: module.TouchSlot})
	f.clock.Advance(50 * time.Millisecond)
	f.tap(500, 900)

	assert.Empty(t, f.fire.actions)
}

func TestTemporaryOverrideActsAsDoubleTap(t *testing.T) {
	f := newFixture(0)
	f.cfg.SetTapTemporary(true)

	f.tap(100, 100)
	assert.Empty(t, f.fire.actions)
	f.tap(100, 100)
	assert.Equal(t, []gesture.Action{gesture.ActionWake}, f.fire.actions)
}

func TestDisplayOnIgnoresTaps(t *testing.T) {
	f := newFixture(1)
	f.display.SetSuspended(false)

	f.tap(100, 100)
	f.tap(100, 100)
	assert.Empty(t, f.fire.actions)
	assert.Equal(t, 0, f.m.State().Count)
}

func TestWorkerDeliversQueuedEvents(t *testing.T) {
	f := newFixture(1)

	f.m.Reset()
	require.NoError(t, f.m.Init(context.Background(), module.Resources{
		Axes:    []module.AxisID{module.AxisX, module.AxisY},
		Contact: true,
	}))

	for i := 0; i < 2; i++ {
		f.m.HandleTouch(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: 300})
		f.m.HandleTouch(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: 300})
		f.m.HandleTouch(module.TouchEvent{Type: module.TouchLift})
	}

	select {
	case a := <-f.fire.ch:
		assert.Equal(t, gesture.ActionWake, a)
	case <-time.After(2 * time.Second):
		t.Fatal("wake not fired")
	}

	require.NoError(t, f.m.Stop())

	// Stopped modules drop events.
	f.m.HandleTouch(module.TouchEvent{Type: module.TouchSlot})
	assert.Equal(t, 1, f.fire.count())
}

func TestHandleTouchDropsPositionsWhileDisplayOn(t *testing.T) {
	f := newFixture(1)
	f.display.SetSuspended(false)

	require.NoError(t, f.m.Init(context.Background(), module.Resources{}))
	defer f.m.Stop()

	f.m.HandleTouch(module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: 1})
	f.m.mu.Lock()
	queued := len(f.m.queue)
	f.m.mu.Unlock()
	assert.Equal(t, 0, queued)
}
