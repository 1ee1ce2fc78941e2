package module

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/phinze/darkpad/internal/device"
)

func TestTouchEventFromInput(t *testing.T) {
	now := time.Unix(10, 0)

	tests := []struct {
		name string
		in   device.InputEvent
		want TouchEvent
		ok   bool
	}{
		{"slot", device.InputEvent{Type: device.EV_ABS, Code: device.ABS_MT_SLOT, Value: 1, Time: now},
			TouchEvent{Type: TouchSlot, Time: now}, true},
		{"lift", device.InputEvent{Type: device.EV_ABS, Code: device.ABS_MT_TRACKING_ID, Value: -1, Time: now},
			TouchEvent{Type: TouchLift, Time: now}, true},
		{"new contact", device.InputEvent{Type: device.EV_ABS, Code: device.ABS_MT_TRACKING_ID, Value: 42, Time: now},
			TouchEvent{}, false},
		{"x", device.InputEvent{Type: device.EV_ABS, Code: device.ABS_MT_POSITION_X, Value: 300, Time: now},
			TouchEvent{Type: TouchPosition, Axis: AxisX, Value: 300, Time: now}, true},
		{"y", device.InputEvent{Type: device.EV_ABS, Code: device.ABS_MT_POSITION_Y, Value: 900, Time: now},
			TouchEvent{Type: TouchPosition, Axis: AxisY, Value: 900, Time: now}, true},
		{"sync", device.InputEvent{Type: device.EV_SYN, Code: device.SYN_REPORT, Time: now},
			TouchEvent{}, false},
	}

	for _, tt := range tests {
		got, ok := TouchEventFromInput(tt.in)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestResourcesWants(t *testing.T) {
	vertical := Resources{Axes: []AxisID{AxisY}, Contact: true}

	assert.True(t, vertical.Wants(TouchEvent{Type: TouchPosition, Axis: AxisY}))
	assert.False(t, vertical.Wants(TouchEvent{Type: TouchPosition, Axis: AxisX}))
	assert.True(t, vertical.Wants(TouchEvent{Type: TouchLift}))
	assert.False(t, Resources{Axes: []AxisID{AxisX}}.Wants(TouchEvent{Type: TouchSlot}))
}

func TestBaseModuleStopWaitsForWorkers(t *testing.T) {
	b := NewBaseModule("test")
	assert.NoError(t, b.Init(context.Background(), Resources{}))

	done := make(chan struct{})
	b.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	assert.NoError(t, b.Stop())
	select {
	case <-done:
	default:
		t.Fatal("worker still running after Stop")
	}
}
