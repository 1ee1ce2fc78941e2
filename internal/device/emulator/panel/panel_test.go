package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/module"
)

var t0 = time.Unix(100, 0)

func decode(evs []device.InputEvent) []module.TouchEvent {
	var out []module.TouchEvent
	for _, ev := range evs {
		if tev, ok := module.TouchEventFromInput(ev); ok {
			out = append(out, tev)
		}
	}
	return out
}

func TestPressMoveRelease(t *testing.T) {
	p := New()

	evs := p.Press(500, 900, t0)
	require.Len(t, evs, 5)
	assert.Equal(t, device.ABS_MT_SLOT, evs[0].Code)
	assert.Equal(t, uint16(device.EV_SYN), evs[4].Type)

	got := decode(evs)
	require.Len(t, got, 3)
	assert.Equal(t, module.TouchSlot, got[0].Type)
	assert.Equal(t, module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisX, Value: 500, Time: t0}, got[1])
	assert.Equal(t, module.TouchEvent{Type: module.TouchPosition, Axis: module.AxisY, Value: 900, Time: t0}, got[2])

	evs = p.Move(500, 600, t0)
	got = decode(evs)
	require.Len(t, got, 1)
	assert.Equal(t, module.AxisY, got[0].Axis)
	assert.Equal(t, 600, got[0].Value)

	assert.Nil(t, p.Move(500, 600, t0), "unchanged position reports nothing")

	got = decode(p.Release(t0))
	require.Len(t, got, 1)
	assert.Equal(t, module.TouchLift, got[0].Type)
	assert.Nil(t, p.Release(t0))
}

func TestTrackingIDsIncrease(t *testing.T) {
	p := New()

	first := p.Press(1, 1, t0)[1].Value
	p.Release(t0)
	second := p.Press(1, 1, t0)[1].Value
	assert.Equal(t, first+1, second)
}

func TestCoordinatesAreClamped(t *testing.T) {
	p := New()

	got := decode(p.Press(-20, Height+50, t0))
	assert.Equal(t, 0, got[1].Value)
	assert.Equal(t, Height-1, got[2].Value)
}

func TestPowerKeyTogglesDisplay(t *testing.T) {
	p := New()
	require.True(t, p.SetDisplayOff(true))

	toggled, off := p.Key(device.KEY_POWER, true, t0)
	assert.False(t, toggled, "press only flashes")
	assert.True(t, off)

	toggled, off = p.Key(device.KEY_POWER, false, t0)
	assert.True(t, toggled)
	assert.False(t, off)

	toggled, _ = p.Key(device.KEY_VOLUMEUP, false, t0)
	assert.False(t, toggled)
}

func TestTouchOffDropsContactUntilUnblank(t *testing.T) {
	p := New()
	p.SetDisplayOff(true)
	p.Press(10, 10, t0)

	p.PowerOffTouch(t0)
	assert.Nil(t, p.Move(20, 20, t0))
	assert.Nil(t, p.Press(10, 10, t0))
	assert.True(t, p.View(t0).TouchOff)

	p.SetDisplayOff(false)
	assert.NotNil(t, p.Press(10, 10, t0))
}

func TestFeedbackExpires(t *testing.T) {
	p := New()
	p.Key(device.KEY_NEXTSONG, true, t0)
	p.Vibrate(t0)

	v := p.View(t0.Add(100 * time.Millisecond))
	require.NotNil(t, v.Flash)
	assert.Equal(t, "next", v.Flash.Label)
	assert.True(t, v.Buzzing)

	v = p.View(t0.Add(time.Second))
	assert.Nil(t, v.Flash)
	assert.False(t, v.Buzzing)
}

func TestRenderFlashDrawsIcon(t *testing.T) {
	for _, f := range []Flash{
		{Key: device.KEY_POWER, Label: "wake"},
		{Key: device.KEY_VOLUMEUP, Label: "volume +"},
		{Key: device.KEY_VOLUMEDOWN, Label: "volume -"},
		{Key: device.KEY_NEXTSONG, Label: "next"},
		{Key: device.KEY_PREVIOUSSONG, Label: "previous"},
		{Label: "touch off"},
	} {
		img := RenderFlash(f, 96)
		assert.Equal(t, 96, img.Bounds().Dx())

		painted := 0
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] != 0 {
				painted++
			}
		}
		assert.Positive(t, painted, f.Label)
	}
}
