package module

import "github.com/phinze/darkpad/internal/device"

// trackingIDRelease is the tracking id reported when a contact lifts. Some
// drivers report it as an unsigned 0xffffffff, which reads back as -1.
const trackingIDRelease = -1

// TouchEventFromInput converts a raw input event. The second return value is
// false for events the detectors do not consume.
func TouchEventFromInput(ev device.InputEvent) (TouchEvent, bool) {
	if ev.Type != device.EV_ABS {
		return TouchEvent{}, false
	}

	switch ev.Code {
	case device.ABS_MT_SLOT:
		return TouchEvent{Type: TouchSlot, Time: ev.Time}, true
	case device.ABS_MT_TRACKING_ID:
		if ev.Value != trackingIDRelease {
			return TouchEvent{}, false
		}
		return TouchEvent{Type: TouchLift, Time: ev.Time}, true
	case device.ABS_MT_POSITION_X:
		return TouchEvent{Type: TouchPosition, Axis: AxisX, Value: int(ev.Value), Time: ev.Time}, true
	case device.ABS_MT_POSITION_Y:
		return TouchEvent{Type: TouchPosition, Axis: AxisY, Value: int(ev.Value), Time: ev.Time}, true
	}
	return TouchEvent{}, false
}
