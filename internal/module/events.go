package module

import "time"

// TouchEventType indicates the kind of touch event.
type TouchEventType uint8

const (
	// TouchSlot indicates a slot select; detectors reset on it.
	TouchSlot TouchEventType = iota + 1
	// TouchLift indicates the tracked contact was released.
	TouchLift
	// TouchPosition carries one coordinate of the current contact.
	TouchPosition
)

func (t TouchEventType) String() string {
	switch t {
	case TouchSlot:
		return "slot"
	case TouchLift:
		return "lift"
	case TouchPosition:
		return "position"
	default:
		return "unknown"
	}
}

// TouchEvent is a decoded multitouch event.
type TouchEvent struct {
	Type TouchEventType

	// Axis and Value are only meaningful for TouchPosition events.
	Axis  AxisID
	Value int

	Time time.Time
}

// Bus topics shared by the dispatcher, the coordinator and the control
// server.
const (
	TopicGestureFired = "gesture.fired"
	TopicForcedOff    = "touch.forced_off"
	TopicDisplayPower = "display.power"
	TopicGroupState   = "group.state"
)

// GestureEvent is published on TopicGestureFired after a successful pulse.
type GestureEvent struct {
	Action string    `json:"action"`
	Time   time.Time `json:"time"`
}

// ForcedOffEvent is published on TopicForcedOff once the touch power-off
// request was issued.
type ForcedOffEvent struct {
	Time time.Time `json:"time"`
}

// DisplayEvent is published on TopicDisplayPower for every transition.
type DisplayEvent struct {
	Off  bool      `json:"off"`
	Time time.Time `json:"time"`
}

// GroupStateEvent is published on TopicGroupState when a group starts or
// stops.
type GroupStateEvent struct {
	Group   string    `json:"group"`
	Active  bool      `json:"active"`
	Session string    `json:"session,omitempty"`
	Time    time.Time `json:"time"`
}
