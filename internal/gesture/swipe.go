package gesture

import "time"

// Axis selects which coordinate a swipe detector watches.
type Axis uint8

const (
	// AxisVertical watches Y and drives volume.
	AxisVertical Axis = iota
	// AxisHorizontal watches X and drives track control.
	AxisHorizontal
)

func (a Axis) String() string {
	if a == AxisHorizontal {
		return "track"
	}
	return "volume"
}

// SwipeAxisState is owned by a single SwipeAxis.
type SwipeAxisState struct {
	IsNewTouch bool
	RefTime    time.Time
	RefCoord   int
	Actuating  bool
	Control    Control
}

// SwipeOutcome is the result of evaluating one axis sample.
type SwipeOutcome uint8

const (
	SwipeNothing SwipeOutcome = iota
	// SwipeFired means the axis entered actuating mode.
	SwipeFired
	// SwipeAutoOff means the contact rested long enough to power the panel down.
	SwipeAutoOff
)

// SwipeAxis detects a directional swipe on one axis relative to the first
// sample of the contact.
type SwipeAxis struct {
	axis    Axis
	feather int
	timeGap time.Duration
	state   SwipeAxisState
}

// NewSwipeAxis returns a detector for axis using the matching feather.
func NewSwipeAxis(axis Axis, t SwipeTuning) *SwipeAxis {
	feather := t.VolumeFeather
	if axis == AxisHorizontal {
		feather = t.TrackFeather
	}
	return &SwipeAxis{axis: axis, feather: feather, timeGap: t.TimeGap}
}

// Axis returns the watched axis.
func (a *SwipeAxis) Axis() Axis {
	return a.axis
}

// State returns a copy of the current state.
func (a *SwipeAxis) State() SwipeAxisState {
	return a.state
}

// Evaluate feeds one coordinate. The first sample of a contact only records
// the reference; it is compared against itself (dt == 0) and never fires, so
// a swipe needs at least a second sample.
//
// Auto-off is only checked here, against the reference time. There is no
// timer: a finger resting still that stops reporting samples never triggers
// it.
func (a *SwipeAxis) Evaluate(coord int, now time.Time, autoOff time.Duration) (SwipeOutcome, Control) {
	if a.state.Actuating {
		return SwipeNothing, ControlNone
	}

	if !a.state.IsNewTouch {
		a.state.IsNewTouch = true
		a.state.RefTime = now
		a.state.RefCoord = coord
	}

	dt := now.Sub(a.state.RefTime)
	switch {
	case dt > 0 && dt < a.timeGap:
		var c Control
		if a.state.RefCoord-coord > a.feather {
			c = a.decreasing()
		} else if coord-a.state.RefCoord > a.feather {
			c = a.increasing()
		}
		if c == ControlNone {
			return SwipeNothing, ControlNone
		}
		a.state.Actuating = true
		a.state.Control = c
		return SwipeFired, c
	case dt > autoOff:
		return SwipeAutoOff, ControlNone
	}
	return SwipeNothing, ControlNone
}

// Reset clears the reference and any actuation.
func (a *SwipeAxis) Reset() {
	a.state = SwipeAxisState{}
}

// decreasing maps a coordinate moving towards zero: bottom-to-top is volume
// up, right-to-left is next track.
func (a *SwipeAxis) decreasing() Control {
	if a.axis == AxisHorizontal {
		return ControlNext
	}
	return ControlUp
}

func (a *SwipeAxis) increasing() Control {
	if a.axis == AxisHorizontal {
		return ControlPrevious
	}
	return ControlDown
}
