// Package gesture holds the gesture state machines and the shared gesture
// configuration. Everything here is free of goroutines and I/O; the worker
// plumbing lives in internal/modules.
package gesture

import (
	"sync/atomic"
	"time"
)

// Sample is one captured touch position.
type Sample struct {
	X    int
	Y    int
	Time time.Time
}

// Action is a synthesized input produced by a recognized gesture.
type Action uint8

const (
	ActionNone Action = iota
	// ActionWake pulses the power key.
	ActionWake
	ActionVolumeUp
	ActionVolumeDown
	ActionTrackNext
	ActionTrackPrevious
)

func (a Action) String() string {
	switch a {
	case ActionWake:
		return "wake"
	case ActionVolumeUp:
		return "volume_up"
	case ActionVolumeDown:
		return "volume_down"
	case ActionTrackNext:
		return "track_next"
	case ActionTrackPrevious:
		return "track_previous"
	default:
		return "none"
	}
}

// IsTrack reports whether a is a media track action.
func (a Action) IsTrack() bool {
	return a == ActionTrackNext || a == ActionTrackPrevious
}

// Control is the action a swipe axis repeats while it is actuating.
type Control uint8

const (
	ControlNone Control = iota
	ControlUp
	ControlDown
	ControlNext
	ControlPrevious
)

// Action maps the control to the key action it pulses.
func (c Control) Action() Action {
	switch c {
	case ControlUp:
		return ActionVolumeUp
	case ControlDown:
		return ActionVolumeDown
	case ControlNext:
		return ActionTrackNext
	case ControlPrevious:
		return ActionTrackPrevious
	default:
		return ActionNone
	}
}

func (c Control) String() string {
	return c.Action().String()
}

// Display tracks whether the display is blanked. Only the display-power
// handler writes it; detectors read it on every sample.
type Display struct {
	suspended atomic.Bool
}

// Suspended reports whether the display is currently off.
func (d *Display) Suspended() bool {
	return d.suspended.Load()
}

// SetSuspended records a display power transition and reports whether the
// state changed.
func (d *Display) SetSuspended(off bool) bool {
	return d.suspended.Swap(off) != off
}
