package gesture

import (
	"errors"
	"sync"
	"time"
)

// Limits for operator-writable values.
const (
	MaxTapThreshold = 9
	MinAutoOffDelay = 1000 * time.Millisecond
	MaxAutoOffDelay = 60000 * time.Millisecond
)

// ErrInvalidValue is returned when a configuration write is rejected.
var ErrInvalidValue = errors.New("invalid value")

// TapTuning holds the fixed thresholds of the tap detector.
type TapTuning struct {
	Feather   int           // max px between taps on either axis
	TimeGap   time.Duration // max time between taps
	Vibration int           // haptic strength after the wake pulse
}

// SwipeTuning holds the fixed thresholds of the swipe detector.
type SwipeTuning struct {
	VolumeFeather int
	TrackFeather  int
	TimeGap       time.Duration
	VolumeRepeat  time.Duration
	TrackRepeat   time.Duration
	PressDuration time.Duration
	Vibration     int
}

// DefaultTapTuning returns the stock tap thresholds.
func DefaultTapTuning() TapTuning {
	return TapTuning{
		Feather:   200,
		TimeGap:   200 * time.Millisecond,
		Vibration: 20,
	}
}

// DefaultSwipeTuning returns the stock swipe thresholds.
func DefaultSwipeTuning() SwipeTuning {
	return SwipeTuning{
		VolumeFeather: 350,
		TrackFeather:  500,
		TimeGap:       250 * time.Millisecond,
		VolumeRepeat:  250 * time.Millisecond,
		TrackRepeat:   4000 * time.Millisecond,
		PressDuration: 100 * time.Millisecond,
		Vibration:     20,
	}
}

// Repeat returns the re-dispatch delay for a control.
func (t SwipeTuning) Repeat(c Control) time.Duration {
	if c == ControlNext || c == ControlPrevious {
		return t.TrackRepeat
	}
	return t.VolumeRepeat
}

// Snapshot is a consistent copy of the mutable configuration, captured once
// per evaluation step.
type Snapshot struct {
	TapThreshold   int
	TapTemporary   bool
	SwipeEnabled   bool
	SwipeTemporary bool
	ForcedOff      bool
	MicDetected    bool
	TrackChanged   bool
	AutoOffDelay   time.Duration
}

// TapThresholdInEffect returns the tap threshold detection should use. A
// temporary override evaluates as a plain double tap.
func (s Snapshot) TapThresholdInEffect() int {
	if s.TapTemporary {
		return 1
	}
	return s.TapThreshold
}

// TapWanted reports whether the tap group should be registered.
func (s Snapshot) TapWanted(displayOff bool) bool {
	return displayOff && (s.TapThreshold > 0 || s.TapTemporary)
}

// SwipeWanted reports whether the swipe group should be registered.
func (s Snapshot) SwipeWanted(displayOff bool) bool {
	if !displayOff || !s.SwipeEnabled {
		return false
	}
	if s.MicDetected || s.ForcedOff {
		return false
	}
	return s.TrackChanged || s.SwipeTemporary
}

// Config is the process-wide gesture configuration. The enable flags are
// guarded by a single mutex; tuning is fixed at construction.
type Config struct {
	Tap   TapTuning
	Swipe SwipeTuning

	mu    sync.Mutex
	state Snapshot
}

// NewConfig returns a configuration with detection switched off and the
// default auto-off delay.
func NewConfig(tap TapTuning, swipe SwipeTuning) *Config {
	return &Config{
		Tap:   tap,
		Swipe: swipe,
		state: Snapshot{AutoOffDelay: 4000 * time.Millisecond},
	}
}

// Snapshot returns a copy of the mutable state.
func (c *Config) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetTapThreshold sets the number of repeat taps needed to wake (0 disables).
func (c *Config) SetTapThreshold(n int) error {
	if n < 0 || n > MaxTapThreshold {
		return ErrInvalidValue
	}
	c.mu.Lock()
	c.state.TapThreshold = n
	c.mu.Unlock()
	return nil
}

// SetTapTemporary sets the session-scoped tap override.
func (c *Config) SetTapTemporary(on bool) {
	c.mu.Lock()
	c.state.TapTemporary = on
	c.mu.Unlock()
}

// SetSwipeEnabled sets the persistent swipe switch.
func (c *Config) SetSwipeEnabled(on bool) {
	c.mu.Lock()
	c.state.SwipeEnabled = on
	c.mu.Unlock()
}

// SetSwipeTemporary sets the session-scoped swipe override. Turning it on
// starts a new session, so the track-changed latch is cleared.
func (c *Config) SetSwipeTemporary(on bool) {
	c.mu.Lock()
	c.state.SwipeTemporary = on
	if on {
		c.state.TrackChanged = false
	}
	c.mu.Unlock()
}

// SetAutoOffDelay stores d if it is within range. Out-of-range values are
// ignored and reported as false.
func (c *Config) SetAutoOffDelay(d time.Duration) bool {
	if d < MinAutoOffDelay || d > MaxAutoOffDelay {
		return false
	}
	c.mu.Lock()
	c.state.AutoOffDelay = d
	c.mu.Unlock()
	return true
}

// SetMicDetected records the external microphone signal.
func (c *Config) SetMicDetected(on bool) {
	c.mu.Lock()
	c.state.MicDetected = on
	c.mu.Unlock()
}

// ForceOff latches the forced-off flag. It returns true only for the call
// that performed the transition.
func (c *Config) ForceOff() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.ForcedOff {
		return false
	}
	c.state.ForcedOff = true
	return true
}

// ClearForcedOff releases the forced-off latch.
func (c *Config) ClearForcedOff() {
	c.mu.Lock()
	c.state.ForcedOff = false
	c.mu.Unlock()
}

// MarkTrackChanged records that a track key was pulsed.
func (c *Config) MarkTrackChanged() {
	c.mu.Lock()
	c.state.TrackChanged = true
	c.mu.Unlock()
}
