package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig() *Config {
	return NewConfig(DefaultTapTuning(), DefaultSwipeTuning())
}

func TestConfigDefaults(t *testing.T) {
	c := newConfig()
	s := c.Snapshot()

	assert.Equal(t, 0, s.TapThreshold)
	assert.False(t, s.SwipeEnabled)
	assert.Equal(t, 4000*time.Millisecond, s.AutoOffDelay)
}

func TestConfigTapThresholdRange(t *testing.T) {
	c := newConfig()

	require.NoError(t, c.SetTapThreshold(9))
	assert.Equal(t, 9, c.Snapshot().TapThreshold)

	assert.ErrorIs(t, c.SetTapThreshold(10), ErrInvalidValue)
	assert.ErrorIs(t, c.SetTapThreshold(-1), ErrInvalidValue)
	assert.Equal(t, 9, c.Snapshot().TapThreshold)
}

func TestConfigAutoOffDelayRange(t *testing.T) {
	c := newConfig()

	assert.False(t, c.SetAutoOffDelay(500*time.Millisecond))
	assert.Equal(t, 4000*time.Millisecond, c.Snapshot().AutoOffDelay)

	assert.True(t, c.SetAutoOffDelay(35000*time.Millisecond))
	assert.Equal(t, 35000*time.Millisecond, c.Snapshot().AutoOffDelay)

	assert.False(t, c.SetAutoOffDelay(60001*time.Millisecond))
	assert.True(t, c.SetAutoOffDelay(MinAutoOffDelay))
	assert.True(t, c.SetAutoOffDelay(MaxAutoOffDelay))
}

func TestConfigSwipeTemporaryClearsTrackChanged(t *testing.T) {
	c := newConfig()

	c.MarkTrackChanged()
	assert.True(t, c.Snapshot().TrackChanged)

	c.SetSwipeTemporary(false)
	assert.True(t, c.Snapshot().TrackChanged)

	c.SetSwipeTemporary(true)
	assert.False(t, c.Snapshot().TrackChanged)
}

func TestConfigForceOffTransitionsOnce(t *testing.T) {
	c := newConfig()

	assert.True(t, c.ForceOff())
	assert.False(t, c.ForceOff())
	assert.True(t, c.Snapshot().ForcedOff)

	c.ClearForcedOff()
	assert.True(t, c.ForceOff())
}

func TestSnapshotTapWanted(t *testing.T) {
	tests := []struct {
		name       string
		snap       Snapshot
		displayOff bool
		want       bool
	}{
		{"display on", Snapshot{TapThreshold: 1}, false, false},
		{"disabled", Snapshot{}, true, false},
		{"threshold", Snapshot{TapThreshold: 2}, true, true},
		{"temporary", Snapshot{TapTemporary: true}, true, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.snap.TapWanted(tt.displayOff), tt.name)
	}
}

func TestSnapshotTapThresholdInEffect(t *testing.T) {
	assert.Equal(t, 5, Snapshot{TapThreshold: 5}.TapThresholdInEffect())
	assert.Equal(t, 1, Snapshot{TapThreshold: 5, TapTemporary: true}.TapThresholdInEffect())
	assert.Equal(t, 1, Snapshot{TapTemporary: true}.TapThresholdInEffect())
}

func TestSnapshotSwipeWanted(t *testing.T) {
	on := Snapshot{SwipeEnabled: true, SwipeTemporary: true}

	tests := []struct {
		name       string
		snap       Snapshot
		displayOff bool
		want       bool
	}{
		{"all conditions", on, true, true},
		{"display on", on, false, false},
		{"not enabled", Snapshot{SwipeTemporary: true}, true, false},
		{"no session", Snapshot{SwipeEnabled: true}, true, false},
		{"track changed session", Snapshot{SwipeEnabled: true, TrackChanged: true}, true, true},
		{"mic", Snapshot{SwipeEnabled: true, SwipeTemporary: true, MicDetected: true}, true, false},
		{"forced off", Snapshot{SwipeEnabled: true, SwipeTemporary: true, ForcedOff: true}, true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.snap.SwipeWanted(tt.displayOff), tt.name)
	}
}

func TestDisplaySetSuspendedReportsChange(t *testing.T) {
	var d Display

	assert.False(t, d.Suspended())
	assert.True(t, d.SetSuspended(true))
	assert.False(t, d.SetSuspended(true))
	assert.True(t, d.Suspended())
	assert.True(t, d.SetSuspended(false))
}

func TestControlActions(t *testing.T) {
	assert.Equal(t, ActionVolumeUp, ControlUp.Action())
	assert.Equal(t, ActionVolumeDown, ControlDown.Action())
	assert.Equal(t, ActionTrackNext, ControlNext.Action())
	assert.Equal(t, ActionTrackPrevious, ControlPrevious.Action())
	assert.Equal(t, ActionNone, ControlNone.Action())

	assert.True(t, ActionTrackNext.IsTrack())
	assert.False(t, ActionVolumeUp.IsTrack())

	tuning := DefaultSwipeTuning()
	assert.Equal(t, 4000*time.Millisecond, tuning.Repeat(ControlNext))
	assert.Equal(t, 250*time.Millisecond, tuning.Repeat(ControlUp))
}
