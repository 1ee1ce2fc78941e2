package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phinze/darkpad/internal/gesture"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (r *fakeReconciler) Reconcile() error {
	r.calls++
	return r.err
}

func newAttrs(t *testing.T) (*Attributes, *gesture.Config, *fakeReconciler) {
	t.Helper()
	cfg := gesture.NewConfig(gesture.DefaultTapTuning(), gesture.DefaultSwipeTuning())
	rec := &fakeReconciler{}
	return NewAttributes(cfg, rec, "1.2.3"), cfg, rec
}

func TestAttributeNames(t *testing.T) {
	a, _, _ := newAttrs(t)
	assert.Equal(t, []string{
		"auto_off_delay_ms",
		"forced_off",
		"mic_detected",
		"swipe_enabled",
		"swipe_temporary_enabled",
		"tap_enabled",
		"tap_temporary_enabled",
		"track_changed",
		"version",
	}, a.Names())
	assert.True(t, a.Writable("tap_enabled"))
	assert.False(t, a.Writable("forced_off"))
	assert.False(t, a.Writable("nope"))
}

func TestAttributeDefaults(t *testing.T) {
	a, _, _ := newAttrs(t)
	all := a.All()
	assert.Equal(t, "0", all["tap_enabled"])
	assert.Equal(t, "4000", all["auto_off_delay_ms"])
	assert.Equal(t, "1.2.3", all["version"])
	assert.Equal(t, "0", all["forced_off"])
}

func TestSetTapEnabled(t *testing.T) {
	a, cfg, rec := newAttrs(t)

	require.NoError(t, a.Set("tap_enabled", "3\n"))
	assert.Equal(t, 3, cfg.Snapshot().TapThreshold)
	assert.Equal(t, 1, rec.calls)

	for _, bad := range []string{"10", "a", "", "-1", "3\n\n"} {
		err := a.Set("tap_enabled", bad)
		assert.ErrorIs(t, err, ErrInvalidValue, "%q", bad)
	}
	assert.Equal(t, 3, cfg.Snapshot().TapThreshold, "rejected writes leave state alone")
	assert.Equal(t, 1, rec.calls, "rejected writes do not reconcile")
}

func TestSetFlags(t *testing.T) {
	a, cfg, _ := newAttrs(t)

	require.NoError(t, a.Set("swipe_enabled", "1"))
	require.NoError(t, a.Set("tap_temporary_enabled", "1"))
	require.NoError(t, a.Set("mic_detected", "1\n"))

	snap := cfg.Snapshot()
	assert.True(t, snap.SwipeEnabled)
	assert.True(t, snap.TapTemporary)
	assert.True(t, snap.MicDetected)

	assert.ErrorIs(t, a.Set("swipe_enabled", "2"), ErrInvalidValue)
	assert.ErrorIs(t, a.Set("mic_detected", "true"), ErrInvalidValue)
	assert.True(t, cfg.Snapshot().SwipeEnabled)
}

func TestSwipeTemporaryClearsTrackChanged(t *testing.T) {
	a, cfg, _ := newAttrs(t)
	cfg.MarkTrackChanged()

	v, err := a.Get("track_changed")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, a.Set("swipe_temporary_enabled", "1"))
	v, err = a.Get("track_changed")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestSetAutoOffDelay(t *testing.T) {
	a, cfg, _ := newAttrs(t)

	require.NoError(t, a.Set("auto_off_delay_ms", "10000"))
	assert.Equal(t, "10000", a.All()["auto_off_delay_ms"])

	assert.NoError(t, a.Set("auto_off_delay_ms", "500"), "out of range is ignored")
	assert.NoError(t, a.Set("auto_off_delay_ms", "60001"))
	// Wraps to 35000 ms if multiplied before the range check.
	assert.NoError(t, a.Set("auto_off_delay_ms", "288230376151746744"))
	assert.NoError(t, a.Set("auto_off_delay_ms", "-9223372036854775808"))
	assert.Equal(t, int64(10000), cfg.Snapshot().AutoOffDelay.Milliseconds())

	assert.ErrorIs(t, a.Set("auto_off_delay_ms", "soon"), ErrInvalidValue)
}

func TestReadOnlyAndUnknown(t *testing.T) {
	a, _, rec := newAttrs(t)

	for _, name := range []string{"forced_off", "track_changed", "version"} {
		assert.ErrorIs(t, a.Set(name, "1"), ErrReadOnly, name)
	}
	assert.ErrorIs(t, a.Set("brightness", "1"), ErrUnknownAttribute)
	_, err := a.Get("brightness")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	assert.Zero(t, rec.calls)
}

func TestSetReportsReconcileFailure(t *testing.T) {
	a, cfg, rec := newAttrs(t)
	boom := errors.New("subscribe tap: device gone")
	rec.err = boom

	err := a.Set("tap_enabled", "1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, cfg.Snapshot().TapThreshold, "the value is stored even if reconcile fails")
}
