package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDispatchInRegistrationOrder(t *testing.T) {
	h := NewHub()

	var got []string
	_, err := h.Subscribe("a", func(ev InputEvent) { got = append(got, "a") })
	require.NoError(t, err)
	_, err = h.Subscribe("b", func(ev InputEvent) { got = append(got, "b") })
	require.NoError(t, err)

	h.Dispatch(InputEvent{Time: time.Now(), Type: EV_ABS, Code: ABS_MT_POSITION_X, Value: 10})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()

	calls := 0
	sub, err := h.Subscribe("a", func(ev InputEvent) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, h.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, h.Len())

	h.Dispatch(InputEvent{})
	assert.Equal(t, 0, calls)
}

func TestHubClosedRejectsSubscribers(t *testing.T) {
	h := NewHub()
	_, err := h.Subscribe("a", func(ev InputEvent) {})
	require.NoError(t, err)

	h.Close()
	assert.Equal(t, 0, h.Len())

	_, err = h.Subscribe("b", func(ev InputEvent) {})
	assert.ErrorIs(t, err, ErrClosed)

	h.Reopen()
	_, err = h.Subscribe("b", func(ev InputEvent) {})
	assert.NoError(t, err)
}

func TestKeyCodeString(t *testing.T) {
	assert.Equal(t, "KEY_POWER", KEY_POWER.String())
	assert.Equal(t, "KEY_NEXTSONG", KEY_NEXTSONG.String())
	assert.Equal(t, "KEY_UNKNOWN", KeyCode(1).String())
}
