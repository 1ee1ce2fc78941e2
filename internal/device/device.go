// Package device defines the abstraction layer for the touch panel and the
// key sink it drives.
package device

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when a closed device is asked to deliver or emit
// events.
var ErrClosed = errors.New("device: not open")

// Device is the interface that abstracts the touch hardware.
// The evdev/uinput adapter, the replay source and the emulator implement it.
type Device interface {
	// Lifecycle
	Open() error
	Close() error
	IsOpen() bool

	// Device info
	GetModelName() string

	// Touch source. Handlers run on the device's read goroutine and must not
	// block.
	Subscribe(name string, fn InputHandler) (Subscription, error)

	// Event loop, returns when ctx is done or the source fails.
	Listen(ctx context.Context) error

	// Action sink
	KeyDown(code KeyCode) error
	KeyUp(code KeyCode) error
	TouchOff(delay time.Duration) error
	Vibrate(strength int) error
}

// InputEvent mirrors a kernel input_event record.
type InputEvent struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// InputHandler receives raw input events.
type InputHandler func(ev InputEvent)

// Subscription is a handle returned by Subscribe.
type Subscription interface {
	Unsubscribe()
}

// KeyCode identifies a synthesized key.
type KeyCode uint16

// Key codes from linux/input-event-codes.h.
const (
	KEY_VOLUMEDOWN   KeyCode = 114
	KEY_VOLUMEUP     KeyCode = 115
	KEY_POWER        KeyCode = 116
	KEY_NEXTSONG     KeyCode = 163
	KEY_PREVIOUSSONG KeyCode = 165
)

func (k KeyCode) String() string {
	switch k {
	case KEY_VOLUMEDOWN:
		return "KEY_VOLUMEDOWN"
	case KEY_VOLUMEUP:
		return "KEY_VOLUMEUP"
	case KEY_POWER:
		return "KEY_POWER"
	case KEY_NEXTSONG:
		return "KEY_NEXTSONG"
	case KEY_PREVIOUSSONG:
		return "KEY_PREVIOUSSONG"
	default:
		return "KEY_UNKNOWN"
	}
}

// Event types and codes consumed from the touch source.
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_ABS = 0x03

	SYN_REPORT = 0x00

	ABS_MT_SLOT        = 0x2f
	ABS_MT_POSITION_X  = 0x35
	ABS_MT_POSITION_Y  = 0x36
	ABS_MT_TRACKING_ID = 0x39
)
