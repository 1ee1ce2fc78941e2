//go:build !linux

package device

import (
	"context"
	"errors"
	"time"
)

var errUnsupported = errors.New("hardware: evdev touch input requires linux")

// HardwareDevice is unavailable off linux; use the emulator or a replay file.
type HardwareDevice struct {
	*Hub
	cfg HardwareConfig
}

// NewHardware returns a device whose Open always fails.
func NewHardware(cfg HardwareConfig) *HardwareDevice {
	return &HardwareDevice{Hub: NewHub(), cfg: cfg}
}

// FindTouchDevice is not supported on this platform.
func FindTouchDevice(keyword string) (string, error) {
	return "", errUnsupported
}

func (h *HardwareDevice) Open() error { return errUnsupported }

func (h *HardwareDevice) Close() error { return ErrClosed }

func (h *HardwareDevice) IsOpen() bool { return false }

func (h *HardwareDevice) GetModelName() string { return "evdev (unsupported)" }

func (h *HardwareDevice) Listen(ctx context.Context) error { return errUnsupported }

func (h *HardwareDevice) KeyDown(code KeyCode) error { return errUnsupported }

func (h *HardwareDevice) KeyUp(code KeyCode) error { return errUnsupported }

func (h *HardwareDevice) TouchOff(delay time.Duration) error { return errUnsupported }

func (h *HardwareDevice) Vibrate(strength int) error { return errUnsupported }
