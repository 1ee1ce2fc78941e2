//go:build linux

package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bendahl/uinput"
	evdev "github.com/gvalkov/golang-evdev"
	log "github.com/sirupsen/logrus"
)

// HardwareDevice reads the touch panel through evdev and emits keys through a
// uinput virtual keyboard.
type HardwareDevice struct {
	*Hub

	cfg HardwareConfig

	mu   sync.Mutex
	dev  *evdev.InputDevice
	kbd  uinput.Keyboard
	open bool
}

// NewHardware creates a new hardware device wrapper.
func NewHardware(cfg HardwareConfig) *HardwareDevice {
	return &HardwareDevice{Hub: NewHub(), cfg: cfg}
}

// FindTouchDevice returns the event node of the first input device whose name
// contains keyword (case-insensitive).
func FindTouchDevice(keyword string) (string, error) {
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return "", fmt.Errorf("listing input devices: %w", err)
	}
	for _, dev := range devices {
		if strings.Contains(strings.ToLower(dev.Name), strings.ToLower(keyword)) {
			return dev.Fn, nil
		}
	}
	return "", fmt.Errorf("device with keyword %q not found", keyword)
}

// Open opens the touch device and creates the virtual keyboard.
func (h *HardwareDevice) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open {
		return fmt.Errorf("hardware: device is already open")
	}

	path := h.cfg.Path
	if path == "" {
		p, err := FindTouchDevice(h.cfg.NameKeyword)
		if err != nil {
			return err
		}
		path = p
	}

	dev, err := evdev.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if h.cfg.Grab {
		if err := dev.Grab(); err != nil {
			dev.File.Close()
			return fmt.Errorf("grabbing %s: %w", path, err)
		}
	}

	kbd, err := uinput.CreateKeyboard(h.cfg.UinputPath, []byte("darkpad"))
	if err != nil {
		if h.cfg.Grab {
			dev.Release()
		}
		dev.File.Close()
		return fmt.Errorf("creating virtual keyboard: %w", err)
	}

	h.dev = dev
	h.kbd = kbd
	h.open = true
	h.Hub.Reopen()

	log.WithFields(log.Fields{"path": path, "name": dev.Name}).Info("Touch device opened")
	return nil
}

// Close releases the touch device and destroys the virtual keyboard.
func (h *HardwareDevice) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return ErrClosed
	}
	h.open = false
	h.Hub.Close()

	var errs []error
	if err := h.kbd.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing virtual keyboard: %w", err))
	}
	if h.cfg.Grab {
		h.dev.Release()
	}
	if err := h.dev.File.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		errs = append(errs, fmt.Errorf("closing touch device: %w", err))
	}
	return errors.Join(errs...)
}

// IsOpen returns whether the device is open.
func (h *HardwareDevice) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

// GetModelName returns the evdev device name.
func (h *HardwareDevice) GetModelName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dev == nil {
		return "evdev"
	}
	return h.dev.Name
}

// Listen reads events until ctx is done or the device fails.
func (h *HardwareDevice) Listen(ctx context.Context) error {
	h.mu.Lock()
	if !h.open {
		h.mu.Unlock()
		return ErrClosed
	}
	dev := h.dev
	h.mu.Unlock()

	// A blocked Read only returns once the file is closed.
	stop := context.AfterFunc(ctx, func() {
		dev.File.Close()
	})
	defer stop()

	for {
		events, err := dev.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading touch events: %w", err)
		}
		for _, ev := range events {
			h.Hub.Dispatch(InputEvent{
				Time:  time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*int64(time.Microsecond)),
				Type:  ev.Type,
				Code:  ev.Code,
				Value: ev.Value,
			})
		}
	}
}

// KeyDown presses code on the virtual keyboard.
func (h *HardwareDevice) KeyDown(code KeyCode) error {
	kbd, err := h.keyboard()
	if err != nil {
		return err
	}
	return kbd.KeyDown(uinputKey(code))
}

// KeyUp releases code on the virtual keyboard.
func (h *HardwareDevice) KeyUp(code KeyCode) error {
	kbd, err := h.keyboard()
	if err != nil {
		return err
	}
	return kbd.KeyUp(uinputKey(code))
}

// TouchOff asks the panel driver to power touch down after delay.
func (h *HardwareDevice) TouchOff(delay time.Duration) error {
	return touchOff(h.cfg.TouchOffPath, delay)
}

// Vibrate pulses the haptic motor.
func (h *HardwareDevice) Vibrate(strength int) error {
	return vibrate(h.cfg.HapticPath, strength)
}

func (h *HardwareDevice) keyboard() (uinput.Keyboard, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil, ErrClosed
	}
	return h.kbd, nil
}

func uinputKey(code KeyCode) int {
	switch code {
	case KEY_POWER:
		return uinput.KeyPower
	case KEY_VOLUMEUP:
		return uinput.KeyVolumeup
	case KEY_VOLUMEDOWN:
		return uinput.KeyVolumedown
	case KEY_NEXTSONG:
		return uinput.KeyNextsong
	case KEY_PREVIOUSSONG:
		return uinput.KeyPrevioussong
	default:
		return int(code)
	}
}
