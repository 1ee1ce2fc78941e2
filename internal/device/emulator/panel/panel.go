// Package panel models the emulated handset: a multitouch panel, a display
// that can be blanked and the feedback shown when darkpad acts on it.
package panel

import (
	"sync"
	"time"

	"github.com/phinze/darkpad/internal/device"
)

// Native panel resolution in touch coordinates.
const (
	Width  = 1080
	Height = 2340
)

// How long feedback stays visible.
const (
	flashDuration = 600 * time.Millisecond
	buzzDuration  = 150 * time.Millisecond
)

// Flash is the last action the panel received.
type Flash struct {
	Key   device.KeyCode
	Label string
}

// View is what the GUI draws for one frame.
type View struct {
	DisplayOff bool
	TouchOff   bool
	Touching   bool
	X, Y       int
	Flash      *Flash
	Buzzing    bool
}

// Panel turns pointer input into input_event sequences and tracks the
// state darkpad changes through its action sink.
type Panel struct {
	mu sync.Mutex

	displayOff bool
	touchOff   bool

	touching bool
	nextID   int32
	x, y     int

	flash      Flash
	flashUntil time.Time
	buzzUntil  time.Time
}

// New returns a panel with the display on.
func New() *Panel {
	return &Panel{}
}

// Press starts a contact. It returns nil while touch power is off.
func (p *Panel) Press(x, y int, t time.Time) []device.InputEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.touchOff || p.touching {
		return nil
	}
	x, y = clamp(x, Width), clamp(y, Height)
	p.touching = true
	p.x, p.y = x, y
	id := p.nextID
	p.nextID++

	return []device.InputEvent{
		abs(t, device.ABS_MT_SLOT, 0),
		abs(t, device.ABS_MT_TRACKING_ID, id),
		abs(t, device.ABS_MT_POSITION_X, int32(x)),
		abs(t, device.ABS_MT_POSITION_Y, int32(y)),
		syn(t),
	}
}

// Move reports the changed coordinates of the current contact.
func (p *Panel) Move(x, y int, t time.Time) []device.InputEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.touching {
		return nil
	}
	x, y = clamp(x, Width), clamp(y, Height)

	var evs []device.InputEvent
	if x != p.x {
		evs = append(evs, abs(t, device.ABS_MT_POSITION_X, int32(x)))
	}
	if y != p.y {
		evs = append(evs, abs(t, device.ABS_MT_POSITION_Y, int32(y)))
	}
	if len(evs) == 0 {
		return nil
	}
	p.x, p.y = x, y
	return append(evs, syn(t))
}

// Release lifts the current contact.
func (p *Panel) Release(t time.Time) []device.InputEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.touching {
		return nil
	}
	p.touching = false
	return []device.InputEvent{
		abs(t, device.ABS_MT_TRACKING_ID, -1),
		syn(t),
	}
}

// SetDisplayOff blanks or unblanks the display and reports whether it
// changed. Unblanking restores touch power.
func (p *Panel) SetDisplayOff(off bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !off {
		p.touchOff = false
	}
	if p.displayOff == off {
		return false
	}
	p.displayOff = off
	return true
}

// DisplayOff reports whether the display is blanked.
func (p *Panel) DisplayOff() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayOff
}

// Key records a synthesized key. Releasing KEY_POWER toggles the display,
// like the handset's power button; the return value reports that toggle and
// the new display state.
func (p *Panel) Key(code device.KeyCode, down bool, t time.Time) (toggled, displayOff bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if down {
		p.flash = Flash{Key: code, Label: label(code)}
		p.flashUntil = t.Add(flashDuration)
		return false, p.displayOff
	}
	if code != device.KEY_POWER {
		return false, p.displayOff
	}

	p.displayOff = !p.displayOff
	if !p.displayOff {
		p.touchOff = false
	}
	return true, p.displayOff
}

// PowerOffTouch cuts touch power. The contact in progress is dropped
// without a lift, as the controller stops reporting altogether.
func (p *Panel) PowerOffTouch(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.touchOff = true
	p.touching = false
	p.flash = Flash{Label: "touch off"}
	p.flashUntil = t.Add(flashDuration)
}

// Vibrate starts a haptic buzz.
func (p *Panel) Vibrate(t time.Time) {
	p.mu.Lock()
	p.buzzUntil = t.Add(buzzDuration)
	p.mu.Unlock()
}

// View returns the frame state at t.
func (p *Panel) View(t time.Time) View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		DisplayOff: p.displayOff,
		TouchOff:   p.touchOff,
		Touching:   p.touching,
		X:          p.x,
		Y:          p.y,
		Buzzing:    t.Before(p.buzzUntil),
	}
	if t.Before(p.flashUntil) {
		f := p.flash
		v.Flash = &f
	}
	return v
}

func label(code device.KeyCode) string {
	switch code {
	case device.KEY_POWER:
		return "wake"
	case device.KEY_VOLUMEUP:
		return "volume +"
	case device.KEY_VOLUMEDOWN:
		return "volume -"
	case device.KEY_NEXTSONG:
		return "next"
	case device.KEY_PREVIOUSSONG:
		return "previous"
	}
	return code.String()
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}

func abs(t time.Time, code uint16, value int32) device.InputEvent {
	return device.InputEvent{Time: t, Type: device.EV_ABS, Code: code, Value: value}
}

func syn(t time.Time) device.InputEvent {
	return device.InputEvent{Time: t, Type: device.EV_SYN, Code: device.SYN_REPORT}
}
