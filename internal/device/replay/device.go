package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/device"
)

// Emitted is one action the replay device was asked to perform.
type Emitted struct {
	Kind  string // "down", "up", "touch_off" or "vibrate"
	Key   device.KeyCode
	Value int
}

// Device replays a recorded event stream and logs the actions it receives
// instead of emitting them.
type Device struct {
	*device.Hub

	events []device.InputEvent
	speed  float64
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	open    bool
	name    string
	emitted []Emitted
}

// Option configures a replay Device.
type Option func(*Device)

// WithSpeed scales playback; 2 plays twice as fast, 0 plays without delays.
func WithSpeed(speed float64) Option {
	return func(d *Device) { d.speed = speed }
}

// New returns a device replaying events.
func New(name string, events []device.InputEvent, opts ...Option) *Device {
	d := &Device{
		Hub:    device.NewHub(),
		events: events,
		speed:  1,
		sleep:  sleepContext,
		name:   name,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load reads a capture file and returns a device replaying it.
func Load(path string, opts ...Option) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()

	events, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return New(path, events, opts...), nil
}

// Open marks the device open.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return fmt.Errorf("replay: device is already open")
	}
	d.open = true
	d.Hub.Reopen()
	return nil
}

// Close marks the device closed and drops subscribers.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return device.ErrClosed
	}
	d.open = false
	d.Hub.Close()
	return nil
}

// IsOpen returns whether the device is open.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// GetModelName returns the capture name.
func (d *Device) GetModelName() string {
	return "replay: " + d.name
}

// Listen plays the capture once, preserving the recorded gaps between
// events, and returns when it is exhausted.
func (d *Device) Listen(ctx context.Context) error {
	if !d.IsOpen() {
		return device.ErrClosed
	}

	var prev time.Time
	for i, ev := range d.events {
		if i > 0 && d.speed > 0 {
			gap := time.Duration(float64(ev.Time.Sub(prev)) / d.speed)
			if gap > 0 {
				if err := d.sleep(ctx, gap); err != nil {
					return nil
				}
			}
		}
		prev = ev.Time

		// Events are restamped so the detectors see live time.
		ev.Time = time.Now()
		d.Hub.Dispatch(ev)
	}
	log.WithField("events", len(d.events)).Info("Replay finished")
	return nil
}

// KeyDown records a key press.
func (d *Device) KeyDown(code device.KeyCode) error {
	return d.emit(Emitted{Kind: "down", Key: code})
}

// KeyUp records a key release.
func (d *Device) KeyUp(code device.KeyCode) error {
	return d.emit(Emitted{Kind: "up", Key: code})
}

// TouchOff records a touch power-off request.
func (d *Device) TouchOff(delay time.Duration) error {
	return d.emit(Emitted{Kind: "touch_off", Value: int(delay / time.Millisecond)})
}

// Vibrate records a haptic pulse.
func (d *Device) Vibrate(strength int) error {
	return d.emit(Emitted{Kind: "vibrate", Value: strength})
}

// Emitted returns a copy of every action received so far.
func (d *Device) Emitted() []Emitted {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Emitted, len(d.emitted))
	copy(out, d.emitted)
	return out
}

func (d *Device) emit(e Emitted) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return device.ErrClosed
	}
	d.emitted = append(d.emitted, e)
	log.WithFields(log.Fields{"kind": e.Kind, "key": e.Key, "value": e.Value}).Info("Replay action")
	return nil
}

// Recorder writes every event it receives to w. Use Handle as an
// InputHandler.
type Recorder struct {
	mu    sync.Mutex
	w     io.Writer
	count int
	err   error
}

// NewRecorder returns a recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Handle encodes ev. After the first write error further events are
// discarded; see Err.
func (r *Recorder) Handle(ev device.InputEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := Encode(r.w, ev); err != nil {
		r.err = err
		return
	}
	r.count++
}

// Count returns the number of events written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
