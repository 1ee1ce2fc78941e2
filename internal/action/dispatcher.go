// Package action turns recognized gestures into synthesized key pulses.
package action

import (
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
)

// touchOffVibration scales the normal haptic strength for touch power-off.
const touchOffVibration = 4

// Sink is the subset of a device the dispatcher drives.
type Sink interface {
	KeyDown(code device.KeyCode) error
	KeyUp(code device.KeyCode) error
	TouchOff(delay time.Duration) error
	Vibrate(strength int) error
}

// Dispatcher serializes key pulses. A pulse requested while another one is
// in progress is dropped, never queued.
type Dispatcher struct {
	sink Sink
	cfg  *gesture.Config
	bus  EventBus.Bus

	mu    sync.Mutex
	sleep func(time.Duration)
	now   func() time.Time
}

// New returns a dispatcher emitting through sink.
func New(sink Sink, cfg *gesture.Config, bus EventBus.Bus) *Dispatcher {
	return &Dispatcher{
		sink:  sink,
		cfg:   cfg,
		bus:   bus,
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// SetSleep replaces the function used to hold a key between down and up.
func (d *Dispatcher) SetSleep(fn func(time.Duration)) {
	d.sleep = fn
}

// Fire pulses the key for a. It reports whether the pulse was emitted.
func (d *Dispatcher) Fire(a gesture.Action) bool {
	code, hold, strength, ok := d.keyFor(a)
	if !ok {
		return false
	}

	if !d.mu.TryLock() {
		log.WithField("action", a).Debug("Dispatcher busy, dropping pulse")
		return false
	}
	defer d.mu.Unlock()

	if a.IsTrack() {
		d.cfg.MarkTrackChanged()
	}

	if err := d.sink.KeyDown(code); err != nil {
		log.WithField("action", a).Errorf("Key down failed: %v", err)
		return false
	}
	if hold > 0 {
		d.sleep(hold)
	}
	if err := d.sink.KeyUp(code); err != nil {
		log.WithField("action", a).Errorf("Key up failed: %v", err)
		return false
	}

	if err := d.sink.Vibrate(strength); err != nil {
		log.WithField("action", a).Debugf("Haptic feedback failed: %v", err)
	}

	log.WithField("action", a).Info("Gesture fired")
	d.publish(module.TopicGestureFired, module.GestureEvent{Action: a.String(), Time: d.now()})
	return true
}

// TouchOff issues the one-shot touch power-off request and acknowledges it on
// the bus. The caller is responsible for latching the forced-off flag first.
func (d *Dispatcher) TouchOff() error {
	if err := d.sink.TouchOff(0); err != nil {
		return err
	}
	if err := d.sink.Vibrate(d.cfg.Swipe.Vibration * touchOffVibration); err != nil {
		log.Debugf("Haptic feedback failed: %v", err)
	}

	log.Info("Touch powered off")
	d.publish(module.TopicForcedOff, module.ForcedOffEvent{Time: d.now()})
	return nil
}

func (d *Dispatcher) publish(topic string, payload interface{}) {
	if d.bus != nil {
		d.bus.Publish(topic, payload)
	}
}

func (d *Dispatcher) keyFor(a gesture.Action) (device.KeyCode, time.Duration, int, bool) {
	press := d.cfg.Swipe.PressDuration
	swipe := d.cfg.Swipe.Vibration

	switch a {
	case gesture.ActionWake:
		return device.KEY_POWER, 0, d.cfg.Tap.Vibration, true
	case gesture.ActionVolumeUp:
		return device.KEY_VOLUMEUP, press, swipe, true
	case gesture.ActionVolumeDown:
		return device.KEY_VOLUMEDOWN, press, swipe, true
	case gesture.ActionTrackNext:
		return device.KEY_NEXTSONG, press, swipe, true
	case gesture.ActionTrackPrevious:
		return device.KEY_PREVIOUSSONG, press, swipe, true
	}
	return 0, 0, 0, false
}
