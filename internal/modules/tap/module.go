// Package tap implements the tap-to-wake gesture module.
package tap

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/clock"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
)

// queueSize bounds the sample backlog; events past it are dropped.
const queueSize = 64

// Firer dispatches a recognized gesture.
type Firer interface {
	Fire(a gesture.Action) bool
}

// Module counts taps while the display is off and pulses the power key once
// the configured count is reached.
type Module struct {
	module.BaseModule

	cfg     *gesture.Config
	display *gesture.Display
	clock   clock.Clock
	fire    Firer

	mu      sync.Mutex
	running bool
	queue   chan module.TouchEvent

	// Owned by the worker goroutine. x and y keep the last reported
	// coordinates across contacts, since evdev suppresses unchanged values.
	detector *gesture.TapDetector
	x, y     int
}

// New creates a new tap module.
func New(cfg *gesture.Config, display *gesture.Display, clk clock.Clock, fire Firer) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("tap"),
		cfg:        cfg,
		display:    display,
		clock:      clk,
		fire:       fire,
		detector:   gesture.NewTapDetector(cfg.Tap),
	}
}

// Init starts the worker.
func (m *Module) Init(ctx context.Context, res module.Resources) error {
	if err := m.BaseModule.Init(ctx, res); err != nil {
		return err
	}

	queue := make(chan module.TouchEvent, queueSize)
	m.mu.Lock()
	m.queue = queue
	m.running = true
	m.mu.Unlock()

	m.Go(func(ctx context.Context) { m.run(ctx, queue) })
	return nil
}

// Stop halts the worker. Events still queued are discarded.
func (m *Module) Stop() error {
	m.mu.Lock()
	m.running = false
	m.queue = nil
	m.mu.Unlock()
	return m.BaseModule.Stop()
}

// Reset clears the tap count. It must not race the worker; the coordinator
// calls it before Init.
func (m *Module) Reset() {
	m.detector.Reset()
	m.detector.Lift()
}

// State returns the detector state. Only meaningful while stopped or from
// tests that have drained the worker.
func (m *Module) State() gesture.TapState {
	return m.detector.State()
}

// HandleTouch queues ev for the worker, dropping it if the display is on or
// the queue is full.
func (m *Module) HandleTouch(ev module.TouchEvent) {
	if ev.Type == module.TouchPosition && !m.display.Suspended() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	select {
	case m.queue <- ev:
	default:
		log.WithField("group", m.ID()).Debug("Tap queue full, dropping event")
	}
}

func (m *Module) run(ctx context.Context, queue <-chan module.TouchEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			m.handle(ev)
		}
	}
}

func (m *Module) handle(ev module.TouchEvent) {
	switch ev.Type {
	case module.TouchSlot:
		m.detector.Reset()
	case module.TouchLift:
		m.detector.Lift()
	case module.TouchPosition:
		// The first position of a contact is the tap; the other axis keeps
		// its last known value.
		if ev.Axis == module.AxisX {
			m.x = ev.Value
		} else {
			m.y = ev.Value
		}
		m.evaluate(m.x, m.y)
	}
}

func (m *Module) evaluate(x, y int) {
	if !m.display.Suspended() {
		return
	}
	snap := m.cfg.Snapshot()
	if !snap.TapWanted(true) {
		return
	}

	s := gesture.Sample{X: x, Y: y, Time: m.clock.Now()}
	if !m.detector.Touch(s, snap.TapThresholdInEffect()) {
		return
	}

	log.WithFields(log.Fields{"group": m.ID(), "threshold": snap.TapThresholdInEffect()}).Debug("Tap sequence complete")
	m.fire.Fire(gesture.ActionWake)
}
