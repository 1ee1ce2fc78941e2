// Package swipe implements the volume and track swipe module.
//
// Each axis has its own worker and queue. The contact state (whether a swipe
// is actuating, and which control it repeats) is shared by both axes, so a
// volume swipe blocks track detection until the finger lifts and vice versa.
package swipe

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/clock"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
)

const queueSize = 64

// Dispatcher emits the actions the module recognizes.
type Dispatcher interface {
	Fire(a gesture.Action) bool
	TouchOff() error
}

type sample struct {
	gen   uint64
	coord int
}

type axisWorker struct {
	axis    *gesture.SwipeAxis
	queue   chan sample
	lastGen uint64
}

// Module detects swipes while the display is off, repeating the fired key
// for as long as the contact stays down.
type Module struct {
	module.BaseModule

	cfg     *gesture.Config
	display *gesture.Display
	clock   clock.Clock
	disp    Dispatcher

	mu       sync.Mutex
	running  bool
	gen      uint64
	touching bool
	control  gesture.Control
	timer    clock.Timer
	workers  map[module.AxisID]*axisWorker
	inflight sync.WaitGroup
}

// New creates a new swipe module.
func New(cfg *gesture.Config, display *gesture.Display, clk clock.Clock, disp Dispatcher) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("swipe"),
		cfg:        cfg,
		display:    display,
		clock:      clk,
		disp:       disp,
	}
}

// Init starts one worker per allocated axis. X drives track control, Y
// drives volume.
func (m *Module) Init(ctx context.Context, res module.Resources) error {
	if err := m.BaseModule.Init(ctx, res); err != nil {
		return err
	}

	for _, w := range m.prepare(res) {
		m.Go(func(ctx context.Context) { m.run(ctx, w) })
	}
	return nil
}

func (m *Module) prepare(res module.Resources) map[module.AxisID]*axisWorker {
	workers := make(map[module.AxisID]*axisWorker)
	for _, id := range res.Axes {
		kind := gesture.AxisVertical
		if id == module.AxisX {
			kind = gesture.AxisHorizontal
		}
		workers[id] = &axisWorker{
			axis:  gesture.NewSwipeAxis(kind, m.cfg.Swipe),
			queue: make(chan sample, queueSize),
		}
	}

	m.mu.Lock()
	m.workers = workers
	m.running = true
	m.gen++
	m.mu.Unlock()
	return workers
}

// Stop cancels the repeat timer, waits for a pulse already in flight and
// halts the workers.
func (m *Module) Stop() error {
	m.mu.Lock()
	m.running = false
	m.resetLocked()
	m.workers = nil
	m.mu.Unlock()

	m.inflight.Wait()
	return m.BaseModule.Stop()
}

// Reset clears the shared contact state.
func (m *Module) Reset() {
	m.mu.Lock()
	m.resetLocked()
	m.mu.Unlock()
}

// Actuating reports whether a swipe is currently repeating, and which
// control.
func (m *Module) Actuating() (gesture.Control, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.control, m.touching
}

// HandleTouch resets on contact changes and queues positions for the axis
// workers.
func (m *Module) HandleTouch(ev module.TouchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	switch ev.Type {
	case module.TouchSlot, module.TouchLift:
		m.resetLocked()
	case module.TouchPosition:
		if !m.display.Suspended() {
			return
		}
		w, ok := m.workers[ev.Axis]
		if !ok {
			return
		}
		select {
		case w.queue <- sample{gen: m.gen, coord: ev.Value}:
		default:
			log.WithField("group", m.ID()).Debug("Swipe queue full, dropping sample")
		}
	}
}

// resetLocked ends the current contact. Samples queued before it become
// stale and are dropped by the workers. Must be called with m.mu held.
func (m *Module) resetLocked() {
	m.gen++
	m.touching = false
	m.control = gesture.ControlNone
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Module) run(ctx context.Context, w *axisWorker) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-w.queue:
			m.evaluate(w, s)
		}
	}
}

func (m *Module) evaluate(w *axisWorker, s sample) {
	snap := m.cfg.Snapshot()

	m.mu.Lock()
	if !m.running || s.gen != m.gen {
		m.mu.Unlock()
		return
	}
	if s.gen != w.lastGen {
		w.axis.Reset()
		w.lastGen = s.gen
	}
	if m.touching || !m.display.Suspended() || !snap.SwipeWanted(true) {
		m.mu.Unlock()
		return
	}

	outcome, c := w.axis.Evaluate(s.coord, m.clock.Now(), snap.AutoOffDelay)
	if outcome == gesture.SwipeFired {
		m.touching = true
		m.control = c
	}
	gen := m.gen
	m.mu.Unlock()

	switch outcome {
	case gesture.SwipeFired:
		log.WithFields(log.Fields{"group": m.ID(), "axis": w.axis.Axis(), "control": c}).Debug("Swipe recognized")
		m.pulse(gen)
	case gesture.SwipeAutoOff:
		m.autoOff()
	}
}

// pulse fires the current control once and schedules the next repeat. The
// next timer is armed before the key is pulsed, so repeats keep a fixed
// cadence regardless of the press duration.
func (m *Module) pulse(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.gen || !m.touching || !m.display.Suspended() {
		m.mu.Unlock()
		return
	}
	c := m.control
	m.timer = m.clock.AfterFunc(m.cfg.Swipe.Repeat(c), func() { m.pulse(gen) })
	m.inflight.Add(1)
	m.mu.Unlock()

	defer m.inflight.Done()
	m.disp.Fire(c.Action())
}

func (m *Module) autoOff() {
	if !m.cfg.ForceOff() {
		return
	}
	if err := m.disp.TouchOff(); err != nil {
		log.WithField("group", m.ID()).Errorf("Touch power-off failed: %v", err)
	}
}
