// Package coordinator manages module lifecycle and routes touch events to
// modules.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
)

// Predicate decides whether a group should be registered.
type Predicate func(snap gesture.Snapshot, displayOff bool) bool

// TapWanted is the registration predicate of the tap group.
func TapWanted(snap gesture.Snapshot, displayOff bool) bool {
	return snap.TapWanted(displayOff)
}

// SwipeWanted is the registration predicate of the swipe group.
func SwipeWanted(snap gesture.Snapshot, displayOff bool) bool {
	return snap.SwipeWanted(displayOff)
}

// GroupStatus describes one registered group.
type GroupStatus struct {
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	Session string `json:"session,omitempty"`
}

// group is a module plus its registration state. mu is the registration
// lock; it is always taken before the config lock and never by detectors.
type group struct {
	module module.Module
	res    module.Resources
	wanted Predicate

	mu      sync.Mutex
	active  bool
	sub     device.Subscription
	session string
}

// Coordinator starts and stops the gesture modules as display power and
// configuration change. Every signal funnels into Reconcile, which compares
// each group's predicate against its registration state.
type Coordinator struct {
	device  device.Device
	cfg     *gesture.Config
	display *gesture.Display
	bus     EventBus.Bus

	mu     sync.RWMutex
	groups []*group
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	onForcedOff func(module.ForcedOffEvent)
}

// New creates a new Coordinator for the given device.
func New(dev device.Device, cfg *gesture.Config, display *gesture.Display, bus EventBus.Bus) *Coordinator {
	c := &Coordinator{
		device:  dev,
		cfg:     cfg,
		display: display,
		bus:     bus,
		ctx:     context.Background(),
	}
	c.onForcedOff = func(module.ForcedOffEvent) {
		if err := c.Reconcile(); err != nil {
			log.Errorf("Reconcile after touch power-off: %v", err)
		}
	}
	return c
}

// RegisterModule registers a module with its allocated resources and the
// predicate that decides when it runs. Must be called before Start.
func (c *Coordinator) RegisterModule(m module.Module, res module.Resources, wanted Predicate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, g := range c.groups {
		if g.module.ID() == m.ID() {
			return fmt.Errorf("module %s already registered", m.ID())
		}
	}
	c.groups = append(c.groups, &group{module: m, res: res, wanted: wanted})
	return nil
}

// Start reconciles once and then runs the device listener until ctx is
// cancelled or the source fails. Touch power-off acknowledgments from the
// dispatcher arrive asynchronously, since they are published from inside a
// module worker that Reconcile may be stopping.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.closed = false
	runCtx := c.ctx
	c.mu.Unlock()

	if err := c.bus.SubscribeAsync(module.TopicForcedOff, c.onForcedOff, false); err != nil {
		return fmt.Errorf("subscribe %s: %w", module.TopicForcedOff, err)
	}
	defer func() {
		_ = c.bus.Unsubscribe(module.TopicForcedOff, c.onForcedOff)
	}()

	if err := c.Reconcile(); err != nil {
		log.Warnf("Initial reconcile: %v", err)
	}

	log.WithField("device", c.device.GetModelName()).Info("Listening for touch events")
	err := c.device.Listen(runCtx)
	if runCtx.Err() != nil {
		return nil
	}
	return err
}

// Stop gracefully shuts down all modules. Later signals no longer start
// groups.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.bus.WaitAsync()
	for _, g := range c.snapshotGroups() {
		g.mu.Lock()
		c.stopLocked(g)
		g.mu.Unlock()
	}
	return nil
}

// Reconcile brings every group in line with its predicate. Errors from groups
// that failed to start are joined; the other groups are still reconciled.
func (c *Coordinator) Reconcile() error {
	var errs []error
	for _, g := range c.snapshotGroups() {
		if err := c.reconcile(g); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetDisplayPower records a display transition and reconciles. Unblanking
// restores touch power, so the forced-off latch is released with it.
func (c *Coordinator) SetDisplayPower(off bool) error {
	changed := c.display.SetSuspended(off)
	if !off {
		c.cfg.ClearForcedOff()
	}
	if changed {
		log.WithField("off", off).Info("Display power changed")
		c.bus.Publish(module.TopicDisplayPower, module.DisplayEvent{Off: off, Time: time.Now()})
	}
	return c.Reconcile()
}

// Status returns the registration state of every group.
func (c *Coordinator) Status() []GroupStatus {
	groups := c.snapshotGroups()
	out := make([]GroupStatus, 0, len(groups))
	for _, g := range groups {
		g.mu.Lock()
		out = append(out, GroupStatus{Name: g.module.ID(), Active: g.active, Session: g.session})
		g.mu.Unlock()
	}
	return out
}

// Active reports whether the named group is registered.
func (c *Coordinator) Active(name string) bool {
	for _, s := range c.Status() {
		if s.Name == name {
			return s.Active
		}
	}
	return false
}

// Device returns the underlying device.
func (c *Coordinator) Device() device.Device {
	return c.device
}

func (c *Coordinator) reconcile(g *group) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c.mu.RLock()
	closed, ctx := c.closed, c.ctx
	c.mu.RUnlock()

	if !closed && g.wanted(c.cfg.Snapshot(), c.display.Suspended()) {
		return c.startLocked(ctx, g)
	}
	c.stopLocked(g)
	return nil
}

// startLocked registers g. Must be called with g.mu held.
func (c *Coordinator) startLocked(ctx context.Context, g *group) error {
	if g.active {
		return nil
	}
	id := g.module.ID()

	g.module.Reset()
	if err := g.module.Init(ctx, g.res); err != nil {
		return fmt.Errorf("init %s: %w", id, err)
	}

	sub, err := c.device.Subscribe(id, c.router(g))
	if err != nil {
		if stopErr := g.module.Stop(); stopErr != nil {
			log.WithField("group", id).Warnf("Stop after failed subscribe: %v", stopErr)
		}
		return fmt.Errorf("subscribe %s: %w", id, err)
	}

	g.sub = sub
	g.active = true
	g.session = uuid.NewString()

	log.WithFields(log.Fields{"group": id, "session": g.session}).Info("Gesture group started")
	c.publishState(g)
	return nil
}

// stopLocked unregisters g. Must be called with g.mu held.
func (c *Coordinator) stopLocked(g *group) {
	if !g.active {
		return
	}
	id := g.module.ID()

	g.sub.Unsubscribe()
	if err := g.module.Stop(); err != nil {
		log.WithField("group", id).Warnf("Stop failed: %v", err)
	}

	log.WithFields(log.Fields{"group": id, "session": g.session}).Info("Gesture group stopped")
	g.sub = nil
	g.active = false
	g.session = ""
	c.publishState(g)
}

func (c *Coordinator) router(g *group) device.InputHandler {
	return func(ev device.InputEvent) {
		tev, ok := module.TouchEventFromInput(ev)
		if !ok || !g.res.Wants(tev) {
			return
		}
		g.module.HandleTouch(tev)
	}
}

func (c *Coordinator) publishState(g *group) {
	c.bus.Publish(module.TopicGroupState, module.GroupStateEvent{
		Group:   g.module.ID(),
		Active:  g.active,
		Session: g.session,
		Time:    time.Now(),
	})
}

func (c *Coordinator) snapshotGroups() []*group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*group(nil), c.groups...)
}
