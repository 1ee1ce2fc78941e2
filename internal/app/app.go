// Package app assembles the daemon around a touch device: the gesture
// modules, the coordinator, the control server and the display and media
// watchers.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/action"
	"github.com/phinze/darkpad/internal/clock"
	"github.com/phinze/darkpad/internal/config"
	"github.com/phinze/darkpad/internal/control"
	"github.com/phinze/darkpad/internal/coordinator"
	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/module"
	"github.com/phinze/darkpad/internal/modules/swipe"
	"github.com/phinze/darkpad/internal/modules/tap"
	"github.com/phinze/darkpad/internal/nowplaying"
	"github.com/phinze/darkpad/internal/powerwatch"
)

const stopTimeout = 2 * time.Second

// Both groups see every axis; swipe splits them across its own workers.
var (
	tapResources = module.Resources{
		Axes:    []module.AxisID{module.AxisX, module.AxisY},
		Contact: true,
	}
	swipeResources = module.Resources{
		Axes:    []module.AxisID{module.AxisX, module.AxisY},
		Contact: true,
	}
)

// Options tune what Run starts besides the coordinator.
type Options struct {
	Version string

	// WatchDisplay starts the platform display power watcher. Off for the
	// emulator, which reports power itself.
	WatchDisplay bool
}

// App is one daemon instance bound to a device.
type App struct {
	cfg     *config.Config
	opts    Options
	dev     device.Device
	gesture *gesture.Config
	display *gesture.Display
	bus     EventBus.Bus
	coord   *coordinator.Coordinator
	attrs   *control.Attributes
	server  *control.Server
}

// New builds the gesture pipeline for dev from cfg. The device must already
// be open.
func New(cfg *config.Config, dev device.Device, opts Options) (*App, error) {
	g := gesture.NewConfig(gesture.DefaultTapTuning(), gesture.DefaultSwipeTuning())
	if err := cfg.Apply(g); err != nil {
		return nil, fmt.Errorf("applying config: %w", err)
	}

	display := &gesture.Display{}
	bus := EventBus.New()
	clk := clock.New()

	disp := action.New(dev, g, bus)
	coord := coordinator.New(dev, g, display, bus)

	if err := coord.RegisterModule(tap.New(g, display, clk, disp), tapResources, coordinator.TapWanted); err != nil {
		return nil, err
	}
	if err := coord.RegisterModule(swipe.New(g, display, clk, disp), swipeResources, coordinator.SwipeWanted); err != nil {
		return nil, err
	}

	feed, err := control.NewFeed(bus)
	if err != nil {
		return nil, fmt.Errorf("event feed: %w", err)
	}
	attrs := control.NewAttributes(g, coord, opts.Version)

	return &App{
		cfg:     cfg,
		opts:    opts,
		dev:     dev,
		gesture: g,
		display: display,
		bus:     bus,
		coord:   coord,
		attrs:   attrs,
		server:  control.NewServer(attrs, coord, feed, cfg.Control.Token, dev.GetModelName()),
	}, nil
}

// Coordinator returns the coordinator, for callers that report display power
// directly.
func (a *App) Coordinator() *coordinator.Coordinator { return a.coord }

// Attributes returns the control attribute table.
func (a *App) Attributes() *control.Attributes { return a.attrs }

// Bus returns the event bus.
func (a *App) Bus() EventBus.Bus { return a.bus }

// Run blocks until ctx is cancelled or the device stops delivering events,
// then unregisters every group. A device failure is returned.
func (a *App) Run(ctx context.Context) error {
	log.WithField("device", a.dev.GetModelName()).Info("Connected")

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.coord.Start(runCtx)
	}()

	if a.cfg.Control.Addr != "" {
		go func() {
			if err := a.server.ListenAndServe(runCtx, a.cfg.Control.Addr); err != nil {
				log.WithError(err).Error("Control server failed")
			}
		}()
	}
	if a.opts.WatchDisplay {
		go a.watchDisplay(runCtx)
	}
	if a.cfg.Media.Enabled {
		go a.watchMedia(runCtx)
	}

	log.Info("Ready! Waiting for the display to blank")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Error("Device disconnected")
			runErr = err
		} else {
			log.Info("Input stream ended")
		}
	}

	runCancel()

	done := make(chan struct{})
	go func() {
		if err := a.coord.Stop(); err != nil {
			log.WithError(err).Warn("Stopping coordinator")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		log.Warn("Cleanup timed out")
	}
	return runErr
}

func (a *App) watchDisplay(ctx context.Context) {
	events, err := powerwatch.Watch(ctx, powerwatch.Config{
		Path:     a.cfg.Display.BlankPath,
		Interval: time.Duration(a.cfg.Display.PollMS) * time.Millisecond,
	})
	if errors.Is(err, powerwatch.ErrUnsupported) {
		log.Warn("No display power source found; report power with 'darkpad display off|on'")
		return
	}
	if err != nil {
		log.WithError(err).Error("Display watcher failed")
		return
	}

	for ev := range events {
		log.WithFields(log.Fields{"off": ev.Off, "source": ev.Source}).Debug("Display power sample")
		if err := a.coord.SetDisplayPower(ev.Off); err != nil {
			log.WithError(err).Warn("Reconcile after display change failed")
		}
	}
}

func (a *App) watchMedia(ctx context.Context) {
	src, err := nowplaying.NewCommandSource(a.cfg.Media.Command)
	if err != nil {
		log.WithError(err).Warn("Media watcher disabled")
		return
	}
	log.WithField("tool", src.Name()).Info("Watching media player")

	w := nowplaying.NewWatcher(src, a.gesture, a.coord, time.Duration(a.cfg.Media.PollMS)*time.Millisecond)
	if err := w.Run(ctx); err != nil {
		log.WithError(err).Warn("Media watcher stopped")
	}
}
