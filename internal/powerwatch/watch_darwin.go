//go:build darwin

package powerwatch

import (
	"context"
	"time"

	"github.com/ebitengine/purego"
	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
	log "github.com/sirupsen/logrus"
)

// CoreGraphics bindings for display sleep, which the system sleep
// notifications do not cover.
var (
	cgMainDisplayID   func() uint32
	cgDisplayIsAsleep func(display uint32) bool
)

func loadCoreGraphics() error {
	cg, err := purego.Dlopen("/System/Library/Frameworks/CoreGraphics.framework/CoreGraphics", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return err
	}
	purego.RegisterLibFunc(&cgMainDisplayID, cg, "CGMainDisplayID")
	purego.RegisterLibFunc(&cgDisplayIsAsleep, cg, "CGDisplayIsAsleep")
	return nil
}

func watchPlatform(ctx context.Context, cfg Config, ch chan Event) error {
	polling := true
	if err := loadCoreGraphics(); err != nil {
		log.Warnf("CoreGraphics unavailable, using sleep notifications only: %v", err)
		polling = false
	}

	sleepCh := notifier.GetInstance().Start()

	go func() {
		defer close(ch)

		ticker := time.NewTicker(cfg.interval())
		defer ticker.Stop()

		var tr tracker
		emit := func(off bool, source string) bool {
			if ev, ok := tr.update(off, source); ok {
				return send(ctx, ch, ev)
			}
			return true
		}

		if polling && !emit(cgDisplayIsAsleep(cgMainDisplayID()), "display") {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case activity, ok := <-sleepCh:
				if !ok {
					sleepCh = nil
					continue
				}
				switch activity.Type {
				case notifier.Sleep:
					if !emit(true, "sleep") {
						return
					}
				case notifier.Awake:
					if !emit(false, "wake") {
						return
					}
				}
			case <-ticker.C:
				if polling && !emit(cgDisplayIsAsleep(cgMainDisplayID()), "display") {
					return
				}
			}
		}
	}()
	return nil
}
