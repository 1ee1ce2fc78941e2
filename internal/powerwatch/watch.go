// Package powerwatch reports display blank and unblank transitions.
package powerwatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultInterval is the sysfs polling period.
const DefaultInterval = 250 * time.Millisecond

// ErrUnsupported is returned when no display power source exists on this
// platform and no file was configured.
var ErrUnsupported = errors.New("powerwatch: no display power source")

// Event is one display power transition.
type Event struct {
	Off    bool
	Time   time.Time
	Source string
}

// Config selects the power source.
type Config struct {
	// Path is a sysfs-style blank file to poll. When empty the platform
	// default is used.
	Path     string
	Interval time.Duration
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultInterval
	}
	return c.Interval
}

// Watch returns a channel of display power transitions. The current state is
// reported first. The channel is closed when ctx is done.
func Watch(ctx context.Context, cfg Config) (<-chan Event, error) {
	ch := make(chan Event, 4)
	if cfg.Path != "" {
		go pollFile(ctx, cfg.Path, cfg.interval(), ch)
		return ch, nil
	}
	if err := watchPlatform(ctx, cfg, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// ParseBlank reads the contents of a bl_power or fb blank file. Zero is
// FB_BLANK_UNBLANK; every other level counts as off.
func ParseBlank(s string) (bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("parsing blank level %q: %w", s, err)
	}
	return n != 0, nil
}

// pollFile reports changes of a blank file until ctx is done, then closes ch.
func pollFile(ctx context.Context, path string, interval time.Duration, ch chan<- Event) {
	defer close(ch)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var tr tracker
	logged := false
	for {
		data, err := os.ReadFile(path)
		if err == nil {
			var off bool
			if off, err = ParseBlank(string(data)); err == nil {
				logged = false
				if ev, ok := tr.update(off, path); ok && !send(ctx, ch, ev) {
					return
				}
			}
		}
		if err != nil && !logged {
			log.WithField("path", path).Warnf("Display power unreadable: %v", err)
			logged = true
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tracker suppresses repeated states.
type tracker struct {
	known bool
	off   bool
}

func (t *tracker) update(off bool, source string) (Event, bool) {
	if t.known && t.off == off {
		return Event{}, false
	}
	t.known, t.off = true, off
	return Event{Off: off, Time: time.Now(), Source: source}, true
}

func send(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
