// Package control exposes the gesture configuration to operators: a table of
// named attributes, a JSON-RPC server and the client the CLI uses.
package control

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/gesture"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrReadOnly         = errors.New("attribute is read-only")
	ErrInvalidValue     = gesture.ErrInvalidValue
)

// Reconciler brings registrations in line with the configuration.
type Reconciler interface {
	Reconcile() error
}

type attribute struct {
	get func(s gesture.Snapshot) string
	set func(cfg *gesture.Config, value string) error
}

// Attributes is the operator view of a gesture configuration. Every
// successful write reconciles before returning.
type Attributes struct {
	cfg     *gesture.Config
	rec     Reconciler
	version string
	table   map[string]attribute
}

// NewAttributes returns the attribute table for cfg.
func NewAttributes(cfg *gesture.Config, rec Reconciler, version string) *Attributes {
	a := &Attributes{cfg: cfg, rec: rec, version: version}
	a.table = map[string]attribute{
		"tap_enabled": {
			get: func(s gesture.Snapshot) string { return strconv.Itoa(s.TapThreshold) },
			set: setTapThreshold,
		},
		"tap_temporary_enabled": {
			get: func(s gesture.Snapshot) string { return flag(s.TapTemporary) },
			set: setFlag((*gesture.Config).SetTapTemporary),
		},
		"swipe_enabled": {
			get: func(s gesture.Snapshot) string { return flag(s.SwipeEnabled) },
			set: setFlag((*gesture.Config).SetSwipeEnabled),
		},
		"swipe_temporary_enabled": {
			get: func(s gesture.Snapshot) string { return flag(s.SwipeTemporary) },
			set: setFlag((*gesture.Config).SetSwipeTemporary),
		},
		"auto_off_delay_ms": {
			get: func(s gesture.Snapshot) string { return strconv.FormatInt(s.AutoOffDelay.Milliseconds(), 10) },
			set: setAutoOffDelay,
		},
		"mic_detected": {
			get: func(s gesture.Snapshot) string { return flag(s.MicDetected) },
			set: setFlag((*gesture.Config).SetMicDetected),
		},
		"forced_off": {
			get: func(s gesture.Snapshot) string { return flag(s.ForcedOff) },
		},
		"track_changed": {
			get: func(s gesture.Snapshot) string { return flag(s.TrackChanged) },
		},
		"version": {
			get: func(gesture.Snapshot) string { return a.version },
		},
	}
	return a
}

// Names returns the attribute names in sorted order.
func (a *Attributes) Names() []string {
	names := make([]string, 0, len(a.table))
	for name := range a.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Writable reports whether name accepts writes.
func (a *Attributes) Writable(name string) bool {
	attr, ok := a.table[name]
	return ok && attr.set != nil
}

// Get returns the current value of name.
func (a *Attributes) Get(name string) (string, error) {
	attr, ok := a.table[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrUnknownAttribute)
	}
	return attr.get(a.cfg.Snapshot()), nil
}

// All returns every attribute from a single snapshot.
func (a *Attributes) All() map[string]string {
	snap := a.cfg.Snapshot()
	out := make(map[string]string, len(a.table))
	for name, attr := range a.table {
		out[name] = attr.get(snap)
	}
	return out
}

// Set writes value to name. Invalid input is rejected without changing
// state. A single trailing newline is accepted, as with sysfs writes.
func (a *Attributes) Set(name, value string) error {
	attr, ok := a.table[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownAttribute)
	}
	if attr.set == nil {
		return fmt.Errorf("%s: %w", name, ErrReadOnly)
	}

	value = strings.TrimSuffix(value, "\n")
	if err := attr.set(a.cfg, value); err != nil {
		return fmt.Errorf("%s=%q: %w", name, value, err)
	}
	log.WithFields(log.Fields{"attr": name, "value": value}).Info("Attribute written")

	if a.rec == nil {
		return nil
	}
	if err := a.rec.Reconcile(); err != nil {
		return fmt.Errorf("reconcile after %s: %w", name, err)
	}
	return nil
}

func setTapThreshold(cfg *gesture.Config, value string) error {
	if len(value) != 1 || value[0] < '0' || value[0] > '9' {
		return ErrInvalidValue
	}
	return cfg.SetTapThreshold(int(value[0] - '0'))
}

func setFlag(fn func(*gesture.Config, bool)) func(*gesture.Config, string) error {
	return func(cfg *gesture.Config, value string) error {
		switch value {
		case "0":
			fn(cfg, false)
		case "1":
			fn(cfg, true)
		default:
			return ErrInvalidValue
		}
		return nil
	}
}

// setAutoOffDelay rejects non-integers. Integers outside the accepted range
// are ignored without error.
func setAutoOffDelay(cfg *gesture.Config, value string) error {
	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return ErrInvalidValue
	}
	// Range-check before converting; large values overflow a Duration.
	if int64(ms) < gesture.MinAutoOffDelay.Milliseconds() || int64(ms) > gesture.MaxAutoOffDelay.Milliseconds() {
		log.WithField("ms", ms).Debug("Auto-off delay out of range, ignored")
		return nil
	}
	cfg.SetAutoOffDelay(time.Duration(ms) * time.Millisecond)
	return nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
