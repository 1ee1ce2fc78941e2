// Package nowplaying watches the host media player and keeps swipe control
// armed while something is playing.
package nowplaying

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/gesture"
)

const (
	// DefaultInterval is how often the player is queried.
	DefaultInterval = time.Second

	queryTimeout = 2 * time.Second
)

// ErrNoPlayerTool is returned when neither media-control nor playerctl is
// installed and no command was configured.
var ErrNoPlayerTool = errors.New("no media player tool found (install media-control or playerctl)")

// Status is what the player reports.
type Status struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Playing bool   `json:"playing"`
}

// Source reports the current player status.
type Source interface {
	Query(ctx context.Context) (Status, error)
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandSource queries an external player tool.
type CommandSource struct {
	name  string
	args  []string
	parse func([]byte) (Status, error)
	run   runFunc
}

// NewCommandSource returns a source for command. An empty command picks
// media-control, then playerctl, whichever is on PATH.
func NewCommandSource(command string) (*CommandSource, error) {
	if command == "" {
		for _, candidate := range []string{"media-control", "playerctl"} {
			if _, err := exec.LookPath(candidate); err == nil {
				command = candidate
				break
			}
		}
		if command == "" {
			return nil, ErrNoPlayerTool
		}
	}
	return newCommandSource(command, runCommand), nil
}

func newCommandSource(command string, run runFunc) *CommandSource {
	fields := strings.Fields(command)
	s := &CommandSource{name: fields[0], args: fields[1:], run: run}

	switch filepath.Base(s.name) {
	case "playerctl":
		if len(s.args) == 0 {
			s.args = []string{"metadata", "--format", "{{status}}\t{{title}}\t{{artist}}"}
		}
		s.parse = ParsePlayerctl
	default:
		if len(s.args) == 0 {
			s.args = []string{"get"}
		}
		s.parse = ParseMediaControl
	}
	return s
}

// Name returns the tool being run.
func (s *CommandSource) Name() string { return s.name }

// Query runs the tool once.
func (s *CommandSource) Query(ctx context.Context) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := s.run(ctx, s.name, s.args...)
	if err != nil {
		// playerctl exits non-zero when no player is running
		if filepath.Base(s.name) == "playerctl" && bytes.Contains(out, []byte("No players found")) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("%s failed: %w", s.name, err)
	}
	return s.parse(out)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ParseMediaControl parses `media-control get` output. A JSON null means
// nothing is loaded.
func ParseMediaControl(out []byte) (Status, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 || bytes.Equal(out, []byte("null")) {
		return Status{}, nil
	}
	var st Status
	if err := json.Unmarshal(out, &st); err != nil {
		return Status{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return st, nil
}

// ParsePlayerctl parses `playerctl metadata --format` output of the form
// "status\ttitle\tartist", or a bare `playerctl status` line.
func ParsePlayerctl(out []byte) (Status, error) {
	line := strings.TrimSpace(string(out))
	if line == "" {
		return Status{}, nil
	}
	parts := strings.Split(line, "\t")

	var st Status
	switch parts[0] {
	case "Playing":
		st.Playing = true
	case "Paused", "Stopped":
	default:
		return Status{}, fmt.Errorf("unexpected playerctl status %q", parts[0])
	}
	if len(parts) > 1 {
		st.Title = parts[1]
	}
	if len(parts) > 2 {
		st.Artist = parts[2]
	}
	return st, nil
}

// Reconciler brings gesture registrations in line with the configuration.
type Reconciler interface {
	Reconcile() error
}

// Watcher polls a Source and mirrors "playing" into the swipe temporary
// switch. Only transitions are written, so an operator override holds until
// the player changes state.
type Watcher struct {
	source   Source
	cfg      *gesture.Config
	rec      Reconciler
	interval time.Duration

	known   bool
	playing bool
	failing bool
}

// NewWatcher returns a watcher. A zero interval uses DefaultInterval.
func NewWatcher(source Source, cfg *gesture.Config, rec Reconciler, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{source: source, cfg: cfg, rec: rec, interval: interval}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	st, err := w.source.Query(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if !w.failing {
			log.WithError(err).Warn("Failed to get now playing")
			w.failing = true
		}
		return
	}
	w.failing = false

	if w.known && st.Playing == w.playing {
		return
	}
	w.known = true
	w.playing = st.Playing

	log.WithFields(log.Fields{
		"playing": st.Playing,
		"title":   st.Title,
		"artist":  st.Artist,
	}).Info("Media state changed")

	w.cfg.SetSwipeTemporary(st.Playing)
	if w.rec != nil {
		if err := w.rec.Reconcile(); err != nil {
			log.WithError(err).Warn("Reconcile after media change failed")
		}
	}
}
