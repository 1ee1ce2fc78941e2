//go:build linux

package powerwatch

import (
	"context"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Candidate blank files, most specific first.
var linuxSources = []string{
	"/sys/class/backlight/*/bl_power",
	"/sys/class/graphics/fb0/blank",
}

func watchPlatform(ctx context.Context, cfg Config, ch chan Event) error {
	path := findSource()
	if path == "" {
		return ErrUnsupported
	}
	log.WithField("path", path).Info("Watching display power")
	go pollFile(ctx, path, cfg.interval(), ch)
	return nil
}

func findSource() string {
	for _, pattern := range linuxSources {
		matches, _ := filepath.Glob(pattern)
		for _, m := range matches {
			if _, err := os.Stat(m); err == nil {
				return m
			}
		}
	}
	return ""
}
