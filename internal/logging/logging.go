// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Setup sets the level from a name ("debug", "info", ...). Verbose forces
// debug regardless of level. An empty level means info.
func Setup(level string, verbose bool) error {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = log.DebugLevel
	}

	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	return nil
}

// SetOutput redirects log output, e.g. to the daemon log file.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
	// no terminal behind a file
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
		DisableColors:   true,
	})
}
