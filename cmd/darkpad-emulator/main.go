package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/app"
	"github.com/phinze/darkpad/internal/config"
	"github.com/phinze/darkpad/internal/device/emulator"
	"github.com/phinze/darkpad/internal/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Warnf("Config load: %v", err)
		cfg = config.Default()
	}
	if err := logging.Setup(cfg.Log.Level, os.Getenv("DARKPAD_VERBOSE") != ""); err != nil {
		log.Warnf("Logging setup: %v", err)
	}

	log.Info("=== darkpad Emulator ===")
	log.Info("Close window or press Ctrl+C to exit")

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	emu := emulator.New()
	if err := emu.Open(); err != nil {
		log.Fatalf("Failed to open emulator: %v", err)
	}

	a, err := app.New(cfg, emu, app.Options{Version: version})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// The power key and the P key blank or wake the emulated display.
	emu.SetPowerHandler(func(off bool) {
		if err := a.Coordinator().SetDisplayPower(off); err != nil {
			log.WithError(err).Warn("Reconcile after display change failed")
		}
	})

	go func() {
		if err := a.Run(ctx); err != nil {
			log.WithError(err).Error("Daemon stopped")
		}
		_ = emu.Close()
	}()

	// Run GUI on main thread (required for macOS)
	if err := emu.RunGUI(); err != nil {
		log.WithError(err).Error("Emulator GUI error")
	}
	cancel()
}
