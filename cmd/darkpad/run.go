package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sevlyar/go-daemon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phinze/darkpad/internal/app"
	"github.com/phinze/darkpad/internal/config"
	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/gesture"
	"github.com/phinze/darkpad/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gesture daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().BoolP("daemon", "d", false, "detach and run in the background")
	runCmd.Flags().String("device", "", "touch device node (default: search by name keyword)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("device"); path != "" {
		cfg.Device.Path = path
	}
	if err := cfg.Apply(gesture.NewConfig(gesture.DefaultTapTuning(), gesture.DefaultSwipeTuning())); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The child re-runs this command and passes through Reborn as well.
	if isDaemon, _ := cmd.Flags().GetBool("daemon"); isDaemon {
		dctx := daemonContext()
		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
		if child != nil {
			fmt.Printf("darkpad daemon started (pid %d), logging to %s\n", child.Pid, logFilePath())
			return nil
		}
		defer dctx.Release()
		// stderr is the log file now
		logging.SetOutput(os.Stderr)
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.WithField("version", version).Info("=== darkpad ===")

	// Main device loop: wait for the panel, run, repeat on disconnect.
	for {
		dev := waitForDevice(ctx, cfg.Hardware())
		if dev == nil {
			return nil
		}

		err := runWithDevice(ctx, cfg, dev)
		if err != nil {
			log.WithError(err).Error("Daemon stopped")
		}

		select {
		case <-ctx.Done():
			log.Info("Exiting...")
			return nil
		default:
			log.Info("Waiting for device reconnect...")
		}
	}
}

func daemonContext() *daemon.Context {
	_ = os.MkdirAll(config.DefaultConfigDir(), 0o755)
	return &daemon.Context{
		PidFileName: filepath.Join(config.DefaultConfigDir(), "darkpad.pid"),
		PidFilePerm: 0o644,
		LogFileName: logFilePath(),
		LogFilePerm: 0o640,
		WorkDir:     "/",
		Umask:       027,
		Args:        os.Args,
	}
}

func logFilePath() string {
	return filepath.Join(config.DefaultConfigDir(), "darkpad.log")
}

// waitForDevice polls for the touch panel until it opens or ctx is done.
func waitForDevice(ctx context.Context, hw device.HardwareConfig) device.Device {
	const pollInterval = 2 * time.Second

	logged := false
	for {
		dev := device.NewHardware(hw)
		err := dev.Open()
		if err == nil {
			return dev
		}
		if !logged {
			log.WithError(err).Info("Waiting for touch device...")
			logged = true
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}
	}
}

// runWithDevice runs the daemon on dev until disconnect or ctx cancel, then
// closes the device.
func runWithDevice(ctx context.Context, cfg *config.Config, dev device.Device) error {
	defer func() {
		if err := dev.Close(); err != nil {
			log.WithError(err).Debug("Closing device")
		}
	}()

	a, err := app.New(cfg, dev, app.Options{Version: version, WatchDisplay: true})
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
