package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phinze/darkpad/internal/app"
	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/device/replay"
)

var recordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Capture raw touch events to a file until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Feed a capture through the gesture pipeline with the display off",
	Long: `Replays a capture made with 'darkpad record' against the tap and swipe
detectors and prints the keys they would have pressed. Nothing is emitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Float64("speed", 1, "playback speed; 0 plays without delays")
	replayCmd.Flags().Int("tap", -1, "override the tap threshold (0-9)")
	replayCmd.Flags().Bool("swipe", false, "arm swipe control as if media were playing")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating capture: %w", err)
	}
	defer f.Close()

	dev := device.NewHardware(cfg.Hardware())
	if err := dev.Open(); err != nil {
		return err
	}
	defer dev.Close()

	rec := replay.NewRecorder(f)
	sub, err := dev.Subscribe("record", rec.Handle)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ctx, cancel := signalContext()
	defer cancel()

	log.WithField("file", args[0]).Info("Recording, press Ctrl+C to stop")
	if err := dev.Listen(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	if err := rec.Err(); err != nil {
		return fmt.Errorf("writing capture: %w", err)
	}
	fmt.Printf("Recorded %d events to %s\n", rec.Count(), args[0])
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	speed, _ := cmd.Flags().GetFloat64("speed")
	if tap, _ := cmd.Flags().GetInt("tap"); tap >= 0 {
		cfg.Tap.Threshold = tap
	}
	armSwipe, _ := cmd.Flags().GetBool("swipe")

	dev, err := replay.Load(args[0], replay.WithSpeed(speed))
	if err != nil {
		return err
	}
	if err := dev.Open(); err != nil {
		return err
	}
	defer dev.Close()

	cfg.Control.Addr = ""
	cfg.Media.Enabled = false
	a, err := app.New(cfg, drainingReplay{dev}, app.Options{Version: version})
	if err != nil {
		return err
	}
	if armSwipe {
		if err := a.Attributes().Set("swipe_temporary_enabled", "1"); err != nil {
			return err
		}
	}
	if err := a.Coordinator().SetDisplayPower(true); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := a.Run(ctx); err != nil {
		return err
	}

	for _, e := range dev.Emitted() {
		switch e.Kind {
		case "down", "up":
			fmt.Printf("%-9s %s\n", e.Kind, e.Key)
		default:
			fmt.Printf("%-9s %d\n", e.Kind, e.Value)
		}
	}
	return nil
}

// drainingReplay holds Listen open briefly after the capture ends so the
// gesture workers can finish what was queued before the groups stop.
type drainingReplay struct {
	*replay.Device
}

func (d drainingReplay) Listen(ctx context.Context) error {
	if err := d.Device.Listen(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-time.After(250 * time.Millisecond):
	}
	return nil
}
