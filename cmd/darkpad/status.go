package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phinze/darkpad/internal/config"
	"github.com/phinze/darkpad/internal/control"
	"github.com/phinze/darkpad/internal/device"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config, token, touch device and the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== darkpad Status ===")
	fmt.Println()

	allOK := true

	// Config file
	configPath := config.DefaultConfigPath()
	fmt.Printf("Config file: %s\n", configPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("  Status: found")
	} else {
		fmt.Println("  Status: not found (using defaults)")
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		return nil
	}
	fmt.Printf("  Tap threshold: %d\n", cfg.Tap.Threshold)
	fmt.Printf("  Swipe enabled: %v (auto-off %d ms)\n", cfg.Swipe.Enabled, cfg.Swipe.AutoOffDelayMS)
	fmt.Println()

	// Control server
	fmt.Println("Control:")
	fmt.Printf("  Address: %s\n", cfg.Control.Addr)
	if _, err := config.GetKeychainSecret(config.KeyControlToken); err == nil {
		fmt.Println("  Token (Keychain): set")
	} else if cfg.Control.Token != "" {
		fmt.Println("  Token (env): set")
	} else {
		fmt.Println("  Token: not set (server is unauthenticated)")
	}
	fmt.Println()

	// Touch device
	fmt.Println("Touch device:")
	if cfg.Device.Path != "" {
		fmt.Printf("  Path: %s\n", cfg.Device.Path)
		if _, err := os.Stat(cfg.Device.Path); err != nil {
			fmt.Println("  Device: NOT FOUND")
			allOK = false
		}
	} else if path, err := device.FindTouchDevice(cfg.Device.NameKeyword); err == nil {
		fmt.Printf("  Device: %s (matched %q)\n", path, cfg.Device.NameKeyword)
	} else {
		fmt.Printf("  Device: not detected (%v)\n", err)
		allOK = false
	}
	fmt.Println()

	// Running daemon
	fmt.Println("Daemon:")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := control.NewClient(cfg.Control.Addr, cfg.Control.Token).Status(ctx)
	if err != nil {
		fmt.Printf("  Status: not reachable (%v)\n", err)
		allOK = false
	} else {
		fmt.Printf("  Status: running on %s\n", st.Device)
		for _, g := range st.Groups {
			state := "inactive"
			if g.Active {
				state = "active, session " + g.Session
			}
			fmt.Printf("  Group %s: %s\n", g.Name, state)
		}
		fmt.Printf("  Forced off: %s\n", st.Attributes["forced_off"])
	}
	fmt.Println()

	if allOK {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some checks failed. Run 'darkpad setup' to configure.")
	}

	return nil
}
