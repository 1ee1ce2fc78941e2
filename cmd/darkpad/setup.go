package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phinze/darkpad/internal/config"
	"github.com/phinze/darkpad/internal/gesture"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: write config and store the control token in the keychain",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== darkpad Setup ===")
	fmt.Println()

	// Load existing config as defaults
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	fmt.Println("-- Gestures --")
	cfg.Tap.Threshold = promptInt(reader, "Extra taps needed to wake (0 disables)", cfg.Tap.Threshold, 0, gesture.MaxTapThreshold)
	cfg.Swipe.Enabled = promptBool(reader, "Enable swipe volume/track control", cfg.Swipe.Enabled)
	cfg.Swipe.AutoOffDelayMS = promptInt(reader, "Touch auto-off after holding a swipe (ms)", cfg.Swipe.AutoOffDelayMS,
		int(gesture.MinAutoOffDelay.Milliseconds()), int(gesture.MaxAutoOffDelay.Milliseconds()))
	fmt.Println()

	fmt.Println("-- Touch device --")
	cfg.Device.Path = prompt(reader, "Device node (empty to search by name)", cfg.Device.Path)
	cfg.Device.NameKeyword = prompt(reader, "Device name keyword", cfg.Device.NameKeyword)
	fmt.Println()

	fmt.Println("-- Control server --")
	cfg.Control.Addr = prompt(reader, "Listen address", cfg.Control.Addr)

	token := promptSecret(reader, "Bearer token (\"generate\" for a random one)", cfg.Control.Token != "")
	if token == "generate" {
		token = uuid.NewString()
		fmt.Printf("  Generated token: %s\n", token)
	}
	if token != "" {
		if err := config.SetKeychainSecret(config.KeyControlToken, token); err != nil {
			return fmt.Errorf("storing control token in keychain: %w", err)
		}
		fmt.Println("  -> Stored in keychain")
	} else {
		fmt.Println("  -> Kept existing")
	}
	fmt.Println()

	// Write config file
	if err := config.WriteConfigFile(cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Config written to %s\n", config.DefaultConfigPath())
	fmt.Println("Setup complete!")
	return nil
}

// prompt asks for a value with an optional default.
func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// promptInt asks for an integer in [lo, hi], re-asking on bad input.
func promptInt(reader *bufio.Reader, label string, defaultVal, lo, hi int) int {
	defaultVal = max(lo, min(hi, defaultVal))
	for {
		s := prompt(reader, label, strconv.Itoa(defaultVal))
		n, err := strconv.Atoi(s)
		if err == nil && n >= lo && n <= hi {
			return n
		}
		fmt.Printf("  Enter a number from %d to %d.\n", lo, hi)
	}
}

func promptBool(reader *bufio.Reader, label string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	s := strings.ToLower(prompt(reader, label+" (y/n)", def))
	return strings.HasPrefix(s, "y")
}

// promptSecret asks for a secret value. If one already exists, allows keeping it.
func promptSecret(reader *bufio.Reader, label string, hasExisting bool) string {
	if hasExisting {
		fmt.Printf("  %s [press Enter to keep existing]: ", label)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
