package device

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultNameKeyword matches the touch controller the daemon was first built
// for.
const DefaultNameKeyword = "synaptics_rmi4_i2c"

// HardwareConfig selects the evdev source and the sysfs nodes used for
// feedback.
type HardwareConfig struct {
	// Path is an explicit /dev/input/eventN node. When empty the first device
	// whose name contains NameKeyword is used.
	Path        string
	NameKeyword string

	// Grab takes exclusive access to the touch device.
	Grab bool

	UinputPath string

	// HapticPath is a timed_output style node taking a duration in ms.
	HapticPath string

	// TouchOffPath receives the touch power-off delay in ms.
	TouchOffPath string
}

// DefaultHardwareConfig returns the stock paths.
func DefaultHardwareConfig() HardwareConfig {
	return HardwareConfig{
		NameKeyword: DefaultNameKeyword,
		UinputPath:  "/dev/uinput",
		HapticPath:  "/sys/class/timed_output/vibrator/enable",
	}
}

// writeSysfs writes a single integer to a sysfs attribute.
func writeSysfs(path string, v int) error {
	if path == "" {
		return fmt.Errorf("sysfs node not configured")
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(v)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func vibrate(path string, strength int) error {
	return writeSysfs(path, strength)
}

func touchOff(path string, delay time.Duration) error {
	return writeSysfs(path, int(delay/time.Millisecond))
}
