// Package module defines the interface for gesture modules and the touch
// events routed to them.
package module

// AxisID identifies a touch coordinate axis.
type AxisID uint8

const (
	AxisX AxisID = iota + 1
	AxisY
)

func (a AxisID) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "?"
	}
}

// Resources defines the touch input allocated to a module.
type Resources struct {
	// Axes whose position events are routed to this module.
	Axes []AxisID

	// Contact receives slot-select and contact-lift events.
	Contact bool
}

// HasAxes returns true if this module has any axes allocated.
func (r Resources) HasAxes() bool {
	return len(r.Axes) > 0
}

// OwnsAxis returns true if the given axis is allocated to this module.
func (r Resources) OwnsAxis(axis AxisID) bool {
	for _, a := range r.Axes {
		if a == axis {
			return true
		}
	}
	return false
}

// Wants reports whether ev should be routed to a module holding r.
func (r Resources) Wants(ev TouchEvent) bool {
	if ev.Type == TouchPosition {
		return r.OwnsAxis(ev.Axis)
	}
	return r.Contact
}
