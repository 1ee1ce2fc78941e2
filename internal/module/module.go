package module

import "context"

// Module defines the interface that every gesture group implements. The
// coordinator owns registration; a module only sees events while its group
// is active.
type Module interface {
	// ID returns a unique identifier for this module instance.
	ID() string

	// Init starts the module's workers with the given context and allocated
	// resources. The context is cancelled when the group stops.
	Init(ctx context.Context, resources Resources) error

	// Stop shuts down the workers and cancels any pending timers. When it
	// returns no further actions are dispatched by this module.
	Stop() error

	// Reset clears detector state before the group goes active.
	Reset()

	// HandleTouch queues a touch event. It must not block.
	HandleTouch(event TouchEvent)
}
