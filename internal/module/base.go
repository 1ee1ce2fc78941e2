package module

import (
	"context"
	"sync"
)

// BaseModule provides the context and worker bookkeeping shared by gesture
// modules. Embed this in module implementations and override the methods
// needed.
type BaseModule struct {
	id        string
	resources Resources
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewBaseModule creates a BaseModule with the given ID.
func NewBaseModule(id string) BaseModule {
	return BaseModule{id: id}
}

// ID returns the module's identifier.
func (b *BaseModule) ID() string {
	return b.id
}

// Init stores the context and resources for the module.
// Override this to start workers, but call the base implementation first so
// they have a context to run under.
func (b *BaseModule) Init(ctx context.Context, resources Resources) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.resources = resources
	return nil
}

// Stop cancels the module's context and waits for its workers.
// Override this to perform module-specific cleanup, but call the base
// implementation to ensure the context is cancelled.
func (b *BaseModule) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return nil
}

// Reset is a no-op by default.
func (b *BaseModule) Reset() {}

// HandleTouch is a no-op by default.
func (b *BaseModule) HandleTouch(event TouchEvent) {}

// Go runs fn on a worker goroutine tracked by Stop.
func (b *BaseModule) Go(fn func(ctx context.Context)) {
	ctx := b.ctx
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(ctx)
	}()
}

// Resources returns the allocated resources for this module.
func (b *BaseModule) Resources() Resources {
	return b.resources
}

// Context returns the module's context.
func (b *BaseModule) Context() context.Context {
	return b.ctx
}
