// Package trigger decides when a sync pass runs.
//
// The host never calls into the archive directly. It either registers sync
// work as a shutdown hook, or logkeep waits on its behalf for a termination
// signal, for the host's lock file to disappear, or for a cron schedule.
package trigger

import (
	"context"
	"sync"
)

// Hooks is a registry of functions to run once when the host shuts down.
// Functions run in last-in-first-out order.
type Hooks struct {
	mu       sync.Mutex
	sequence []func(context.Context)
	once     sync.Once
}

// Handle registers fn to run on shutdown. Handle may be called concurrently.
func (h *Hooks) Handle(fn func(context.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sequence = append(h.sequence, fn)
}

// Run calls every registered function, newest first. Only the first call
// has any effect.
func (h *Hooks) Run(ctx context.Context) {
	h.once.Do(func() {
		h.mu.Lock()
		fns := append([]func(context.Context){}, h.sequence...)
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i](ctx)
		}
	})
}
