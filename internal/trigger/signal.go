package trigger

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitSignal blocks until the process receives one of sigs, or SIGINT or
// SIGTERM when none are given. It returns the signal, or nil and the
// context's error if ctx ends first.
func WaitSignal(ctx context.Context, sigs ...os.Signal) (os.Signal, error) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		return sig, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
