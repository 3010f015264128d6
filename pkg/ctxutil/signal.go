package ctxutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext provides a context cancelled by SIGINT or SIGTERM.
// A second signal terminates the process with exit status 130.
func SignalContext(ctx context.Context) context.Context {
	ctx = CancelContext(ctx)

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			Cancel(ctx)
		case <-ctx.Done():
			signal.Stop(sigs)
			return
		}
		<-sigs
		os.Exit(130)
	}()
	return ctx
}
