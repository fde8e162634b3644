package runtime

import (
	"os"
	"os/signal"
	"syscall"
)

// WaitForShutdownSignal blocks until SIGINT or SIGTERM arrives, then stops
// the runtime. It is meant to be called from a long-running host process
// after Start; one-shot callers should use RunUntilDone instead.
func (r *Runtime) WaitForShutdownSignal() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	r.logger.Info("runtime: received signal %s, shutting down", sig)
	return r.Stop(false)
}
