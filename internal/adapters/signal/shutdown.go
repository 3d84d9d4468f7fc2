package signal

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const shutdownMessage = "Server is shutting down"

// Shutdown notifies every endpoint, closes them gracefully and waits for the
// pumps to finish. Connections still open when ctx expires are closed hard.
// Rooms are dropped afterwards either way.
func (ctl *SignalWSController) Shutdown(ctx context.Context) error {
	ctl.mu.Lock()
	ctl.closing = true
	ctl.mu.Unlock()
	defer ctl.stopConns()

	ctl.Orch.BeginShutdown(shutdownMessage)

	open := ctl.openConns()
	for _, c := range open {
		c.CloseGracefully()
	}
	log.Info().Str("module", "signal").Int("connections", len(open)).Msg("closing connections")

	done := make(chan struct{})
	go func() {
		ctl.pumps.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		forced := ctl.openConns()
		for sid, c := range forced {
			ctl.Orch.Kick(sid)
			c.Close()
		}
		ctl.stopConns()
		log.Warn().Str("module", "signal").Int("connections", len(forced)).Msg("grace period expired, closing remaining connections")
		<-done
		err = fmt.Errorf("signal shutdown: %w", ctx.Err())
	}

	ctl.Orch.Teardown()
	log.Info().Str("module", "signal").Msg("shutdown complete")
	return err
}
