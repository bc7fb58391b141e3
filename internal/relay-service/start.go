package relayservice

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ride-relay/internal/config"
	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/adapters/driver/myhttp"
)

// Run serves the relay until ctx is cancelled or the process is signalled.
func Run(ctx context.Context, l mylogger.Logger, cfg *config.Config) error {
	shutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log := l.Action("relay_service")
	srv := myhttp.NewServer(shutdown, l, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	var runErr error
	select {
	case runErr = <-errCh:
		if runErr != nil {
			log.Error("relay server stopped", runErr)
		}
	case <-shutdown.Done():
		log.Info("Gracefully shutting down...")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		return err
	}
	return runErr
}
