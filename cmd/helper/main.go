// Command helper simulates a driver against a running relay: it goes on
// duty, streams location updates, accepts ride offers and walks each ride
// through to the end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ride-relay/internal/config"
	"ride-relay/internal/mylogger"
)

func main() {
	url := flag.String("url", DefaultRelayURL, "relay websocket URL")
	driverID := flag.String("driver_id", "", "driver id to register as")
	interval := flag.Duration("interval", LocationUpdateInterval, "location update interval")
	lat := flag.Float64("lat", 43.236, "starting latitude")
	lng := flag.Float64("lng", 76.886, "starting longitude")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	appLogger := mylogger.New(cfg.Log.Level).Action("driver_simulator")

	if *driverID == "" {
		fmt.Fprintln(os.Stderr, "-driver_id is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := NewDriverService(ctx, *driverID, Location{Latitude: *lat, Longitude: *lng}, appLogger)
	if err := driver.wsClient.Connect(*url); err != nil {
		appLogger.Error("cannot connect to relay", err)
		os.Exit(1)
	}
	defer driver.wsClient.Close()

	if err := driver.GoOnline(); err != nil {
		appLogger.Error("cannot go online", err)
		os.Exit(1)
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- driver.wsClient.ReadMessages(driver.HandleMessage)
	}()
	go driver.StreamLocation(*interval)

	select {
	case <-ctx.Done():
		if err := driver.GoOffline(); err != nil {
			appLogger.Error("logout failed", err)
		}
		appLogger.Info("driver logged out")
	case err := <-readErr:
		if err != nil {
			appLogger.Error("relay connection lost", err)
			os.Exit(1)
		}
	}
}
