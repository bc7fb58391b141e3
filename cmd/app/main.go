package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ride-relay/internal/config"
	"ride-relay/internal/mylogger"
	relayservice "ride-relay/internal/relay-service"
)

func main() {
	relayCmd := flag.NewFlagSet("relay-service", flag.ExitOnError)
	port := relayCmd.Int("port", 0, "listen port (overrides PORT)")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: app relay-service [-port N]")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := mylogger.New(cfg.Log.Level)
	if len(cfg.Defaults) > 0 {
		log.Action("config").Debug("using default values", "keys", cfg.Defaults)
	}

	switch os.Args[1] {
	case "relay-service":
		relayCmd.Parse(os.Args[2:])
		if *port > 0 {
			cfg.WS.Port = *port
		}
		if err := relayservice.Run(context.Background(), log, cfg); err != nil {
			log.Error("relay service failed", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}
