package main

import "time"

const (
	DefaultRelayURL        = "ws://localhost:8080/"
	LocationUpdateInterval = 2 * time.Second
	SendDelay              = 50 * time.Millisecond

	// location ticks between journeyBegins and journeyEnds
	RideTicks = 5
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}
