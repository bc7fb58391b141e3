package messagebrokerdto

import "time"

const (
	DriverStatusOnline  = "ONLINE"
	DriverStatusOffline = "OFFLINE"
)

// DriverStatusEvent is published when a driver comes on duty or leaves.
type DriverStatusEvent struct {
	DriverID  string    `json:"driver_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// LocationEvent mirrors a riderLocationUpdate.
type LocationEvent struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
