package websocketdto

import "encoding/json"

// Outbound message types.
const (
	TypeRiderLocationUpdated   = "riderLocationUpdated"
	TypeDriverLocationResponse = "driverLocationResponse"
	TypeDriverNotFound         = "driverNotFound"
	TypeDriverOffline          = "driverOffline"
	TypeDriverOnDuty           = "driverOnDuty"
	TypeNewRideOffer           = "newRideOffer"
	TypeRideOfferRejected      = "rideOfferRejected"
	TypeRideOfferAccepted      = "rideofferAccepted"
	TypeDriverReached          = "driverReached"
	TypeOTP                    = "OTP"
	TypeRideBegins             = "rideBegins"
	TypeRideEnded              = "rideEnded"
)

type RiderLocationUpdated struct {
	Type      string  `json:"type"`
	DriverID  string  `json:"driverId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type DriverLocationResponse struct {
	Type     string   `json:"type"`
	DriverID string   `json:"driverId"`
	Location Location `json:"location"`
}

type DriverNotFound struct {
	Type     string `json:"type"`
	DriverID string `json:"driverId"`
	Message  string `json:"message"`
}

type DriverOffline struct {
	Type     string `json:"type"`
	DriverID string `json:"driverId"`
}

type DriverOnDuty struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type NewRideOffer struct {
	Type        string          `json:"type"`
	RideDetails json.RawMessage `json:"rideDetails"`
}

// RideEvent covers the ride lifecycle notices that only carry the ride id.
type RideEvent struct {
	Type string          `json:"type"`
	ID   json.RawMessage `json:"id,omitempty"`
}

type OTP struct {
	Type string          `json:"type"`
	OTP  json.RawMessage `json:"otp,omitempty"`
	ID   json.RawMessage `json:"id,omitempty"`
}

// StatusError is the failure reply sent to the originator of a routed
// message whose target is not connected.
type StatusError struct {
	Status string `json:"status"`
}

var ErrorReply = StatusError{Status: "error"}
