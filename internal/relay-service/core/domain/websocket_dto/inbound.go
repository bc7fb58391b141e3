package websocketdto

import (
	"encoding/json"
	"strings"
)

// Inbound message types.
const (
	TypeRegister            = "register"
	TypeRiderLocationUpdate = "riderLocationUpdate"
	TypeGetDriverLocation   = "getDriverLocation"
	TypeRiderLogout         = "riderLogout"
	TypeOffDuty             = "offDuty"
	TypeOnDuty              = "onDuty"
	TypeCustomerLogout      = "customerLogout"
	TypeRideOffer           = "rideOffer"
	TypeRejectRideOffer     = "rejectRideOffer"
	TypeAcceptRideOffer     = "acceptRideOffer"
	TypeReached             = "reached"
	TypeProvidingOTP        = "providingOTP"
	TypeJourneyBegins       = "journeyBegins"
	TypeJourneyEnds         = "journeyEnds"
)

// RideStatusOffer is the only rideDetails.status that produces a ride offer.
const RideStatusOffer = "offer"

// PeerID is a participant id that may arrive as a JSON string or number.
// 5 and "5" name the same participant. Other JSON types decode to "".
type PeerID string

func (p *PeerID) UnmarshalJSON(data []byte) error {
	*p = PeerID(textID(data))
	return nil
}

// Inbound is the union of every field any inbound message may carry.
// Ids are accepted in camelCase and snake_case; when both are present the
// camelCase spelling wins.
type Inbound struct {
	Type string          `json:"type"`
	Role string          `json:"role"`
	ID   json.RawMessage `json:"id"`

	DriverID        PeerID `json:"driverId"`
	DriverIDSnake   PeerID `json:"driver_id"`
	CustomerID      PeerID `json:"customerId"`
	CustomerIDSnake PeerID `json:"customer_id"`

	Location    *Location       `json:"location"`
	RideDetails json.RawMessage `json:"rideDetails"`
	OTP         json.RawMessage `json:"otp"`
}

// IDString returns id as text. Ride ids may arrive as strings or numbers;
// anything else yields "".
func (m *Inbound) IDString() string {
	return textID(m.ID)
}

// Driver returns the driver id the message refers to.
func (m *Inbound) Driver() string {
	return firstNonEmpty(m.DriverID, m.DriverIDSnake)
}

// Customer returns the customer id the message refers to.
func (m *Inbound) Customer() string {
	return firstNonEmpty(m.CustomerID, m.CustomerIDSnake)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// RideDetails holds the fields of rideDetails the relay looks at. The
// object itself is forwarded to the driver untouched.
type RideDetails struct {
	Status   string `json:"status"`
	TargetID PeerID `json:"targetId"`
	RiderID  PeerID `json:"rider_id"`
}

func (d *RideDetails) Target() string {
	return firstNonEmpty(d.TargetID, d.RiderID)
}

func firstNonEmpty(vals ...PeerID) string {
	for _, v := range vals {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// textID renders a raw JSON string or number as text.
func textID(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
