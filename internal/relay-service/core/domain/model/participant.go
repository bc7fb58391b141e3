package model

// Role is the participant class as spelled on the wire.
type Role string

const (
	RoleDriver    Role = "rider"
	RolePassenger Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleDriver || r == RolePassenger
}

// Identity names a participant. At most one live connection holds a given
// Identity at a time.
type Identity struct {
	Role Role
	ID   string
}

// DriverLocation is the last position reported by an on-duty driver.
type DriverLocation struct {
	DriverID  string
	Latitude  float64
	Longitude float64
	Address   string
}
