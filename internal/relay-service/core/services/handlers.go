package services

import (
	"encoding/json"
	"fmt"
	"time"

	"ride-relay/internal/relay-service/core/domain/model"
	messagebrokerdto "ride-relay/internal/relay-service/core/domain/message_broker_dto"
	websocketdto "ride-relay/internal/relay-service/core/domain/websocket_dto"
	"ride-relay/internal/relay-service/core/ports"
)

var now = time.Now

// Every handler below runs with d.mu held.

func (d *Dispatcher) Register(conn ports.Conn, msg *websocketdto.Inbound) error {
	id := msg.IDString()
	if id == "" {
		return fmt.Errorf("register: id: %w", errMissingField)
	}
	identity := model.Identity{Role: model.Role(msg.Role), ID: id}

	log := d.log.Action("register").With("role", identity.Role, "id", identity.ID)
	if evicted := d.registry.Register(conn, identity); evicted != nil {
		log.Warn("duplicate connection removed")
	}
	log.Info("registered", "connections", d.registry.Len())
	return nil
}

func (d *Dispatcher) RiderLocationUpdate(conn ports.Conn, msg *websocketdto.Inbound) error {
	driverID := d.driverID(conn, msg)
	if driverID == "" {
		return fmt.Errorf("riderLocationUpdate: driverId: %w", errMissingField)
	}
	if msg.Location == nil {
		return fmt.Errorf("riderLocationUpdate: location: %w", errMissingField)
	}
	loc := *msg.Location

	d.directory.Update(driverID, model.DriverLocation{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Address:   loc.Address,
	})

	sent := d.broadcast(model.RolePassenger, conn, websocketdto.RiderLocationUpdated{
		Type:      websocketdto.TypeRiderLocationUpdated,
		DriverID:  driverID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Address:   loc.Address,
	})
	d.log.Action("rider_location_update").Debug("location relayed", "driver-id", driverID, "recipients", sent)

	d.mirror.DriverLocation(messagebrokerdto.LocationEvent{
		DriverID:  driverID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Address:   loc.Address,
		Timestamp: now(),
	})
	return nil
}

func (d *Dispatcher) GetDriverLocation(conn ports.Conn, msg *websocketdto.Inbound) error {
	driverID := msg.Driver()
	if driverID == "" {
		return fmt.Errorf("getDriverLocation: driverId: %w", errMissingField)
	}

	loc, ok := d.directory.Get(driverID)
	if !ok {
		d.unicast(conn, websocketdto.DriverNotFound{
			Type:     websocketdto.TypeDriverNotFound,
			DriverID: driverID,
			Message:  fmt.Sprintf("Driver with ID %s not found.", driverID),
		})
		return nil
	}

	d.unicast(conn, websocketdto.DriverLocationResponse{
		Type:     websocketdto.TypeDriverLocationResponse,
		DriverID: driverID,
		Location: websocketdto.Location{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Address:   loc.Address,
		},
	})
	return nil
}

// RiderLogout takes the driver off duty and closes its connection.
func (d *Dispatcher) RiderLogout(conn ports.Conn, msg *websocketdto.Inbound) error {
	driverID := d.driverID(conn, msg)
	if driverID == "" {
		return fmt.Errorf("riderLogout: driverId: %w", errMissingField)
	}

	if target, ok := d.registry.Lookup(model.RoleDriver, driverID); ok {
		d.registry.Remove(target)
		_ = target.Close()
	}
	d.driverGone(driverID, "logout")

	d.log.Action("rider_logout").Info("driver logged out", "driver-id", driverID)
	return nil
}

// OffDuty takes the driver off duty; the connection stays registered.
func (d *Dispatcher) OffDuty(conn ports.Conn, msg *websocketdto.Inbound) error {
	driverID := d.driverID(conn, msg)
	if driverID == "" {
		return fmt.Errorf("offDuty: driverId: %w", errMissingField)
	}

	d.driverGone(driverID, "off_duty")

	d.log.Action("off_duty").Info("driver off duty", "driver-id", driverID)
	return nil
}

// OnDuty binds the sender to the driver identity, evicting any other
// connection that held it, and announces the driver to passengers.
func (d *Dispatcher) OnDuty(conn ports.Conn, msg *websocketdto.Inbound) error {
	driverID := d.driverID(conn, msg)
	if driverID == "" {
		return fmt.Errorf("onDuty: driverId: %w", errMissingField)
	}

	log := d.log.Action("on_duty").With("driver-id", driverID)
	if evicted := d.registry.Register(conn, model.Identity{Role: model.RoleDriver, ID: driverID}); evicted != nil {
		log.Warn("duplicate connection removed")
	}

	d.broadcast(model.RolePassenger, nil, websocketdto.DriverOnDuty{
		Type: websocketdto.TypeDriverOnDuty,
		ID:   driverID,
	})
	d.mirror.DriverStatus(messagebrokerdto.DriverStatusEvent{
		DriverID:  driverID,
		Status:    messagebrokerdto.DriverStatusOnline,
		Reason:    "on_duty",
		Timestamp: now(),
	})

	log.Info("driver on duty")
	return nil
}

func (d *Dispatcher) CustomerLogout(conn ports.Conn, msg *websocketdto.Inbound) error {
	customerID := msg.IDString()
	if customerID == "" {
		if id, ok := d.registry.LookupByConn(conn); ok && id.Role == model.RolePassenger {
			customerID = id.ID
		}
	}
	if customerID == "" {
		return fmt.Errorf("customerLogout: id: %w", errMissingField)
	}

	if target, ok := d.registry.Lookup(model.RolePassenger, customerID); ok {
		d.registry.Remove(target)
		_ = target.Close()
	}

	d.log.Action("customer_logout").Info("customer logged out", "customer-id", customerID)
	return nil
}

// RideOffer forwards a passenger's ride request to the named driver. This
// route always answers {status:"error"} when the driver is not connected.
func (d *Dispatcher) RideOffer(conn ports.Conn, msg *websocketdto.Inbound) error {
	if len(msg.RideDetails) == 0 {
		return fmt.Errorf("rideOffer: rideDetails: %w", errMissingField)
	}
	var details websocketdto.RideDetails
	if err := json.Unmarshal(msg.RideDetails, &details); err != nil {
		return fmt.Errorf("rideOffer: rideDetails: %w", err)
	}
	if details.Status != websocketdto.RideStatusOffer {
		return fmt.Errorf("rideOffer: status %q is not an offer", details.Status)
	}
	driverID := details.Target()
	if driverID == "" {
		return fmt.Errorf("rideOffer: rider_id: %w", errMissingField)
	}

	log := d.log.Action("ride_offer").With("driver-id", driverID)
	target, ok := d.registry.Lookup(model.RoleDriver, driverID)
	if !ok {
		log.Info("driver not connected", "drivers", d.registry.Count(model.RoleDriver))
		d.notFound(conn)
		return nil
	}

	d.unicast(target, websocketdto.NewRideOffer{
		Type:        websocketdto.TypeNewRideOffer,
		RideDetails: msg.RideDetails,
	})
	log.Info("ride offer sent")
	return nil
}

func (d *Dispatcher) ProvidingOTP(conn ports.Conn, msg *websocketdto.Inbound) error {
	driverID := msg.Driver()
	if driverID == "" {
		return fmt.Errorf("providingOTP: driver_id: %w", errMissingField)
	}

	target, ok := d.registry.Lookup(model.RoleDriver, driverID)
	if !ok {
		d.unicastMissed(conn, websocketdto.TypeOTP, driverID)
		return nil
	}

	d.unicast(target, websocketdto.OTP{
		Type: websocketdto.TypeOTP,
		OTP:  msg.OTP,
		ID:   msg.ID,
	})
	return nil
}

// toCustomer builds the handler for driver-to-passenger ride notices that
// carry only the ride id.
func (d *Dispatcher) toCustomer(outType string) EventHandle {
	return func(conn ports.Conn, msg *websocketdto.Inbound) error {
		customerID := msg.Customer()
		if customerID == "" {
			return fmt.Errorf("%s: customer_id: %w", outType, errMissingField)
		}

		target, ok := d.registry.Lookup(model.RolePassenger, customerID)
		if !ok {
			d.unicastMissed(conn, outType, customerID)
			return nil
		}

		d.unicast(target, websocketdto.RideEvent{
			Type: outType,
			ID:   msg.ID,
		})
		return nil
	}
}

// unicastMissed handles a ride notice whose target is gone. The notice is
// dropped; with UniformNotFound the sender gets {status:"error"}.
func (d *Dispatcher) unicastMissed(conn ports.Conn, outType, targetID string) {
	d.log.Action("unicast").Debug("target not connected", "type", outType, "target", targetID)
	if d.uniformNotFound {
		d.notFound(conn)
	}
}
