package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/core/domain/model"
	messagebrokerdto "ride-relay/internal/relay-service/core/domain/message_broker_dto"
	websocketdto "ride-relay/internal/relay-service/core/domain/websocket_dto"
	"ride-relay/internal/relay-service/core/ports"
)

// errMissingField marks a message that matched a route but lacks a field the
// route needs. Such messages are ignored like unknown ones.
var errMissingField = errors.New("missing required field")

type EventHandle func(conn ports.Conn, msg *websocketdto.Inbound) error

type route struct {
	// role is the sender role the route accepts; empty accepts either.
	role   model.Role
	handle EventHandle
}

func (r route) accepts(role model.Role) bool {
	if r.role == "" {
		return role.Valid()
	}
	return r.role == role
}

type Options struct {
	// UniformNotFound makes every unicast route reply {status:"error"} when
	// its target is not connected, not only rideOffer.
	UniformNotFound bool
	Mirror          ports.IEventMirror
}

// Dispatcher owns the Registry and the Directory and routes inbound messages
// between participants. One mutex serializes every message and disconnect.
type Dispatcher struct {
	mu        sync.Mutex
	log       mylogger.Logger
	registry  *Registry
	directory *Directory
	mirror    ports.IEventMirror
	handlers  map[string]route

	uniformNotFound bool
}

var _ ports.IDispatcher = (*Dispatcher)(nil)

func NewDispatcher(log mylogger.Logger, opts Options) *Dispatcher {
	d := &Dispatcher{
		log:             log,
		registry:        NewRegistry(),
		directory:       NewDirectory(),
		mirror:          opts.Mirror,
		uniformNotFound: opts.UniformNotFound,
	}
	if d.mirror == nil {
		d.mirror = noopMirror{}
	}
	d.initHandlers()
	return d
}

func (d *Dispatcher) initHandlers() {
	d.handlers = map[string]route{
		websocketdto.TypeRegister:            {"", d.Register},
		websocketdto.TypeRiderLocationUpdate: {model.RoleDriver, d.RiderLocationUpdate},
		websocketdto.TypeGetDriverLocation:   {model.RolePassenger, d.GetDriverLocation},
		websocketdto.TypeRiderLogout:         {model.RoleDriver, d.RiderLogout},
		websocketdto.TypeOffDuty:             {model.RoleDriver, d.OffDuty},
		websocketdto.TypeOnDuty:              {model.RoleDriver, d.OnDuty},
		websocketdto.TypeCustomerLogout:      {model.RolePassenger, d.CustomerLogout},
		websocketdto.TypeRideOffer:           {model.RolePassenger, d.RideOffer},
		websocketdto.TypeRejectRideOffer:     {model.RoleDriver, d.toCustomer(websocketdto.TypeRideOfferRejected)},
		websocketdto.TypeAcceptRideOffer:     {model.RoleDriver, d.toCustomer(websocketdto.TypeRideOfferAccepted)},
		websocketdto.TypeReached:             {model.RoleDriver, d.toCustomer(websocketdto.TypeDriverReached)},
		websocketdto.TypeProvidingOTP:        {model.RolePassenger, d.ProvidingOTP},
		websocketdto.TypeJourneyBegins:       {model.RoleDriver, d.toCustomer(websocketdto.TypeRideBegins)},
		websocketdto.TypeJourneyEnds:         {model.RoleDriver, d.toCustomer(websocketdto.TypeRideEnded)},
	}
}

// HandleMessage parses raw and runs the matching route. Malformed payloads,
// unknown types and role mismatches are dropped without a reply.
func (d *Dispatcher) HandleMessage(conn ports.Conn, raw []byte) {
	log := d.log.Action("handle_message")

	var msg websocketdto.Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn("discarding malformed message", "error", err.Error(), "size", len(raw))
		return
	}

	r, ok := d.handlers[msg.Type]
	if !ok || !r.accepts(model.Role(msg.Role)) {
		log.Debug("ignoring message", "type", msg.Type, "role", msg.Role)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := r.handle(conn, &msg); err != nil {
		log.Debug("ignoring message", "type", msg.Type, "role", msg.Role, "reason", err.Error())
	}
}

// HandleDisconnect cleans up after a closed connection. Connections that were
// already removed, by eviction or logout, are ignored, so it is safe to call
// more than once.
func (d *Dispatcher) HandleDisconnect(conn ports.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.registry.Remove(conn)
	if !ok {
		return
	}
	log := d.log.Action("disconnect").With("role", id.Role, "id", id.ID)
	log.Info("participant disconnected")

	if id.Role == model.RoleDriver {
		d.driverGone(id.ID, "disconnect")
	}
}

// driverGone removes the driver from the directory and tells every passenger.
func (d *Dispatcher) driverGone(driverID, reason string) {
	d.directory.Delete(driverID)
	d.broadcast(model.RolePassenger, nil, websocketdto.DriverOffline{
		Type:     websocketdto.TypeDriverOffline,
		DriverID: driverID,
	})
	d.mirror.DriverStatus(messagebrokerdto.DriverStatusEvent{
		DriverID:  driverID,
		Status:    messagebrokerdto.DriverStatusOffline,
		Reason:    reason,
		Timestamp: now(),
	})
}

// driverID resolves the driver a message is about, falling back to the
// sender's own driver identity.
func (d *Dispatcher) driverID(conn ports.Conn, msg *websocketdto.Inbound) string {
	if id := msg.Driver(); id != "" {
		return id
	}
	if id, ok := d.registry.LookupByConn(conn); ok && id.Role == model.RoleDriver {
		return id.ID
	}
	return ""
}

func (d *Dispatcher) send(conn ports.Conn, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", msg, err)
	}
	return conn.Send(payload)
}

func (d *Dispatcher) unicast(conn ports.Conn, msg any) {
	if err := d.send(conn, msg); err != nil {
		d.log.Action("unicast").Debug("send failed", "error", err.Error())
	}
}

// broadcast sends msg to every connection of role except skip. Failed sends
// are logged and skipped. It returns the number of successful sends.
func (d *Dispatcher) broadcast(role model.Role, skip ports.Conn, msg any) int {
	log := d.log.Action("broadcast")

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error("cannot marshal broadcast", err)
		return 0
	}

	sent := 0
	d.registry.ForEachOfRole(role, func(conn ports.Conn, id model.Identity) {
		if conn == skip {
			return
		}
		if err := conn.Send(payload); err != nil {
			log.Debug("send failed", "id", id.ID, "error", err.Error())
			return
		}
		sent++
	})
	return sent
}

// notFound answers a sender whose unicast target is not connected.
func (d *Dispatcher) notFound(conn ports.Conn) {
	d.unicast(conn, websocketdto.ErrorReply)
}

type noopMirror struct{}

func (noopMirror) DriverStatus(messagebrokerdto.DriverStatusEvent) {}
func (noopMirror) DriverLocation(messagebrokerdto.LocationEvent)   {}
