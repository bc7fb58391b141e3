package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/core/domain/model"
	websocketdto "ride-relay/internal/relay-service/core/domain/websocket_dto"
)

// DriverService plays one driver against the relay.
type DriverService struct {
	driverID string
	wsClient *WebSocketClient
	logger   mylogger.Logger
	ctx      context.Context

	mu         sync.Mutex
	location   Location
	customerID string
	rideID     json.RawMessage
	rideTicks  int
}

func NewDriverService(ctx context.Context, driverID string, start Location, logger mylogger.Logger) *DriverService {
	return &DriverService{
		driverID: driverID,
		wsClient: NewWebSocketClient(ctx, logger),
		logger:   logger.With("driver-id", driverID),
		ctx:      ctx,
		location: start,
	}
}

func (d *DriverService) outbound(msgType string, fields map[string]any) map[string]any {
	msg := map[string]any{
		"type": msgType,
		"role": string(model.RoleDriver),
	}
	for k, v := range fields {
		msg[k] = v
	}
	return msg
}

func (d *DriverService) GoOnline() error {
	if err := d.wsClient.SendMessage(map[string]any{
		"type": websocketdto.TypeRegister,
		"role": string(model.RoleDriver),
		"id":   d.driverID,
	}); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := d.wsClient.SendMessage(d.outbound(websocketdto.TypeOnDuty, map[string]any{"driverId": d.driverID})); err != nil {
		return fmt.Errorf("on duty: %w", err)
	}
	d.logger.Action("go_online").Info("driver on duty")
	return nil
}

func (d *DriverService) GoOffline() error {
	return d.wsClient.SendMessage(d.outbound(websocketdto.TypeRiderLogout, map[string]any{"driverId": d.driverID}))
}

// StreamLocation sends a location update every interval until ctx is done.
func (d *DriverService) StreamLocation(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.step(); err != nil {
				d.logger.Error("location update failed", err)
			}
		}
	}
}

func (d *DriverService) step() error {
	d.mu.Lock()
	d.location.Latitude += (rand.Float64() - 0.5) / 1000
	d.location.Longitude += (rand.Float64() - 0.5) / 1000
	loc := d.location

	var endRide bool
	var customerID string
	var rideID json.RawMessage
	if d.customerID != "" && d.rideTicks > 0 {
		d.rideTicks--
		if d.rideTicks == 0 {
			endRide = true
			customerID, rideID = d.customerID, d.rideID
			d.customerID, d.rideID = "", nil
		}
	}
	d.mu.Unlock()

	if err := d.wsClient.SendMessage(d.outbound(websocketdto.TypeRiderLocationUpdate, map[string]any{
		"driverId": d.driverID,
		"location": loc,
	})); err != nil {
		return err
	}

	if endRide {
		d.logger.Action("journey_ends").Info("ride finished", "customer-id", customerID)
		return d.wsClient.SendMessage(d.outbound(websocketdto.TypeJourneyEnds, map[string]any{
			"customer_id": customerID,
			"id":          rideID,
		}))
	}
	return nil
}

// HandleMessage reacts to what the relay sends this driver.
func (d *DriverService) HandleMessage(payload []byte) error {
	var head struct {
		Type        string          `json:"type"`
		RideDetails json.RawMessage `json:"rideDetails"`
		OTP         json.RawMessage `json:"otp"`
		ID          json.RawMessage `json:"id"`
		Status      string          `json:"status"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	switch head.Type {
	case websocketdto.TypeNewRideOffer:
		return d.acceptOffer(head.RideDetails)
	case websocketdto.TypeOTP:
		return d.beginJourney(head.OTP)
	case "":
		if head.Status != "" {
			d.logger.Warn("relay reported a failure", "status", head.Status)
		}
	default:
		d.logger.Debug("ignoring message", "type", head.Type)
	}
	return nil
}

func (d *DriverService) acceptOffer(raw json.RawMessage) error {
	var details struct {
		CustomerID string          `json:"customer_id"`
		RideID     json.RawMessage `json:"ride_id"`
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return fmt.Errorf("ride details: %w", err)
	}
	if details.CustomerID == "" {
		return fmt.Errorf("ride offer without customer_id")
	}

	d.mu.Lock()
	d.customerID = details.CustomerID
	d.rideID = details.RideID
	d.mu.Unlock()

	log := d.logger.Action("accept_ride_offer").With("customer-id", details.CustomerID)
	log.Info("accepting ride offer")

	fields := map[string]any{"customer_id": details.CustomerID}
	if len(details.RideID) > 0 {
		fields["id"] = details.RideID
	}
	if err := d.wsClient.SendMessage(d.outbound(websocketdto.TypeAcceptRideOffer, fields)); err != nil {
		return err
	}
	return d.wsClient.SendMessage(d.outbound(websocketdto.TypeReached, fields))
}

func (d *DriverService) beginJourney(otp json.RawMessage) error {
	d.mu.Lock()
	customerID, rideID := d.customerID, d.rideID
	d.rideTicks = RideTicks
	d.mu.Unlock()

	if customerID == "" {
		d.logger.Warn("otp without an accepted ride")
		return nil
	}
	d.logger.Action("journey_begins").Info("otp received", "otp", string(otp))

	fields := map[string]any{"customer_id": customerID}
	if len(rideID) > 0 {
		fields["id"] = rideID
	}
	return d.wsClient.SendMessage(d.outbound(websocketdto.TypeJourneyBegins, fields))
}
