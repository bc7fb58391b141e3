package mirror

import (
	"context"
	"sync"

	"ride-relay/internal/mylogger"
	messagebrokerdto "ride-relay/internal/relay-service/core/domain/message_broker_dto"
	"ride-relay/internal/relay-service/core/ports"
)

const (
	// routing key prefixes on the relay exchange
	driverStatus    = "driver.status."
	driverLocations = "driver.location."

	DefaultBuffer = 1024
)

type event struct {
	routingKey string
	body       any
}

// Mirror copies driver events to the message broker. Enqueueing never
// blocks: events that do not fit in the buffer are dropped.
type Mirror struct {
	log      mylogger.Logger
	broker   ports.IRelayBroker
	exchange string
	events   chan event
	wg       sync.WaitGroup
}

var _ ports.IEventMirror = (*Mirror)(nil)

func New(log mylogger.Logger, broker ports.IRelayBroker, exchange string, buffer int) *Mirror {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Mirror{
		log:      log,
		broker:   broker,
		exchange: exchange,
		events:   make(chan event, buffer),
	}
}

// Run publishes queued events until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	m.wg.Add(1)
	go m.work(ctx)
}

// Wait blocks until the worker started by Run has exited.
func (m *Mirror) Wait() {
	m.wg.Wait()
}

func (m *Mirror) work(ctx context.Context) {
	log := m.log.Action("mirror_work")
	defer func() {
		log.Info("mirror worker is done")
		m.wg.Done()
	}()
	for {
		select {
		case ev := <-m.events:
			if err := m.broker.PublishJSON(ctx, m.exchange, ev.routingKey, ev.body); err != nil {
				log.Error("cannot publish event", err, "routing-key", ev.routingKey)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Mirror) DriverStatus(ev messagebrokerdto.DriverStatusEvent) {
	m.enqueue(event{routingKey: driverStatus + ev.DriverID, body: ev})
}

func (m *Mirror) DriverLocation(ev messagebrokerdto.LocationEvent) {
	m.enqueue(event{routingKey: driverLocations + ev.DriverID, body: ev})
}

func (m *Mirror) enqueue(ev event) {
	select {
	case m.events <- ev:
	default:
		m.log.Action("mirror_enqueue").Warn("mirror buffer full, dropping event", "routing-key", ev.routingKey)
	}
}
