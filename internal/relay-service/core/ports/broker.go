package ports

import (
	"context"

	messagebrokerdto "ride-relay/internal/relay-service/core/domain/message_broker_dto"
)

type IRelayBroker interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, msg any) error
	IsAlive() bool
	Close() error
}

// IEventMirror receives driver events from the dispatcher. Implementations
// must not block the caller.
type IEventMirror interface {
	DriverStatus(ev messagebrokerdto.DriverStatusEvent)
	DriverLocation(ev messagebrokerdto.LocationEvent)
}
