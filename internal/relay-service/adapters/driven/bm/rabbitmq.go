package bm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ride-relay/internal/config"
	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RelayExchangeName = "relay_topic" // topic
	reconnInterval    = 5             // seconds
	publishTimeout    = 3 * time.Second
)

var ErrBrokerClosed = errors.New("amqp closed")

type RabbitMQ struct {
	ctx          context.Context
	cfg          config.RabbitMqconfig
	log          mylogger.Logger
	conn         *amqp.Connection
	ch           *amqp.Channel
	exchanges    map[string]bool
	reconnecting bool
	mu           sync.Mutex
}

var _ ports.IRelayBroker = (*RabbitMQ)(nil)

func New(ctx context.Context, rabbitmqCfg config.RabbitMqconfig, log mylogger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:       ctx,
		cfg:       rabbitmqCfg,
		log:       log,
		exchanges: make(map[string]bool),
	}
	if err := r.connect(); err != nil {
		return nil, fmt.Errorf("rabbit connect: %w", err)
	}
	return r, nil
}

func (r *RabbitMQ) PublishJSON(ctx context.Context, exchange, routingKey string, msg any) error {
	if !r.IsAlive() {
		r.log.Action("publish").Error("amqp not alive", ErrBrokerClosed)
		go r.reconnect(r.ctx)
		return ErrBrokerClosed
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureExchange(exchange); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	pubctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.ch.PublishWithContext(pubctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil || r.conn.IsClosed() {
		return false
	}
	if r.ch == nil || r.ch.IsClosed() {
		return false
	}
	return true
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}

// ensureExchange declares name once per channel. Callers hold r.mu.
func (r *RabbitMQ) ensureExchange(name string) error {
	if r.exchanges[name] {
		return nil
	}
	if err := r.ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	r.exchanges[name] = true
	return nil
}

func (r *RabbitMQ) connect() error {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		r.cfg.User, r.cfg.Password, r.cfg.Host, r.cfg.Port, r.cfg.VHost,
	)
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
	r.ch = ch
	r.exchanges = make(map[string]bool)
	if err := r.ensureExchange(RelayExchangeName); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	return nil
}

func (r *RabbitMQ) reconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(time.Duration(reconnInterval) * time.Second)
	defer t.Stop()
	l := r.log.Action("mb_reconnecting")

	for {
		select {
		case <-t.C:
			if err := r.connect(); err == nil {
				l.Action("mb_reconnection_completed").Info("reconnected")
				return
			}
			l.Info("reconnect failed")
		case <-ctx.Done():
			return
		}
	}
}
