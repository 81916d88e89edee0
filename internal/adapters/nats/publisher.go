package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// ErrNotConnected is returned when publishing without a live NATS
// connection, including calls through a nil *Publisher.
var ErrNotConnected = errors.New("nats: not connected")

// Publisher implements ports.EventPublisher using NATS JetStream.
// All methods are safe on a nil receiver: callers that soft-fail the NATS
// connection at startup can hold a typed-nil Publisher without every
// publish becoming a panic.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

func (p *Publisher) live() error {
	if p == nil || p.conn == nil {
		return ErrNotConnected
	}
	return nil
}

// NewPublisher connects to NATS and ensures the marketplace streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "COURIER_POSITIONS",
			Subjects:  []string{"market.courier.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "MARKET_EVENTS",
			Subjects:  []string{"market.delivery.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishCourierPosition(ctx context.Context, cp *domain.CourierPosition) error {
	if err := p.live(); err != nil {
		return err
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("market.courier."+cp.CourierID, data)
	return err
}

func (p *Publisher) PublishDeliveryRequested(ctx context.Context, d *domain.Delivery) error {
	if err := p.live(); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("market.delivery.requested."+d.ID, data)
	return err
}

// PublishBroadcast fans out ephemeral map updates to connected WebSocket
// relays. Plain core NATS: losing a frame only delays the next repaint.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	if err := p.live(); err != nil {
		return err
	}
	return p.conn.Publish("market.routes.broadcast", data)
}

// Ping checks connectivity, used by the readiness probe.
func (p *Publisher) Ping() error {
	if err := p.live(); err != nil {
		return err
	}
	if !p.conn.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
