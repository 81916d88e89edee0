package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeCourierPositions(ctx context.Context, handler func(ctx context.Context, cp *domain.CourierPosition) error) error {
	sub, err := s.js.Subscribe("market.courier.>", func(msg *nats.Msg) {
		var cp domain.CourierPosition
		if err := json.Unmarshal(msg.Data, &cp); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &cp); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("courier-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeDeliveryRequests(ctx context.Context, handler func(ctx context.Context, d *domain.Delivery) error) error {
	sub, err := s.js.Subscribe("market.delivery.requested.>", func(msg *nats.Msg) {
		var d domain.Delivery
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &d); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("dispatch-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
