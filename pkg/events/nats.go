package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Bus is a NATS connection that announces blocks and wakes viewers when
// blocks arrive.
type Bus struct {
	conn *nats.Conn
}

// Connect dials url under the client name. The connection retries
// forever; drops and recoveries are logged.
func Connect(url, name string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("events: lost %s: %v", url, err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("events: back on %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &Bus{conn: nc}, nil
}

// Publish sends event as JSON on topic.
func (b *Bus) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", topic, err)
	}
	return b.conn.Publish(topic, data)
}

// Signal sends on the returned channel whenever a message arrives on
// topic; payloads are ignored and untaken signals merge into one. The
// subscription ends with ctx. The channel is never closed.
func (b *Bus) Signal(ctx context.Context, topic string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	sub, err := b.conn.Subscribe(topic, func(*nats.Msg) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	context.AfterFunc(ctx, func() {
		_ = sub.Unsubscribe()
	})
	return ch, nil
}

// Close flushes pending publishes and closes the connection.
func (b *Bus) Close() error {
	return b.conn.Drain()
}
