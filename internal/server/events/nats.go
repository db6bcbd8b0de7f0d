package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Conn wraps a NATS connection with its JetStream context.
type Conn struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Connect dials url and opens a JetStream context on the connection.
func Connect(url string, opts ...nats.Option) (*Conn, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats jetstream: %w", err)
	}

	return &Conn{nc: nc, js: js}, nil
}

// Close drains the connection, falling back to a hard close.
func (c *Conn) Close() {
	if c == nil {
		return
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
	}
}

// Notifier returns a core NATS notifier on this connection.
func (c *Conn) Notifier() *NATSNotifier {
	return NewNATSNotifier(c.nc)
}

// Publisher returns a JetStream publisher on this connection.
func (c *Conn) Publisher() *JetStreamPublisher {
	return NewJetStreamPublisher(c.js)
}

type corePublisher interface {
	Publish(subj string, data []byte) error
}

// NATSNotifier publishes feedback requests on core NATS. Delivery is fire
// and forget: no stream keeps the secret link.
type NATSNotifier struct {
	pub corePublisher
}

func NewNATSNotifier(pub corePublisher) *NATSNotifier {
	return &NATSNotifier{pub: pub}
}

func (n *NATSNotifier) NotifyFeedbackRequest(_ context.Context, notice FeedbackRequestNotice) error {
	if n == nil || n.pub == nil {
		return errors.New("nil notifier")
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	return n.pub.Publish(SubjectFeedbackRequest, data)
}

type streamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// JetStreamPublisher publishes JSON-encoded lifecycle events to JetStream.
type JetStreamPublisher struct {
	js streamPublisher
}

func NewJetStreamPublisher(js streamPublisher) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, v any) error {
	if p == nil || p.js == nil {
		return errors.New("nil publisher")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}
