// Package events publishes domain events (registrations, verified payments)
// to NATS for downstream consumers such as notifications and accounting.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectUserRegistered  = "greenbond.user.registered"
	SubjectPaymentVerified = "greenbond.payment.verified"
)

// UserRegistered is published after a successful registration.
type UserRegistered struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	UserType   string    `json:"user_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentVerified is published once per order when its payment verifies.
type PaymentVerified struct {
	OrderID     string    `json:"order_id"`
	PaymentID   string    `json:"payment_id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	UserID      string    `json:"user_id,omitempty"`
	BondID      string    `json:"bond_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

type natsConn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher sends JSON-encoded events over a core NATS connection.
type NATSPublisher struct {
	conn natsConn
}

func NewNATSPublisher(conn natsConn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("greenbond-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return nc, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Nop drops every event. Used when NATS is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = Nop{}
)
