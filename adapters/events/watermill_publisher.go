package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/turfbook/ports"
)

const (
	LogoutTopic    = "turf.auth.logout"
	RefreshedTopic = "turf.auth.refreshed"
)

// LogoutEvent is published when the credential pair is destroyed
type LogoutEvent struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// RefreshedEvent is published after a successful access token refresh
type RefreshedEvent struct {
	At time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, reason string) error {
	return p.publish(ctx, LogoutTopic, LogoutEvent{Reason: reason, At: time.Now().UTC()})
}

// PublishTokenRefreshed publishes a refreshed event
func (p *WatermillPublisher) PublishTokenRefreshed(ctx context.Context) error {
	return p.publish(ctx, RefreshedTopic, RefreshedEvent{At: time.Now().UTC()})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Nop discards every event
type Nop struct{}

func (Nop) PublishLogout(context.Context, string) error { return nil }
func (Nop) PublishTokenRefreshed(context.Context) error { return nil }
