package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lithammer/shortuuid/v3"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

const (
	correlationIDKey = "correlation_id"
	nameKey          = "name"
)

// Bus publishes domain events as JSON, one topic per event name.
type Bus struct {
	publisher message.Publisher
}

// NewBus constructs a Bus.
func NewBus(publisher message.Publisher) *Bus {
	return &Bus{publisher: publisher}
}

// Publish sends event to the topic named after it.
func (b *Bus) Publish(ctx context.Context, event model.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}

	correlationID := log.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = shortuuid.New()
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(correlationIDKey, correlationID)
	msg.Metadata.Set(nameKey, event.EventName())
	msg.SetContext(ctx)

	if err := b.publisher.Publish(event.EventName(), msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventName(), err)
	}
	return nil
}
