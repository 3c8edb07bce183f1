package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"procurement-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishLaneTransition publishes a LaneTransition event, keyed by lane
// so a lane's audit trail stays ordered
func (ep *EventPublisher) PublishLaneTransition(ctx context.Context, event *models.LaneTransitionEvent) error {
	key := fmt.Sprintf("lane-%s-%s", event.Country, event.Category)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBidPriced publishes a BidPriced event
func (ep *EventPublisher) PublishBidPriced(ctx context.Context, event *models.BidPricedEvent) error {
	key := fmt.Sprintf("bid-%d", event.BidID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishDemandSignal publishes a DemandSignal event
func (ep *EventPublisher) PublishDemandSignal(ctx context.Context, event *models.DemandSignalEvent) error {
	key := fmt.Sprintf("lane-%s-%s", event.Country, event.Category)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onDemandSignal func(context.Context, *models.DemandSignalEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnDemandSignal registers a handler for DemandSignal events
func (eh *EventHandler) OnDemandSignal(handler func(context.Context, *models.DemandSignalEvent) error) {
	eh.onDemandSignal = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeDemandSignal:
		if eh.onDemandSignal != nil {
			var event models.DemandSignalEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DemandSignal event: %w", err)
			}
			return eh.onDemandSignal(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
