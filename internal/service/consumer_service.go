package service

import (
	"context"
	"encoding/json"

	"document-qa-be/internal/pkg/logger"
	"document-qa-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventDelivery pushes real-time updates out. Implemented by the
// WebSocket hub.
type EventDelivery interface {
	Broadcast(payload interface{})
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process event bus and fans domain events
// out to connected clients so open tabs see uploads and answers land
// without polling.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  EventDelivery
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery EventDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var evt events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", "Event received", map[string]interface{}{
		"type": evt.Type,
	})

	if cs.delivery != nil {
		cs.delivery.Broadcast(evt)
	}
	msg.Ack()
}
