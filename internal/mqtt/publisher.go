package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/afcommunity/fieldmap/internal/events"
	"github.com/afcommunity/fieldmap/internal/logger"
)

// Publisher is the event bus consumer that forwards record events to the
// broker, one topic per record kind.
type Publisher struct {
	client Client
	topic  string
	log    logger.Logger
}

// NewPublisher returns a consumer publishing under topic.
func NewPublisher(client Client, topic string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Global().Module("mqtt")
	}
	return &Publisher{client: client, topic: topic, log: log}
}

// Name implements events.Consumer.
func (p *Publisher) Name() string { return "mqtt" }

// Topic returns the topic an event is published to.
func (p *Publisher) Topic(ev events.RecordEvent) string {
	return p.topic + "/" + ev.Ref.Kind.String()
}

// ProcessEvent implements events.Consumer. A disconnected client gets one
// connection attempt per event.
func (p *Publisher) ProcessEvent(ev events.RecordEvent) error {
	payload, err := json.Marshal(NewRecordEventDTO(ev))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}

	ctx := context.Background()
	if !p.client.IsConnected() {
		if err := p.client.Connect(ctx); err != nil {
			return err
		}
	}

	topic := p.Topic(ev)
	if err := p.client.Publish(ctx, topic, payload); err != nil {
		return err
	}
	p.log.Debug("record event forwarded",
		logger.String("topic", topic),
		logger.String("ref", ev.Ref.String()))
	return nil
}
