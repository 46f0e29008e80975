package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-client/internal/common/mq"
	"restaurant-client/internal/domain"
)

type PublisherInterface interface {
	PublishStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error
}

type Broker interface {
	Publish(ctx context.Context, exchange, key string, m mq.Message) error
}

type Publisher struct {
	broker   Broker
	exchange string
}

func NewPublisher(b Broker, exchange string) *Publisher {
	return &Publisher{broker: b, exchange: exchange}
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	return p.broker.Publish(ctx, p.exchange, "", mq.Message{
		ID:            uuid.NewString(),
		CorrelationID: strconv.FormatInt(ev.OrderID, 10),
		Headers: amqp.Table{
			"x-source":     "kitchen-dashboard",
			"x-changed-by": ev.ChangedBy,
		},
		Body: body,
	})
}

// Noop is used when rabbitmq is disabled.
type Noop struct{}

func (Noop) PublishStatusChanged(context.Context, domain.StatusChangedEvent) error { return nil }
