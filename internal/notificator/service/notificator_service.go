package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
)

const consumerTag = "notificator"

type Subscription interface {
	DeclareNotifications(exchange, queue string) error
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error)
	Cancel(consumer string) error
}

type NotificatorService struct {
	sub      Subscription
	exchange string
	queue    string
	lg       *logger.Logger
}

func NewNotificatorService(sub Subscription, exchange, queue string, lg *logger.Logger) *NotificatorService {
	return &NotificatorService{sub: sub, exchange: exchange, queue: queue, lg: lg}
}

// Run consumes until ctx is done or the broker closes the delivery channel.
func (ns *NotificatorService) Run(ctx context.Context) error {
	if err := ns.sub.DeclareNotifications(ns.exchange, ns.queue); err != nil {
		return err
	}
	msgs, err := ns.sub.Consume(ns.queue, consumerTag, 10)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ns.queue, err)
	}
	ns.lg.Info("notificator_started", map[string]any{"queue": ns.queue, "exchange": ns.exchange})

	for {
		select {
		case <-ctx.Done():
			_ = ns.sub.Cancel(consumerTag)
			ns.lg.Info("graceful_shutdown", map[string]any{"queue": ns.queue})
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			ns.handle(d)
		}
	}
}

func (ns *NotificatorService) handle(d amqp.Delivery) {
	ev, err := Decode(d.Body)
	if err != nil {
		ns.lg.Error("notification_malformed", err, map[string]any{"message_id": d.MessageId})
		_ = d.Nack(false, false)
		return
	}
	ns.lg.Info("notification_received", map[string]any{
		"request_id": d.MessageId,
		"order_id":   ev.OrderID,
		"old_status": ev.OldStatus,
		"new_status": ev.NewStatus,
		"changed_by": ev.ChangedBy,
		"text":       fmt.Sprintf("Order #%d is now %s", ev.OrderID, ev.NewStatus),
	})
	_ = d.Ack(false)
}

func Decode(body []byte) (domain.StatusChangedEvent, error) {
	var ev domain.StatusChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("decode status event: %w", err)
	}
	if ev.OrderID <= 0 || !ev.NewStatus.Valid() {
		return ev, fmt.Errorf("invalid status event for order %d", ev.OrderID)
	}
	return ev, nil
}
