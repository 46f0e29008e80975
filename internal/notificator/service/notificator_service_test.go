package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/common/mq"
	"restaurant-client/internal/domain"
)

type ackRecorder struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

type fakeSubscription struct {
	declared []string
	msgs     chan amqp.Delivery
	canceled bool
}

func (f *fakeSubscription) DeclareNotifications(exchange, queue string) error {
	f.declared = append(f.declared, exchange, queue)
	return nil
}

func (f *fakeSubscription) Consume(string, string, int) (<-chan amqp.Delivery, error) {
	return f.msgs, nil
}

func (f *fakeSubscription) Cancel(string) error {
	f.canceled = true
	return nil
}

type fakeBroker struct {
	exchange string
	msg      mq.Message
	err      error
}

func (f *fakeBroker) Publish(_ context.Context, exchange, _ string, m mq.Message) error {
	f.exchange = exchange
	f.msg = m
	return f.err
}

func statusEvent() domain.StatusChangedEvent {
	return domain.StatusChangedEvent{
		OrderID:   7,
		OldStatus: domain.StatusPending,
		NewStatus: domain.StatusAccepted,
		ChangedBy: "chef",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublisherSendsEventToExchange(t *testing.T) {
	b := &fakeBroker{}
	p := NewPublisher(b, "notifications_fanout")

	if err := p.PublishStatusChanged(context.Background(), statusEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if b.exchange != "notifications_fanout" || b.msg.ID == "" || b.msg.CorrelationID != "7" {
		t.Fatalf("unexpected publish %q %+v", b.exchange, b.msg)
	}
	ev, err := Decode(b.msg.Body)
	want := statusEvent()
	if err != nil || ev.OrderID != want.OrderID || ev.NewStatus != want.NewStatus ||
		ev.ChangedBy != want.ChangedBy || !ev.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("round trip mismatch %+v err=%v", ev, err)
	}
}

func TestDecodeRejectsBadEvents(t *testing.T) {
	for _, body := range []string{`{`, `{"order_id":0,"new_status":"ready"}`, `{"order_id":3,"new_status":"burnt"}`} {
		if _, err := Decode([]byte(body)); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestRunAcksValidAndDropsMalformed(t *testing.T) {
	var buf bytes.Buffer
	sub := &fakeSubscription{msgs: make(chan amqp.Delivery, 2)}
	ns := NewNotificatorService(sub, "notifications_fanout", "notifications.q",
		logger.NewWithWriter("notificator", &buf, "info"))

	good, _ := json.Marshal(statusEvent())
	okAck, badAck := &ackRecorder{}, &ackRecorder{}
	sub.msgs <- amqp.Delivery{Acknowledger: okAck, Body: good, MessageId: "m-1"}
	sub.msgs <- amqp.Delivery{Acknowledger: badAck, Body: []byte("nope"), MessageId: "m-2"}
	close(sub.msgs)

	err := ns.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error when broker closes deliveries")
	}
	if okAck.acked != 1 || okAck.nacked != 0 {
		t.Fatalf("valid message: %+v", okAck)
	}
	if badAck.nacked != 1 || badAck.requeue {
		t.Fatalf("malformed message must be dropped: %+v", badAck)
	}
	if len(sub.declared) != 2 || sub.declared[1] != "notifications.q" {
		t.Fatalf("unexpected declarations %v", sub.declared)
	}
	if !strings.Contains(buf.String(), `"action":"notification_received"`) {
		t.Fatalf("expected received log, got %s", buf.String())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	sub := &fakeSubscription{msgs: make(chan amqp.Delivery)}
	ns := NewNotificatorService(sub, "x", "q", logger.NewWithWriter("t", io.Discard, "error"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ns.Run(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if !sub.canceled {
		t.Fatalf("consumer should be cancelled")
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := (Noop{}).PublishStatusChanged(context.Background(), statusEvent()); err != nil {
		t.Fatalf("noop: %v", err)
	}
	var _ PublisherInterface = Noop{}
	var _ PublisherInterface = NewPublisher(&fakeBroker{err: errors.New("x")}, "x")
}
