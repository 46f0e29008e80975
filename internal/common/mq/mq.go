package mq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-client/internal/common/config"
)

var ErrClosed = errors.New("rabbitmq connection is closed")

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation
	mu   sync.Mutex // publishes wait for their own confirm
}

// URL builds the amqp(s) URL for cfg. The vhost is path-escaped so the
// default "/" becomes %2F.
func URL(cfg config.MQ, useTLS bool) string {
	scheme := "amqp"
	if useTLS {
		scheme = "amqps"
	}
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	return fmt.Sprintf("%s://%s@%s:%d/%s",
		scheme, url.UserPassword(cfg.User, cfg.Pass).String(), cfg.Host, cfg.Port, url.PathEscape(vhost))
}

// Dial opens a connection with publisher confirms enabled on its channel.
func Dial(cfg config.MQ) (*Client, error) {
	useTLS := cfg.Port == 5671
	var (
		conn *amqp.Connection
		err  error
	)
	if useTLS {
		conn, err = amqp.DialTLS(URL(cfg, true), &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(URL(cfg, false))
	}
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) Ping() error {
	if c == nil || c.conn == nil || c.conn.IsClosed() {
		return ErrClosed
	}
	return nil
}

// DeclareNotifications declares the fanout exchange and binds queue to it.
// An empty queue only declares the exchange.
func (c *Client) DeclareNotifications(exchange, queue string) error {
	if err := c.Ping(); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", exchange, err)
	}
	if queue == "" {
		return nil
	}
	if _, err := c.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	if err := c.ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
	}
	return nil
}

type Message struct {
	ID            string
	CorrelationID string
	Headers       amqp.Table
	Body          []byte
}

// Publish sends a persistent JSON message and waits for the broker's confirm.
func (c *Client) Publish(ctx context.Context, exchange, key string, m Message) error {
	if err := c.Ping(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := c.ch.GetNextPublishSeqNo()
	if err := c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     m.ID,
		CorrelationId: m.CorrelationID,
		Timestamp:     time.Now().UTC(),
		Headers:       m.Headers,
		Body:          m.Body,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}
	return awaitConfirm(ctx, c.acks, tag)
}

// awaitConfirm waits for the confirm of delivery tag. Confirms left over from
// publishes whose context ended early carry lower tags and are skipped.
func awaitConfirm(ctx context.Context, acks <-chan amqp.Confirmation, tag uint64) error {
	for {
		select {
		case conf, ok := <-acks:
			if !ok {
				return ErrClosed
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if !conf.Ack {
				return errors.New("publish NACK from broker")
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.Ping(); err != nil {
		return nil, err
	}
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}

func (c *Client) Cancel(consumer string) error {
	if c == nil || c.ch == nil {
		return nil
	}
	return c.ch.Cancel(consumer, false)
}
