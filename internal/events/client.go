package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"voxpense/internal/log"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// Client is a durable direct-exchange AMQP client. The consumer side
// reconnects with exponential backoff; the publisher side reports
// errors to the caller, who treats them as non-fatal.
type Client struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	url      string
	exchange string
	queue    string
	logger   *log.Logger
}

func NewClient(url, exchange, queue string, logger *log.Logger) (*Client, error) {
	c := &Client{
		url:      url,
		exchange: exchange,
		queue:    queue,
		logger:   logger.WithComponent(log.ComponentEvents),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("bind queue: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publish sends a ledger event. Callers treat failures as non-fatal:
// the ledger is already committed when this runs.
func (c *Client) Publish(ctx context.Context, event *LedgerEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	err = channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		if isConnectionError(err) {
			if rerr := c.connect(); rerr == nil {
				return c.retryPublish(ctx, body)
			}
		}
		return fmt.Errorf("publish event: %w", err)
	}

	c.logger.InfoContext(ctx, "published ledger event",
		log.FieldEventKind, event.Kind,
		log.FieldExpenseID, event.ExpenseID)
	return nil
}

func (c *Client) retryPublish(ctx context.Context, body []byte) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	err := channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event after reconnect: %w", err)
	}
	return nil
}

// Consume delivers ledger events to handler until ctx is cancelled.
// Handler errors nack with requeue; connection loss triggers reconnect
// with exponential backoff.
func (c *Client) Consume(ctx context.Context, handler func(*LedgerEvent) error) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.consumeOnce(ctx, handler)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		delay := exponentialBackoff(attempt)
		attempt++
		c.logger.WarnContext(ctx, "consumer disconnected, reconnecting",
			log.FieldError, err.Error(), "backoff", delay.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if rerr := c.connect(); rerr != nil {
			c.logger.WarnContext(ctx, "reconnect failed", log.FieldError, rerr.Error())
			continue
		}
		attempt = 0
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(*LedgerEvent) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	deliveries, err := channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			event, err := LedgerEventFromJSON(d.Body)
			if err != nil {
				c.logger.WarnContext(ctx, "dropping malformed event", log.FieldError, err.Error())
				d.Nack(false, false)
				continue
			}
			if err := handler(event); err != nil {
				c.logger.WarnContext(ctx, "event handler failed, requeueing",
					log.FieldEventKind, event.Kind,
					log.FieldExpenseID, event.ExpenseID,
					log.FieldError, err.Error())
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}

// exponentialBackoff doubles from one second and caps at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, probe := range []string{
		"connection refused",
		"connection closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
	} {
		if strings.Contains(msg, probe) {
			return true
		}
	}
	return false
}
