package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer appends every booking event to the booking audit log as one
// JSON line.
type Consumer struct {
	url   string
	audit *logrus.Logger
	out   io.Closer
}

// NewConsumer opens (or creates) the audit log at logPath.
func NewConsumer(url, logPath string) (*Consumer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(logPath), err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open booking log: %w", err)
	}
	audit := logrus.New()
	audit.SetOutput(f)
	audit.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	return &Consumer{url: url, audit: audit, out: f}, nil
}

func (c *Consumer) Close() error { return c.out.Close() }

// Run consumes until ctx is cancelled, redialing the broker with
// exponential backoff between 1s and 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logrus.WithError(err).WithField("retry_in", backoff.String()).Warn("booking-consumer: dial failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		logrus.WithError(err).Warn("booking-consumer: consume loop ended, reconnecting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("booking-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, BookingQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				logrus.WithError(err).WithField("message_id", d.MessageId).Error("booking-consumer: handle message failed")
				_ = d.Nack(false, false) // poison message, do not requeue
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and writes it to the audit log.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.BookingID == 0 {
		return errors.New("event without type or booking id")
	}
	fields := logrus.Fields{
		"event":       ev.Type,
		"booking_id":  ev.BookingID,
		"tour_id":     ev.TourID,
		"status":      ev.Status,
		"total_price": ev.TotalPrice,
		"currency":    ev.Currency,
		"occurred_at": ev.OccurredAt.Format(time.RFC3339),
	}
	if ev.PreviousStatus != "" {
		fields["previous_status"] = ev.PreviousStatus
	}
	if ev.GatewayOrderID != "" {
		fields["gateway_order_id"] = ev.GatewayOrderID
	}
	if ev.RequestID != "" {
		fields["request_id"] = ev.RequestID
	}
	c.audit.WithFields(fields).Info("booking event")
	return nil
}
