package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogName is the file the consumer appends to inside its log directory.
const AuditLogName = "booking.log"

// StartBookingConsumer connects to RabbitMQ, declares queueName (durable),
// and appends one line per event to logDir/booking.log.  It reconnects with
// exponential backoff until ctx is cancelled, then returns ctx.Err().
// Messages that cannot be decoded or written are rejected without requeue
// so a bad payload cannot spin the loop.
func StartBookingConsumer(ctx context.Context, url, queueName, logDir string, logger log.Logger) error {
	h := log.NewHelper(log.With(logger, "module", "booking-consumer"))
	logPath := filepath.Join(logDir, AuditLogName)

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			h.Warnf("failed to dial broker: %v; retrying in %s", err, backoff)
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect
		h.Infof("consuming %s into %s", queueName, logPath)

		err = consumeLoop(ctx, conn, queueName, logPath, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.Warnf("consume loop ended: %v; reconnecting", err)
		if err := sleepCtx(ctx, 2*time.Second); err != nil {
			return err
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName, logPath string, h *log.Helper) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		h.Warnf("set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
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
			if err := handleMessage(d.Body, logPath); err != nil {
				h.Errorf("handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage decodes one event and appends its audit line to logPath.
func handleMessage(body []byte, logPath string) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.SeatLabel == "" {
		return errors.New("event without seat label")
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatAuditLine(ev BookingEvent) string {
	action := "Booking event"
	switch ev.Type {
	case BookingConfirmed:
		action = "Booking confirmed"
	case BookingCancelled:
		action = "Booking cancelled"
	}
	return fmt.Sprintf("[%s] %s | event_id=%s | seat=%s | customer=%q | email=%s\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), action, ev.EventID, ev.SeatLabel, ev.CustomerName, ev.CustomerEmail)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
