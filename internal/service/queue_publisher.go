package service

// Publishers for booking events.  Publishing is best effort: callers log
// a failed publish and carry on, so a broker outage never blocks a booking.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/config"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/queue"
)

// EventPublisher delivers booking events to a downstream system.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
	Close() error
}

// NewEventPublisher returns the publisher selected by cfg.Backend, or nil
// for "none".
func NewEventPublisher(cfg config.Events, logger log.Logger) (EventPublisher, error) {
	switch cfg.Backend {
	case config.EventsNone, "":
		return nil, nil
	case config.EventsLog:
		return NewLogPublisher(logger), nil
	case config.EventsAMQP:
		return NewAMQPPublisher(cfg.RabbitMQURL, cfg.Queue), nil
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
}

// AMQPPublisher publishes each event on its own short-lived connection.
// Bookings are rare and interactive, so a long-lived channel with its own
// reconnect logic is not worth keeping open.
type AMQPPublisher struct {
	url   string
	queue string
}

// NewAMQPPublisher returns a publisher for the durable queue on url.
func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queueName}
}

// Publish declares the queue and sends ev as a persistent message through
// the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error { return nil }

// KafkaPublisher writes events to a topic, keyed by seat label so all
// events for one seat land on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	msg, err := kafkaMessage(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

func kafkaMessage(ev queue.BookingEvent) (kafka.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.SeatLabel),
		Value: body,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}

// LogPublisher writes events to the application log.
type LogPublisher struct {
	log *log.Helper
}

// NewLogPublisher returns a publisher that logs through logger.
func NewLogPublisher(logger log.Logger) *LogPublisher {
	return &LogPublisher{log: log.NewHelper(log.With(logger, "module", "events"))}
}

func (p *LogPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	p.log.WithContext(ctx).Infow(
		"event", ev.Type,
		"event_id", ev.EventID,
		"seat", ev.SeatLabel,
		"customer", ev.CustomerName,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
