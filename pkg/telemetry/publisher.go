// Package telemetry publishes trip position reports to a topic exchange.
// Consumers bind queues on bus.location.<tripId> (or a wildcard) to follow
// one bus or the whole fleet.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends position payloads to a durable topic exchange with
// publisher confirms, giving at-least-once delivery.
type Publisher struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	exchange    string
	topicPrefix string
}

// NewPublisher dials the broker, opens a confirmed channel and declares the
// topic exchange.
func NewPublisher(amqpURL, exchange, topicPrefix string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		conn:        conn,
		channel:     channel,
		exchange:    exchange,
		topicPrefix: strings.TrimSuffix(topicPrefix, "."),
	}, nil
}

// Publish sends one payload for the trip and waits for the broker confirm.
// The context deadline bounds the wait; an unconfirmed publish is an error
// and the caller's next periodic report supersedes it.
func (p *Publisher) Publish(ctx context.Context, tripID string, payload []byte) error {
	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		p.routingKey(tripID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish position for trip %s: %w", tripID, err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm for trip %s: %w", tripID, err)
	}
	if !acked {
		return fmt.Errorf("broker nacked position for trip %s", tripID)
	}
	return nil
}

func (p *Publisher) routingKey(tripID string) string {
	return p.topicPrefix + "." + tripID
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
