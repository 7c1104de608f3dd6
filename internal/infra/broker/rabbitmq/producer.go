package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeKind = "topic"

// Producer publishes outbox records to a durable topic exchange. The outbox
// topic is used as the routing key.
type Producer struct {
	exchange string
	conn     *amqp.Connection
	channel  *amqp.Channel
}

func NewProducer(url, exchange string) (*Producer, error) {
	if exchange == "" {
		return nil, errors.New("rabbitmq: exchange is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return &Producer{exchange: exchange, conn: conn, channel: ch}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	msg := amqp.Publishing{
		ContentType:  "application/cloudevents+json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Body:         payload,
		Headers:      amqpHeaders(headers),
	}
	if ct, ok := headers["content-type"]; ok && ct != "" {
		msg.ContentType = ct
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, topic, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func amqpHeaders(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}
	table := make(amqp.Table, len(headers))
	for k, v := range headers {
		table[k] = v
	}
	return table
}
