package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// New dials the broker and declares the durable queues the service uses, so
// publishers and consumers can assume they exist.
func New(ctx context.Context, url, connectionName string, queues ...string) (*amqp.Connection, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(connectionName)

	conn, err := amqp.DialConfig(url, amqp.Config{
		Properties: props,
		Heartbeat:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	for _, q := range queues {
		if err := ctx.Err(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("rabbitmq setup cancelled: %w", err)
		}
		if _, err := declareQueue(ch, q); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return q, nil
}
