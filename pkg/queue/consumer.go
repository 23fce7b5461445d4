package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrMalformed marks a message that can never be processed. It is dropped
// instead of requeued.
var ErrMalformed = errors.New("malformed message")

// HandlerFunc processes one delivery.
type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

// ConsumeMessages starts a manual-ack consumer on queueName.
func ConsumeMessages(ch *amqp.Channel, queueName string) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}

// Handle runs h for each delivery until msgs closes or ctx is done.
// Successful deliveries are acked; malformed ones are rejected; other
// failures are requeued once.
func Handle(ctx context.Context, msgs <-chan amqp.Delivery, h HandlerFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			settle(d, h(ctx, d))
		}
	}
}

func settle(d amqp.Delivery, err error) {
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, ErrMalformed):
		d.Reject(false)
	default:
		d.Nack(false, !d.Redelivered)
	}
}
