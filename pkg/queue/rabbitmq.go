package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

func ConnectRabbitMQ(uri string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return conn, ch, nil
}

// DeclareExchange declares the durable topic exchange events are sent to.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// DeclareQueue declares a queue and binds it to exchange for each routing
// key. An empty name gives an exclusive, server-named queue.
func DeclareQueue(ch *amqp.Channel, exchange, name string, routingKeys ...string) (string, error) {
	if err := DeclareExchange(ch, exchange); err != nil {
		return "", err
	}

	durable, exclusive := true, false
	if name == "" {
		durable, exclusive = false, true
	}
	q, err := ch.QueueDeclare(name, durable, !durable, exclusive, false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return "", fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return q.Name, nil
}
