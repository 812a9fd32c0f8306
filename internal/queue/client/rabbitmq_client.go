package client

import (
	"context"
	"fmt"
	"net/url"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMqClient struct {
	connection *amqp.Connection
	channel    *amqp.Channel
}

func NewRabbitMqClient(queueURL, user, password string) (*RabbitMqClient, error) {
	amqpURI, err := buildAmqpURI(queueURL, user, password)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	return &RabbitMqClient{
		connection: conn,
		channel:    ch,
	}, nil
}

// Publish sends a persistent JSON message to the given queue via the default
// exchange. The queue is declared durable so a publish to a not-yet-existing
// queue creates it rather than dropping the message.
func (c *RabbitMqClient) Publish(ctx context.Context, queueName string, messageBody []byte, correlationId string) error {
	_, err := c.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	err = c.channel.PublishWithContext(
		ctx,
		"",        // default exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: correlationId,
			Body:          messageBody,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	return nil
}

func (c *RabbitMqClient) Ping() error {
	if c.connection == nil || c.connection.IsClosed() {
		return fmt.Errorf("queue broker connection is closed")
	}
	return nil
}

func (c *RabbitMqClient) Stop() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}
	if c.connection != nil {
		return c.connection.Close()
	}
	return nil
}

// buildAmqpURI injects the configured credentials into the broker URL.
func buildAmqpURI(queueURL, user, password string) (string, error) {
	u, err := url.Parse(queueURL)
	if err != nil {
		return "", fmt.Errorf("invalid queue url: %w", err)
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}
