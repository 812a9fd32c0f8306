package client

import "context"

// A common interface for queue clients regardless if it's RabbitMQ, SQS, etc.
type QueueClient interface {
	Publish(ctx context.Context, queueName string, messageBody []byte, correlationId string) error
	Ping() error
	Stop() error
}

func NewQueueClient(queueURL, user, password string) (QueueClient, error) {
	return NewRabbitMqClient(queueURL, user, password)
}
