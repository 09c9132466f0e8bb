package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const codeIssuedQueueName = "auth.code_issued"

// Publisher publishes code-delivery events to RabbitMQ. It satisfies
// the service layer's Notifier interface. Errors are logged and
// returned so callers can ignore a broker outage without failing the
// request; the client simply requests another code.
type Publisher struct {
	url string
}

// NewPublisher builds a publisher for the given AMQP broker URL. The
// URL comes from the config object built at startup.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishCodeIssued publishes a CodeIssuedEvent to the
// auth.code_issued queue. The queue is durable and messages are
// persistent so a delivery gateway restart does not drop codes.
func (p *Publisher) PublishCodeIssued(ctx context.Context, event CodeIssuedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		codeIssuedQueueName, // name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                  // default exchange
		codeIssuedQueueName, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
