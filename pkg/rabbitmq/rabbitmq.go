package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"etalase/internal/models"

	log "github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// CheckoutQueue receives one message per completed checkout.
const CheckoutQueue = "checkout_queue"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the checkout
// queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareCheckoutQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", CheckoutQueue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareCheckoutQueue(ch *amqp.Channel) (amqp.Queue, error) {
	queue, err := ch.QueueDeclare(
		CheckoutQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare %s: %w", CheckoutQueue, err)
	}
	return queue, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishCheckoutCompleted publishes a persistent JSON message describing a
// completed checkout.
func (c *Client) PublishCheckoutCompleted(event models.CheckoutEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := EncodeCheckoutEvent(event)
	if err != nil {
		return err
	}

	err = c.channel.Publish(
		"",            // default exchange
		CheckoutQueue, // routing key is the queue name
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConsumeCheckoutEvents registers a consumer on the checkout queue and hands
// every decoded event to handler. Messages are acked on success, nacked
// without requeue when they cannot be decoded, and requeued once when the
// handler fails.
func (c *Client) ConsumeCheckoutEvents(handler func(models.CheckoutEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareCheckoutQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(models.CheckoutEvent) error) {
	settle(msg, msg.DeliveryTag, msg.Body, msg.Redelivered, handler)
}

func settle(ack acknowledger, tag uint64, body []byte, redelivered bool, handler func(models.CheckoutEvent) error) {
	event, err := DecodeCheckoutEvent(body)
	if err != nil {
		log.WithError(err).Warnf("Dropping undecodable message %d", tag)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			log.Printf("Error nacking message %d: %v", tag, nackErr)
		}
		return
	}

	if err := handler(event); err != nil {
		log.WithError(err).Warnf("Error processing message %d", tag)
		if nackErr := ack.Nack(false, !redelivered); nackErr != nil {
			log.Printf("Error nacking message %d: %v", tag, nackErr)
		}
		return
	}

	if ackErr := ack.Ack(false); ackErr != nil {
		log.Printf("Error acking message %d: %v", tag, ackErr)
	}
}

// EncodeCheckoutEvent marshals an event to its wire form.
func EncodeCheckoutEvent(event models.CheckoutEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout event to JSON: %w", err)
	}
	return body, nil
}

// DecodeCheckoutEvent parses a message body produced by EncodeCheckoutEvent.
func DecodeCheckoutEvent(body []byte) (models.CheckoutEvent, error) {
	var event models.CheckoutEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.CheckoutEvent{}, fmt.Errorf("failed to decode checkout event: %w", err)
	}
	if event.ID == "" {
		return models.CheckoutEvent{}, fmt.Errorf("checkout event has no id")
	}
	return event, nil
}

// LogCheckoutEvent is the default consumer handler.
func LogCheckoutEvent(event models.CheckoutEvent) error {
	log.WithFields(log.Fields{
		"event_id": event.ID,
		"customer": event.DisplayName,
		"lines":    len(event.Lines),
		"total":    event.Total,
	}).Info("Received checkout completed event")
	return nil
}
