package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"inventaris/internal/models"

	amqp "github.com/streadway/amqp"
)

const notificationQueue = "notification_queue"

// maxDeliveryAttempts bounds redelivery of a notification message before it
// is dropped instead of requeued.
const maxDeliveryAttempts = 3

// Client holds the RabbitMQ connection and channel used to move notification
// events between the borrowing lifecycle and the dispatcher workers.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	publishAttempts int
	publishBackoff  time.Duration
}

// Config holds RabbitMQ connection details. PublishAttempts and
// PublishBackoff bound the enqueue retry; zero values select the defaults
// (3 attempts, 60s backoff).
type Config struct {
	URL             string
	PublishAttempts int
	PublishBackoff  time.Duration
}

// NewClient creates a new RabbitMQ client. It connects to RabbitMQ, opens a
// channel and declares the durable notification queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		notificationQueue, // name
		true,              // durable (persists messages across broker restarts)
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", notificationQueue, err)
	}

	if cfg.PublishAttempts <= 0 {
		cfg.PublishAttempts = 3
	}
	if cfg.PublishBackoff <= 0 {
		cfg.PublishBackoff = 60 * time.Second
	}

	log.Printf("RabbitMQ client connected and %s declared", notificationQueue)

	return &Client{
		conn:            conn,
		channel:         ch,
		publishAttempts: cfg.PublishAttempts,
		publishBackoff:  cfg.PublishBackoff,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
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

// Enqueue publishes a notification event onto the notification queue with
// persistent delivery. Transient publish failures are retried with a fixed
// backoff; the final error is returned to the caller, who logs it and moves
// on (notification failure is never a lifecycle error).
func (c *Client) Enqueue(event models.NotificationEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event to JSON: %w", err)
	}

	var publishErr error
	for attempt := 1; attempt <= c.publishAttempts; attempt++ {
		publishErr = c.channel.Publish(
			"",                // exchange: default exchange
			notificationQueue, // routing key: the queue name
			false,             // mandatory
			false,             // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
			})
		if publishErr == nil {
			log.Printf(" [x] Enqueued %s notification for borrowing %s", event.Kind, event.Code)
			return nil
		}
		log.Printf("Failed to publish %s notification for borrowing %s (attempt %d/%d): %v",
			event.Kind, event.Code, attempt, c.publishAttempts, publishErr)
		if attempt < c.publishAttempts {
			time.Sleep(c.publishBackoff)
		}
	}
	return fmt.Errorf("failed to publish notification after %d attempts: %w", c.publishAttempts, publishErr)
}

// ConsumeNotificationEvents starts a goroutine that feeds queued notification
// events to the given handler. Messages are acked on success; on failure they
// are requeued with an incremented retry header and dropped for good after
// maxDeliveryAttempts.
func (c *Client) ConsumeNotificationEvents(handler func(event models.NotificationEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		notificationQueue, // queue
		"",                // consumer tag
		false,             // auto-ack: manual acknowledgement
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for notification events on %s", notificationQueue)

	go func() {
		for msg := range msgs {
			var event models.NotificationEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				log.Printf("Dropping malformed notification message %d: %v", msg.DeliveryTag, err)
				if ackErr := msg.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
				}
				continue
			}

			if err := handler(event); err != nil {
				attempts := deliveryAttempts(msg)
				if attempts >= maxDeliveryAttempts {
					log.Printf("Giving up on %s notification for borrowing %s after %d attempts: %v",
						event.Kind, event.Code, attempts, err)
					if nackErr := msg.Nack(false, false); nackErr != nil {
						log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
					}
					continue
				}
				log.Printf("Error processing %s notification for borrowing %s (attempt %d/%d), requeueing: %v",
					event.Kind, event.Code, attempts, maxDeliveryAttempts, err)
				if nackErr := msg.Nack(false, true); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}

			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()

	return nil
}

// deliveryAttempts counts how many times the broker has handed us this
// message, using the redelivered flag and the death header when present.
func deliveryAttempts(msg amqp.Delivery) int {
	if count, ok := msg.Headers["x-delivery-count"]; ok {
		switch v := count.(type) {
		case int32:
			return int(v) + 1
		case int64:
			return int(v) + 1
		}
	}
	if msg.Redelivered {
		return 2
	}
	return 1
}
