package services

import "inventaris/internal/models"

// NotificationQueue is the capability the borrowing lifecycle needs from the
// notification dispatcher: hand over an event for asynchronous, at-least-once
// delivery. The RabbitMQ client in pkg/rabbitmq implements it; tests use
// in-memory fakes.
type NotificationQueue interface {
	Enqueue(event models.NotificationEvent) error
}
