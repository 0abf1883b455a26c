package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/utia/guesthouse-booking/internal/model"
)

const bookingQueueName = "booking.events"

// Publisher sends booking events to RabbitMQ. All publish methods are
// fire-and-forget: failures are logged and never surfaced to the
// caller, so a broker outage cannot fail a booking.
type Publisher struct {
	url string
}

// NewPublisher returns a publisher for the given AMQP URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// BookingConfirmed publishes a confirmed event.
func (p *Publisher) BookingConfirmed(ctx context.Context, b *model.Booking) {
	p.publish(ctx, NewBookingEvent(EventConfirmed, b, nil))
}

// BookingModified publishes a modified event naming the changed fields.
func (p *Publisher) BookingModified(ctx context.Context, b *model.Booking, changes []string) {
	p.publish(ctx, NewBookingEvent(EventModified, b, changes))
}

// BookingDeleted publishes a deleted event.
func (p *Publisher) BookingDeleted(ctx context.Context, b *model.Booking) {
	p.publish(ctx, NewBookingEvent(EventDeleted, b, nil))
}

// publish dials the broker per message. Throughput is a handful of
// events per hour, so a pooled connection is not worth its failure
// modes here.
func (p *Publisher) publish(ctx context.Context, ev BookingEvent) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ch.PublishWithContext(pctx, "", bookingQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
}
