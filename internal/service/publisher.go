// Package service publishes domain events to RabbitMQ.  Errors are
// logged and returned so callers can ignore failures without interrupting
// the main request flow.
package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/golang/glog"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/rental-listings/internal/model"
    q "github.com/iliyamo/rental-listings/internal/queue"
)

// Publisher sends booking events.  It implements booking.Notifier.
type Publisher struct {
    URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// BookingCreated publishes the event of a stored booking to the
// booking.created queue.  Messages are marked persistent.
func (p *Publisher) BookingCreated(ctx context.Context, b model.Booking) error {
    body, err := json.Marshal(q.NewBookingCreatedEvent(b))
    if err != nil {
        glog.Errorf("rabbitmq: marshal event failed: %v", err)
        return err
    }
    return p.publish(ctx, q.BookingCreatedQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        glog.Warningf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        glog.Warningf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        glog.Warningf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        pub,
    ); err != nil {
        glog.Warningf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
