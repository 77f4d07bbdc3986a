// Package worker consumes RabbitMQ queues for the background binaries.
package worker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Outcome tells Run how to settle a delivery.
type Outcome int

const (
	Ack     Outcome = iota // processed, or given up on and logged
	Requeue                // transient failure; put it back
	Drop                   // poison message; discard without requeue
)

// HandlerFunc processes one message body.
type HandlerFunc func(ctx context.Context, body []byte) Outcome

// Run settles deliveries one by one until ctx is done or the channel closes.
func Run(ctx context.Context, deliveries <-chan amqp.Delivery, handle HandlerFunc, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			settle(d, handle(ctx, d.Body), logger)
		}
	}
}

func settle(d amqp.Delivery, o Outcome, logger *logrus.Logger) {
	var err error
	switch o {
	case Requeue:
		err = d.Nack(false, true)
	case Drop:
		err = d.Nack(false, false)
	default:
		err = d.Ack(false)
	}
	if err != nil {
		logger.WithError(err).Warn("failed to settle delivery")
	}
}
