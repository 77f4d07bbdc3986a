package worker

import (
	"context"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/go-task-rbac/pkg/helpers"
)

type recordingAck struct {
	mu      sync.Mutex
	acks    []uint64
	requeue []uint64
	dropped []uint64
}

func (a *recordingAck) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *recordingAck) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.requeue = append(a.requeue, tag)
	} else {
		a.dropped = append(a.dropped, tag)
	}
	return nil
}

func (a *recordingAck) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func TestRunSettlesEachDelivery(t *testing.T) {
	ack := &recordingAck{}
	ch := make(chan amqp.Delivery, 3)
	for i, body := range []string{"ok", "retry", "poison"} {
		ch <- amqp.Delivery{Acknowledger: ack, DeliveryTag: uint64(i + 1), Body: []byte(body)}
	}
	close(ch)

	handle := func(_ context.Context, body []byte) Outcome {
		switch string(body) {
		case "retry":
			return Requeue
		case "poison":
			return Drop
		}
		return Ack
	}
	Run(context.Background(), ch, handle, helpers.NewDiscardLogger())

	if len(ack.acks) != 1 || ack.acks[0] != 1 {
		t.Fatalf("acks = %v", ack.acks)
	}
	if len(ack.requeue) != 1 || ack.requeue[0] != 2 {
		t.Fatalf("requeued = %v", ack.requeue)
	}
	if len(ack.dropped) != 1 || ack.dropped[0] != 3 {
		t.Fatalf("dropped = %v", ack.dropped)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		Run(ctx, make(chan amqp.Delivery), func(context.Context, []byte) Outcome { return Ack }, helpers.NewDiscardLogger())
		close(done)
	}()
	<-done
}
