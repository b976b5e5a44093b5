package queue

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

func TestForwardDeliversAndExitsOnSourceClose(t *testing.T) {
	msgs := make(chan amqp.Delivery, 1)
	msgs <- amqp.Delivery{Body: []byte("payload")}
	close(msgs)

	merged := make(chan delivery, 1)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		forward(QueueBookingCancelled, msgs, merged, done)
		close(finished)
	}()

	d := <-merged
	require.Equal(t, QueueBookingCancelled, d.queue)
	require.Equal(t, []byte("payload"), d.body)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not exit after its source closed")
	}
}

// A forwarder mid-send when the channel closes must not outlive the
// consume loop: with nobody left to receive from merged, closing done has
// to unblock it.
func TestForwardUnblocksWhenDoneCloses(t *testing.T) {
	msgs := make(chan amqp.Delivery, 1)
	msgs <- amqp.Delivery{Body: []byte("stuck")}

	merged := make(chan delivery) // no receiver
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		forward(QueueBookingCreated, msgs, merged, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder still blocked after shutdown")
	}
}
