package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartNotifyConsumer connects to RabbitMQ, declares the outbound event
// queues (durable), and starts consuming messages.  Each message is
// appended to logs/notify.log in a single-line, human-friendly format —
// this consumer is the stand-in delivery collaborator until the chat bot
// consumes the queues directly.  The function runs a reconnect loop and
// keeps running across broker restarts, rejecting messages it cannot
// process so the server continues operating.
func StartNotifyConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	queues := []string{QueueBookingCreated, QueueBookingCancelled, QueueRegistrationCompleted}
	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)
	for _, name := range queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go forward(name, msgs, merged, done)
	}

	closed := make(chan *amqp.Error, 1)
	ch.NotifyClose(closed)

	for {
		select {
		case d := <-merged:
			if err := handleMessage(d.queue, d.body); err != nil {
				log.Printf("notify-consumer: handle message failed: %v", err)
				_ = d.msg.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.msg.Ack(false)
		case <-closed:
			return errors.New("channel closed")
		}
	}
}

// delivery pairs a consumed message with the queue it arrived on.
type delivery struct {
	queue string
	body  []byte
	msg   amqp.Delivery
}

// forward pushes deliveries from one queue into the merged channel.  It
// exits when its source closes or when done closes, so a forwarder blocked
// on a send cannot outlive the consume loop across reconnects.
func forward(name string, msgs <-chan amqp.Delivery, merged chan<- delivery, done <-chan struct{}) {
	for d := range msgs {
		select {
		case merged <- delivery{queue: name, body: d.Body, msg: d}:
		case <-done:
			return
		}
	}
}

func handleMessage(queue string, body []byte) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notify.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders one event as a single log line.  Unknown queues are
// an error so misrouted messages surface instead of vanishing.
func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueBookingCreated:
		var ev BookingCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queue, err)
		}
		payment := "awaiting approval"
		if ev.AutoPaid {
			payment = "auto-paid"
		}
		return fmt.Sprintf("[%s] Booking created | ref=%s | chat_id=%d | name=%q | game=%q | master=%q | day=%d line=%d seat=%d | %s\n",
			ev.CreatedAt, ev.BookingRef, ev.ChatID, ev.Name, ev.Game, ev.Master, ev.Day, ev.Line, ev.SeatID, payment), nil
	case QueueBookingCancelled:
		var ev BookingCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queue, err)
		}
		return fmt.Sprintf("[%s] Booking cancelled | ref=%s | chat_id=%d\n",
			time.Now().UTC().Format(time.RFC3339), ev.BookingRef, ev.ChatID), nil
	case QueueRegistrationCompleted:
		var ev RegistrationCompletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queue, err)
		}
		games := make([]string, 0, len(ev.Games))
		for _, g := range ev.Games {
			games = append(games, fmt.Sprintf("d%d/l%d %q", g.Day, g.Line, g.Game))
		}
		return fmt.Sprintf("[%s] Registration completed | chat_id=%d | number=%d | tier=%d days | games=[%s]\n",
			time.Now().UTC().Format(time.RFC3339), ev.ChatID, ev.RegistrationNumber, ev.ChosenTier, strings.Join(games, ", ")), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
