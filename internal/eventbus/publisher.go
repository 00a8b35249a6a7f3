package eventbus

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/nats-io/nats.go"
)

var ErrNotConnected = errors.New("eventbus: not connected")

// StatusEvent is the payload published on every status change.
type StatusEvent struct {
	Service string               `json:"service"`
	Status  models.StatusMessage `json:"status"`
}

// Publisher publishes detector status to NATS
type Publisher struct {
	conn    *nats.Conn
	subject string
}

func NewPublisher(natsURL, subject string) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("sounddetector-status"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Sound detector (Pub) connected to NATS at %s", natsURL)

	return &Publisher{
		conn:    conn,
		subject: subject,
	}, nil
}

// PublishStatus publishes a status message to the status subject
func (p *Publisher) PublishStatus(msg models.StatusMessage) error {
	if p.conn == nil {
		return ErrNotConnected
	}

	data, err := encodeStatus(msg)
	if err != nil {
		return err
	}

	return p.conn.Publish(p.subject, data)
}

// StatusObserver adapts the publisher to a status reporter observer.
// Publish failures are logged, never returned to the writer.
func (p *Publisher) StatusObserver() func(models.StatusMessage) {
	return func(msg models.StatusMessage) {
		if err := p.PublishStatus(msg); err != nil {
			log.Printf("Failed to publish status to event bus: %v", err)
		}
	}
}

func encodeStatus(msg models.StatusMessage) ([]byte, error) {
	return json.Marshal(StatusEvent{
		Service: "sounddetector",
		Status:  msg,
	})
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		log.Printf("Sound detector disconnected from NATS")
	}
}

func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
