package source

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsSource keeps the latest reading published on a NATS subject by the
// capture process.
type NatsSource struct {
	natsURL    string
	subject    string
	staleAfter time.Duration
	now        func() time.Time

	mu         sync.Mutex
	conn       *nats.Conn
	sub        *nats.Subscription
	level      float64
	receivedAt time.Time
	hasReading bool
}

func NewNatsSource(natsURL, subject string, staleAfter time.Duration) *NatsSource {
	return &NatsSource{
		natsURL:    natsURL,
		subject:    subject,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *NatsSource) Name() string {
	return "nats"
}

// Start connects and subscribes. There is no retry on a failed first
// connect so an unreachable server is reported to the caller.
func (s *NatsSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	conn, err := nats.Connect(s.natsURL,
		nats.Name("sounddetector-levels"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", s.natsURL, err)
	}

	sub, err := conn.Subscribe(s.subject, s.handleMessage)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}

	s.conn = conn
	s.sub = sub
	s.hasReading = false

	log.Printf("Subscribed to '%s' for sound levels", s.subject)
	return nil
}

func (s *NatsSource) handleMessage(msg *nats.Msg) {
	s.record(msg.Data)
}

func (s *NatsSource) record(data []byte) {
	level, at, err := parseReading(data)
	if err != nil {
		log.Printf("Ignoring sound level message: %v", err)
		return
	}
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasReading && at.Before(s.receivedAt) {
		return
	}
	s.level = level
	s.receivedAt = at
	s.hasReading = true
}

func (s *NatsSource) CurrentLevel() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasReading {
		return NoSignal
	}
	if s.staleAfter > 0 && s.now().Sub(s.receivedAt) > s.staleAfter {
		return NoSignal
	}
	return s.level
}

func (s *NatsSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotStarted
	}

	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			log.Printf("Warning: failed to unsubscribe from %s: %v", s.subject, err)
		}
	}
	s.conn.Close()

	s.conn = nil
	s.sub = nil
	s.hasReading = false

	log.Printf("Unsubscribed from '%s'", s.subject)
	return nil
}
