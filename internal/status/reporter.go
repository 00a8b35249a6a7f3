// Package status keeps the single latest detector status message.
package status

import (
	"sync"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
)

// Observer is told about every status write, after the write lands.
type Observer func(models.StatusMessage)

// Reporter holds the current status. Writers race: whichever Set runs
// last wins, regardless of which tick produced it.
type Reporter struct {
	mu        sync.RWMutex
	current   models.StatusMessage
	observers []Observer
}

func NewReporter() *Reporter {
	return &Reporter{
		current: models.IdleStatus(),
	}
}

// Set overwrites the current status and notifies observers.
func (r *Reporter) Set(msg models.StatusMessage) {
	r.mu.Lock()
	r.current = msg
	observers := r.observers
	r.mu.Unlock()

	for _, obs := range observers {
		obs(msg)
	}
}

// Current returns a copy of the latest status.
func (r *Reporter) Current() models.StatusMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Subscribe registers an observer. Observers must not block.
func (r *Reporter) Subscribe(obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers[:len(r.observers):len(r.observers)], obs)
}
