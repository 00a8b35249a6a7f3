package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	Key        string
	Timeout    time.Duration
	StaleAfter time.Duration
}

// RedisSource reads the latest level from a key the capture process
// overwrites. A bare float carries no capture time, so it counts as fresh
// from the moment its value last changed.
type RedisSource struct {
	opts RedisOptions
	now  func() time.Time

	mu         sync.Mutex
	rdb        *redis.Client
	lastRaw    []byte
	lastSeenAt time.Time
}

func NewRedisSource(opts RedisOptions) *RedisSource {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	return &RedisSource{
		opts: opts,
		now:  time.Now,
	}
}

func (s *RedisSource) Name() string {
	return "redis"
}

func (s *RedisSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rdb != nil {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     s.opts.Addr,
		Password: s.opts.Password,
		DB:       s.opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	s.rdb = rdb
	log.Printf("Connected to Redis: %s (key: %s)", s.opts.Addr, s.opts.Key)
	return nil
}

func (s *RedisSource) CurrentLevel() float64 {
	s.mu.Lock()
	rdb := s.rdb
	s.mu.Unlock()

	if rdb == nil {
		return NoSignal
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	data, err := rdb.Get(ctx, s.opts.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return NoSignal
	}
	if err != nil {
		log.Printf("Failed to read sound level from redis: %v", err)
		return NoSignal
	}

	return s.levelFrom(data)
}

func (s *RedisSource) levelFrom(data []byte) float64 {
	level, at, err := parseReading(data)
	if err != nil {
		log.Printf("Ignoring sound level in redis: %v", err)
		return NoSignal
	}
	if at.IsZero() {
		at = s.changedAt(data)
	}
	if s.opts.StaleAfter > 0 && s.now().Sub(at) > s.opts.StaleAfter {
		return NoSignal
	}
	return level
}

// changedAt returns when this source first saw the current raw value.
func (s *RedisSource) changedAt(data []byte) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSeenAt.IsZero() || !bytes.Equal(data, s.lastRaw) {
		s.lastRaw = append(s.lastRaw[:0], data...)
		s.lastSeenAt = s.now()
	}
	return s.lastSeenAt
}

func (s *RedisSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rdb == nil {
		return ErrNotStarted
	}

	err := s.rdb.Close()
	s.rdb = nil
	s.lastRaw = nil
	s.lastSeenAt = time.Time{}
	return err
}
