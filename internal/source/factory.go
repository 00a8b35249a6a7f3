package source

import (
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/config"
)

func NewSource(cfg *config.Config) (SignalSource, error) {
	switch cfg.SignalSource {
	case "nats":
		return NewNatsSource(cfg.NatsURL, cfg.LevelSubject, cfg.LevelStaleAfter), nil
	case "redis":
		return NewRedisSource(RedisOptions{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			Key:        cfg.RedisLevelKey,
			Timeout:    time.Second,
			StaleAfter: cfg.LevelStaleAfter,
		}), nil
	default:
		return nil, ErrUnsupportedSource
	}
}
