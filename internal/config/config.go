package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the sound detector service.
type Config struct {
	// Discord delivery
	BotToken            string
	UserID              string
	DiscordAPIBase      string
	RequestTimeout      time.Duration
	MaxRateLimitRetries int // 0 retries forever

	// Detection defaults (operator can change these at runtime)
	Sensitivity    string
	Thresholds     DetectionThresholds
	SampleInterval time.Duration

	// Signal source
	SignalSource    string
	LevelStaleAfter time.Duration

	// Event bus
	NatsURL       string
	LevelSubject  string
	StatusSubject string

	// Redis source
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisLevelKey string

	// Service ports
	HTTPPort   string
	HealthPort string
	GRPCPort   string

	AllowedOrigins []string

	// Feature flags
	EnableOnStart          bool
	EnableStatusPublishing bool
}

// DetectionThresholds are the initial decibel cutoffs for each sensitivity mode.
type DetectionThresholds struct {
	SensitiveDB float64
	NormalDB    float64
	SleepingDB  float64
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Try multiple .env locations
	envPaths := []string{
		".env",
		"../.env",
		"/app/.env", // Docker
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded config from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Printf("No .env file found, using environment variables")
	}

	config := &Config{
		BotToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		UserID:         os.Getenv("DISCORD_USER_ID"),
		DiscordAPIBase: strings.TrimRight(getEnvOrDefault("DISCORD_API_BASE", "https://discord.com/api/v10"), "/"),

		Sensitivity: getEnvOrDefault("SENSITIVITY", "normal"),

		SignalSource: getEnvOrDefault("SIGNAL_SOURCE", "nats"),

		NatsURL:       getEnvOrDefault("NATS_URL", "nats://localhost:4222"),
		LevelSubject:  getEnvOrDefault("LEVEL_SUBJECT", "audio.levels"),
		StatusSubject: getEnvOrDefault("STATUS_SUBJECT", "sound.status"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisLevelKey: getEnvOrDefault("REDIS_LEVEL_KEY", "audio:level"),

		HTTPPort:   getEnvOrDefault("HTTP_PORT", "8080"),
		HealthPort: getEnvOrDefault("HEALTH_PORT", "8081"),
		GRPCPort:   getEnvOrDefault("GRPC_PORT", "50055"),

		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		EnableOnStart:          getEnvOrDefault("ENABLE_ON_START", "false") == "true",
		EnableStatusPublishing: getEnvOrDefault("ENABLE_STATUS_PUBLISHING", "true") == "true",
	}

	var err error
	if config.MaxRateLimitRetries, err = parseIntOrDefault("MAX_RATE_LIMIT_RETRIES", 0); err != nil {
		return nil, err
	}
	if config.RedisDB, err = parseIntOrDefault("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.Thresholds.SensitiveDB, err = parseFloatOrDefault("THRESHOLD_SENSITIVE_DB", -60.0); err != nil {
		return nil, err
	}
	if config.Thresholds.NormalDB, err = parseFloatOrDefault("THRESHOLD_NORMAL_DB", -40.0); err != nil {
		return nil, err
	}
	if config.Thresholds.SleepingDB, err = parseFloatOrDefault("THRESHOLD_SLEEPING_DB", -20.0); err != nil {
		return nil, err
	}
	if config.SampleInterval, err = parseDurationOrDefault("SAMPLE_INTERVAL", "3s"); err != nil {
		return nil, err
	}
	if config.RequestTimeout, err = parseDurationOrDefault("REQUEST_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if config.LevelStaleAfter, err = parseDurationOrDefault("LEVEL_STALE_AFTER", "10s"); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that required configuration is present and sane.
// Credentials are not required here: the operator may supply them later.
func (c *Config) Validate() error {
	required := map[string]string{
		"DISCORD_API_BASE": c.DiscordAPIBase,
		"SIGNAL_SOURCE":    c.SignalSource,
		"HTTP_PORT":        c.HTTPPort,
		"HEALTH_PORT":      c.HealthPort,
	}

	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	switch strings.ToLower(c.Sensitivity) {
	case "sensitive", "normal", "sleeping":
	default:
		return fmt.Errorf("SENSITIVITY must be one of sensitive, normal, sleeping (got %q)", c.Sensitivity)
	}

	switch c.SignalSource {
	case "nats":
		if c.NatsURL == "" || c.LevelSubject == "" {
			return fmt.Errorf("NATS_URL and LEVEL_SUBJECT are required for the nats signal source")
		}
	case "redis":
		if c.RedisAddr == "" || c.RedisLevelKey == "" {
			return fmt.Errorf("REDIS_ADDR and REDIS_LEVEL_KEY are required for the redis signal source")
		}
	default:
		return fmt.Errorf("SIGNAL_SOURCE must be nats or redis (got %q)", c.SignalSource)
	}

	thresholds := map[string]float64{
		"THRESHOLD_SENSITIVE_DB": c.Thresholds.SensitiveDB,
		"THRESHOLD_NORMAL_DB":    c.Thresholds.NormalDB,
		"THRESHOLD_SLEEPING_DB":  c.Thresholds.SleepingDB,
	}
	for name, value := range thresholds {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
	}

	if c.SampleInterval < 100*time.Millisecond {
		return fmt.Errorf("SAMPLE_INTERVAL must be at least 100ms")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.MaxRateLimitRetries < 0 {
		return fmt.Errorf("MAX_RATE_LIMIT_RETRIES cannot be negative")
	}

	return nil
}

// MaskedToken returns the bot token safe for logging.
func (c *Config) MaskedToken() string {
	if c.BotToken == "" {
		return "(not set)"
	}
	if len(c.BotToken) <= 6 {
		return "******"
	}
	return c.BotToken[:4] + "******"
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return result, nil
}

func parseIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return result, nil
}

func parseDurationOrDefault(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
