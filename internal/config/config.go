package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultTimezone = "America/Argentina/Buenos_Aires"

type Config struct {
	Port                 string
	DBUrl                string
	JWTSecret            string
	AppEnv               string
	LogLevel             string
	Timezone             string
	Location             *time.Location
	RedisURL             string
	KafkaBrokers         string
	EventsTopic          string
	WODStore             string
	WODFile              string
	WODRedisKey          string
	RateLimitPerMinute   int
	DefaultAdminEmail    string
	DefaultAdminPassword string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	timezone := getEnv("GYM_TIMEZONE", defaultTimezone)
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("GYM_TIMEZONE %q: %w", timezone, err)
	}

	wodStore := strings.ToLower(strings.TrimSpace(getEnv("WOD_STORE", "file")))
	if wodStore != "file" && wodStore != "redis" {
		return nil, fmt.Errorf("WOD_STORE must be file or redis, got %q", wodStore)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBUrl:                getEnv("DB_URL", ""),
		JWTSecret:            jwtSecret,
		AppEnv:               normalizeEnv(getEnv("APP_ENV", "production")),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Timezone:             timezone,
		Location:             location,
		RedisURL:             getEnv("REDIS_URL", ""),
		KafkaBrokers:         getEnv("KAFKA_BROKERS", ""),
		EventsTopic:          getEnv("EVENTS_TOPIC", "gym.events"),
		WODStore:             wodStore,
		WODFile:              getEnv("WOD_FILE", "data/wods.json"),
		WODRedisKey:          getEnv("WOD_REDIS_KEY", "gym:wods"),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", ""),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
	}
	if cfg.WODStore == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when WOD_STORE=redis")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// EventsEnabled reports whether domain events go to kafka. KAFKA_EVENTS=off
// silences publishing even when brokers are configured.
func (c *Config) EventsEnabled() bool {
	return c != nil && strings.TrimSpace(c.KafkaBrokers) != "" && getEnvBool("KAFKA_EVENTS", true)
}
