package config

import "time"

// DefaultSessionSecret is used when SESSION_SECRET is unset.
const DefaultSessionSecret = "change-me-in-production"

// SiteConfig holds runtime configuration for the marketing site.
type SiteConfig struct {
	Environment        string
	Addr               string
	PublicURL          string
	LogLevel           string
	DatabaseDriver     string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionSecret      string
	SessionCookie      string
	SessionTTL         time.Duration
	HistoryLimit       int
	FirstStepDelay     time.Duration
	StepDelay          time.Duration
	NextAgentDelay     time.Duration
	ManualQueueLimit   int
	Seed               int64
	LineCount          int
	StreamHeartbeat    time.Duration
	StreamWriteTimeout time.Duration
	SubscribeRateLimit int
	SubscribeWindow    time.Duration
	TrainRateLimit     int
	TrainWindow        time.Duration
	TrustProxy         bool
}

// LoadSiteConfig constructs a SiteConfig from .env and environment variables.
func LoadSiteConfig() SiteConfig {
	LoadDotEnv(".env", ".env.local")
	return SiteConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("SITE_ADDR", ":4002"),
		PublicURL:          GetString("SITE_PUBLIC_URL", "http://localhost:4002"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		DatabaseDriver:     GetString("DATABASE_DRIVER", "postgres"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://synth:synth@db:5432/synth?sslmode=disable"),
		RedisAddr:          GetString("REDIS_ADDR", ""),
		RedisPassword:      GetString("REDIS_PASSWORD", ""),
		RedisDB:            GetInt("REDIS_DB", 0),
		SessionSecret:      GetString("SESSION_SECRET", DefaultSessionSecret),
		SessionCookie:      GetString("SESSION_COOKIE", "synth_session"),
		SessionTTL:         time.Duration(GetInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		HistoryLimit:       GetInt("SIM_HISTORY_LIMIT", 4),
		FirstStepDelay:     GetDuration("SIM_FIRST_STEP_DELAY", 3*time.Second),
		StepDelay:          GetDuration("SIM_STEP_DELAY", 4*time.Second),
		NextAgentDelay:     GetDuration("SIM_NEXT_AGENT_DELAY", 6*time.Second),
		ManualQueueLimit:   GetInt("SIM_MANUAL_QUEUE_LIMIT", 1),
		Seed:               GetInt64("SIM_SEED", 0),
		LineCount:          GetInt("BACKGROUND_LINE_COUNT", 60),
		StreamHeartbeat:    time.Duration(GetInt("STREAM_HEARTBEAT_SECONDS", 15)) * time.Second,
		StreamWriteTimeout: GetDuration("STREAM_WRITE_TIMEOUT", 10*time.Second),
		SubscribeRateLimit: GetInt("SUBSCRIBE_RATE_LIMIT", 10),
		SubscribeWindow:    GetDuration("SUBSCRIBE_RATE_WINDOW", 10*time.Minute),
		TrainRateLimit:     GetInt("TRAIN_RATE_LIMIT", 20),
		TrainWindow:        GetDuration("TRAIN_RATE_WINDOW", time.Minute),
		TrustProxy:         GetBool("TRUST_PROXY", false),
	}
}
