package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// discord
	DiscordToken       string
	DiscordAPIBaseURL  string
	DiscordGatewayURL  string
	DiscordActivity    string
	DiscordActivityURL string

	DBDriver string
	DBDSN    string

	// markov routing
	AuthorizedChannelID string
	ExcludedAuthorIDs   []string
	TriggerPrefix       string
	MaxWords            int
	ApologyText         string
	IngestAtomic        bool

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	DedupeTTLSeconds int

	// rabbitMQ
	RabbitURL      string
	RabbitQueue    string
	WorkerPrefetch int

	HTTPAddr          string
	JWTSecret         string
	AdminPasswordHash string

	LogLevel  string
	LogFormat string
}

// insecureJWTSecrets are placeholder values that must never sign admin tokens.
var insecureJWTSecrets = map[string]struct{}{
	"dev-secret-change-me": {},
	"changeme":             {},
	"secret":               {},
}

const minJWTSecretLen = 16

func Load() Config {
	// .env is optional; real environment wins over the file.
	_ = godotenv.Load()

	apiBase := os.Getenv("DISCORD_API_BASE_URL")
	if apiBase == "" {
		apiBase = "https://discord.com/api/v10"
	}
	gatewayURL := os.Getenv("DISCORD_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"
	}

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if driver == "" {
		driver = "sqlite"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "markov.db"
	}

	prefix := os.Getenv("TRIGGER_PREFIX")
	if prefix == "" {
		prefix = "e!talk"
	}

	maxWords := 21
	if v := os.Getenv("MAX_WORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxWords = n
		}
	}

	apology := os.Getenv("APOLOGY_TEXT")
	if apology == "" {
		apology = "I'm too dumb for this D:"
	}

	atomic := false
	if v := os.Getenv("INGEST_ATOMIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			atomic = b
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}
	dedupeTTL := 3600
	if v := os.Getenv("DEDUPE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dedupeTTL = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "markov_events"
	}
	prefetch := 32
	if v := os.Getenv("WORKER_PREFETCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			prefetch = n
		}
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return Config{
		DiscordToken:       strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		DiscordAPIBaseURL:  apiBase,
		DiscordGatewayURL:  gatewayURL,
		DiscordActivity:    os.Getenv("DISCORD_ACTIVITY"),
		DiscordActivityURL: os.Getenv("DISCORD_ACTIVITY_URL"),

		DBDriver: driver,
		DBDSN:    dsn,

		AuthorizedChannelID: strings.TrimSpace(os.Getenv("AUTHORIZED_CHANNEL_ID")),
		ExcludedAuthorIDs:   SplitList(os.Getenv("EXCLUDED_AUTHOR_IDS")),
		TriggerPrefix:       prefix,
		MaxWords:            maxWords,
		ApologyText:         apology,
		IngestAtomic:        atomic,

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		DedupeTTLSeconds: dedupeTTL,

		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitQueue:    rabbitQueue,
		WorkerPrefetch: prefetch,

		HTTPAddr:          httpAddr,
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),
	}
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateAPI reports settings the admin API cannot safely start without.
func (c Config) ValidateAPI() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, bad := insecureJWTSecrets[strings.ToLower(c.JWTSecret)]; bad {
		return errors.New("JWT_SECRET is a known placeholder value")
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return errors.New("JWT_SECRET must be at least 16 bytes")
	}
	return nil
}
