package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
	Sync      SyncConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
	// StorePrefix is prepended to every object store path.
	StorePrefix  string
	TreeCacheTTL time.Duration
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
}

type EventsConfig struct {
	Topic string // in-process watermill topic
	// Empty URLs disable the NATS forwarder and the Redis fanout.
	NatsURL  string
	RedisURL string
	// WsLogFilePath keeps websocket chatter out of the main log.
	WsLogFilePath string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// SyncConfig is read by the notectl client.
type SyncConfig struct {
	ServerURL      string
	LocalDBPath    string
	LogFilePath    string
	Debounce       time.Duration
	RequestTimeout time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			StorePrefix:  getEnv("STORE_PREFIX", ""),
			TreeCacheTTL: getEnvAsDuration("TREE_CACHE_TTL_MS", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled:   getEnvAsBool("AUTH_ENABLED", false),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Events: EventsConfig{
			Topic:         getEnv("NOTE_EVENTS_TOPIC_NAME", "NOTE_EVENTS"),
			NatsURL:       getEnv("NATS_URL", ""),
			RedisURL:      getEnv("REDIS_URL", ""),
			WsLogFilePath: getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Sync: SyncConfig{
			ServerURL:      getEnv("SYNC_SERVER_URL", "http://localhost:3000"),
			LocalDBPath:    getEnv("SYNC_LOCAL_DB_PATH", "notesync.db"),
			LogFilePath:    getEnv("SYNC_LOG_FILE_PATH", "logs/notectl.log"),
			Debounce:       getEnvAsDuration("SYNC_DEBOUNCE_MS", time.Second),
			RequestTimeout: getEnvAsDuration("SYNC_REQUEST_TIMEOUT_MS", 15*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads a millisecond count.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	ms := getEnvAsInt(key, -1)
	if ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
