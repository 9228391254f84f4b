package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Storage  StorageConfig
	Probe    ProbeConfig
	Rules    RulesConfig
}

type ServerConfig struct {
	AppEnv         string
	HTTPPort       string
	GRPCPort       string
	AllowedOrigins []string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	AutoMigrate     bool
}

// AuthConfig points at the hosted identity provider. Tokens are verified
// locally with JWTSecret; AuthURL is only used when the secret is empty.
type AuthConfig struct {
	JWTSecret string
	AuthURL   string
	AnonKey   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
}

type StorageConfig struct {
	URL        string
	ServiceKey string
	Bucket     string
}

type ProbeConfig struct {
	URL          string
	Interval     time.Duration
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
}

// RulesConfig holds the business rules that are tunable per deployment.
type RulesConfig struct {
	MaxVendors           int
	InviteTTL            time.Duration
	DuplicateWindow      time.Duration
	DashboardTTL         time.Duration
	SubmissionsPerMinute int
	LowStockThreshold    int
	// Timezone anchors dashboard days and months.
	Timezone string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:         getEnv("APP_ENV", "development"),
			HTTPPort:       getEnv("HTTP_PORT", ":8080"),
			GRPCPort:       getEnv("GRPC_PORT", ":9090"),
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "stockinator"),
			Password:        getEnv("POSTGRES_PASSWORD", "stockinator"),
			DBName:          getEnv("POSTGRES_DB", "stockinator"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			AutoMigrate:     getEnvBool("POSTGRES_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			AuthURL:   getEnv("AUTH_URL", ""),
			AnonKey:   getEnv("AUTH_ANON_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_CHANGES", "stockinator.changes"),
			GroupID: getEnv("KAFKA_GROUP_REALTIME", ""),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Storage: StorageConfig{
			URL:        getEnv("STORAGE_URL", "http://localhost:54321/storage/v1"),
			ServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
			Bucket:     getEnv("STORAGE_BUCKET", "product-images"),
		},
		Probe: ProbeConfig{
			URL:          getEnv("PROBE_URL", "http://localhost:54321/storage/v1/object/public/assets/ping.txt"),
			Interval:     getEnvDuration("PROBE_INTERVAL", 15*time.Second),
			InitialDelay: getEnvDuration("PROBE_INITIAL_DELAY", time.Second),
			MaxDelay:     getEnvDuration("PROBE_MAX_DELAY", 30*time.Second),
			Timeout:      getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		},
		Rules: RulesConfig{
			MaxVendors:           getEnvInt("RULES_MAX_VENDORS", 2),
			InviteTTL:            getEnvDuration("RULES_INVITE_TTL", 7*24*time.Hour),
			DuplicateWindow:      getEnvDuration("RULES_DUPLICATE_WINDOW", 10*time.Second),
			DashboardTTL:         getEnvDuration("RULES_DASHBOARD_TTL", 5*time.Minute),
			SubmissionsPerMinute: getEnvInt("RULES_SUBMISSIONS_PER_MINUTE", 30),
			LowStockThreshold:    getEnvInt("RULES_LOW_STOCK_THRESHOLD", 5),
			Timezone:             getEnv("DASHBOARD_TIMEZONE", "UTC"),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

// Validate rejects settings the service cannot run with outside development.
func (c *Config) Validate() error {
	if c.Rules.MaxVendors < 0 {
		return errors.New("RULES_MAX_VENDORS must not be negative")
	}
	if c.Probe.InitialDelay <= 0 || c.Probe.MaxDelay < c.Probe.InitialDelay {
		return fmt.Errorf("invalid probe backoff: initial=%s max=%s", c.Probe.InitialDelay, c.Probe.MaxDelay)
	}
	if _, err := time.LoadLocation(c.Rules.Timezone); err != nil {
		return fmt.Errorf("invalid DASHBOARD_TIMEZONE: %w", err)
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.Auth.JWTSecret == "" && c.Auth.AuthURL == "" {
		return errors.New("AUTH_JWT_SECRET or AUTH_URL must be set")
	}
	if c.Storage.ServiceKey == "" {
		return errors.New("STORAGE_SERVICE_KEY must be set")
	}
	return nil
}

// String masks secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{env: %s, http: %s, grpc: %s, db: %s@%s:%s/%s, redis: %s, kafka: %v, auth: *** (masked) ***}",
		c.Server.AppEnv, c.Server.HTTPPort, c.Server.GRPCPort,
		c.Postgres.User, c.Postgres.Host, c.Postgres.Port, c.Postgres.DBName,
		c.Redis.Addr, c.Kafka.Brokers)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
