package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	Dispatch DispatchConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Format selects the encoder: "json" or "console".
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// MailConfig holds Brevo transactional email settings.
type MailConfig struct {
	BrevoAPIKey    string
	BrevoBaseURL   string
	FromAddress    string
	FromName       string
	ReplyToAddress string
	ReplyToName    string
}

// DispatchConfig controls the communication dispatch engine.
type DispatchConfig struct {
	SweepIntervalSeconds int
	// Recipients seeds the static resolver: "Name|email|phone" entries
	// separated by semicolons.
	Recipients string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "citizen-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Mail: MailConfig{
			BrevoAPIKey:    os.Getenv("BREVO_API_KEY"),
			BrevoBaseURL:   getEnv("BREVO_BASE_URL", "https://api.brevo.com"),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "noreply@connecta.gov.br"),
			FromName:       getEnv("MAIL_FROM_NAME", "Connecta Gestor"),
			ReplyToAddress: getEnv("MAIL_REPLY_TO_ADDRESS", "atendimento@connecta.gov.br"),
			ReplyToName:    getEnv("MAIL_REPLY_TO_NAME", "Atendimento"),
		},
		Dispatch: DispatchConfig{
			SweepIntervalSeconds: getEnvAsInt("DISPATCH_SWEEP_INTERVAL_SECONDS", 60),
			Recipients: getEnv("DISPATCH_RECIPIENTS",
				"João Silva|joao@email.com|(16) 99999-0001;"+
					"Maria Santos|maria@email.com|(16) 99999-0002;"+
					"Pedro Oliveira|pedro@email.com|(16) 99999-0003"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the scheduler polling interval.
func (d DispatchConfig) SweepInterval() time.Duration {
	if d.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(d.SweepIntervalSeconds) * time.Second
}

// RecipientEntries parses the configured static recipient list.
func (d DispatchConfig) RecipientEntries() [][3]string {
	var entries [][3]string
	for _, raw := range strings.Split(d.Recipients, ";") {
		parts := strings.Split(strings.TrimSpace(raw), "|")
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, [3]string{
			strings.TrimSpace(parts[0]),
			strings.TrimSpace(parts[1]),
			strings.TrimSpace(parts[2]),
		})
	}
	return entries
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
