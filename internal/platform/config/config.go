package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverKafka    = "kafka"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"arbiter"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"5000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	PostgresDSN   string `env:"POSTGRES_DSN"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	KeyPrefix     string `env:"STATE_KEY_PREFIX"`

	StateDriver     string `env:"STATE_DRIVER" envDefault:"redis"`
	AccountsDriver  string `env:"ACCOUNTS_DRIVER" envDefault:"postgres"`
	MessagingDriver string `env:"MESSAGING_DRIVER" envDefault:"kafka"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envDefault:"kafka:9092" envSeparator:","`
	ShadowTopic      string   `env:"SHADOW_TOPIC" envDefault:"shadow-requests"`
	ShadowGroup      string   `env:"SHADOW_GROUP" envDefault:"arbiter-shadow-group"`
	StateUpdateTopic string   `env:"STATE_UPDATE_TOPIC" envDefault:"db-state-updates"`
	StateUpdateGroup string   `env:"STATE_UPDATE_GROUP" envDefault:"arbiter-db-group"`

	RouterURL     string        `env:"ROUTER_URL" envDefault:"http://gateway:8082"`
	RouterTimeout time.Duration `env:"ROUTER_TIMEOUT" envDefault:"5s"`

	Services           []string      `env:"SERVICES" envDefault:"php,python" envSeparator:","`
	DecisionServices   []string      `env:"DECISION_SERVICES" envDefault:"php" envSeparator:","`
	DefaultServiceType string        `env:"DEFAULT_SERVICE_TYPE" envDefault:"php"`
	DecisionInterval   time.Duration `env:"DECISION_INTERVAL" envDefault:"10s"`
	MinSamples         int64         `env:"MIN_SAMPLES" envDefault:"10"`
	PromoteThreshold   float64       `env:"PROMOTE_THRESHOLD" envDefault:"99"`
	RollbackThreshold  float64       `env:"ROLLBACK_THRESHOLD" envDefault:"95"`
	WeightIncrement    float64       `env:"WEIGHT_INCREMENT" envDefault:"0.10"`
	BalanceEpsilon     float64       `env:"BALANCE_EPSILON" envDefault:"0.0001"`
	RetryDelay         time.Duration `env:"RETRY_DELAY" envDefault:"2s"`
	MismatchLogCap     int           `env:"MISMATCH_LOG_CAP" envDefault:"1000"`
	RollbackLogCap     int           `env:"ROLLBACK_LOG_CAP" envDefault:"100"`
	ScoreMode          string        `env:"SCORE_MODE" envDefault:"combined"`
	DedupEnabled       bool          `env:"DEDUP_ENABLED" envDefault:"false"`
	DedupTTL           time.Duration `env:"DEDUP_TTL" envDefault:"24h"`
}

// Load reads an optional dotenv file, then the process environment. Variables
// already set in the environment win over the file.
func Load() (Config, error) {
	if path := strings.TrimSpace(os.Getenv("ENV_FILE")); path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Services = normalizeList(cfg.Services)
	cfg.DecisionServices = normalizeList(cfg.DecisionServices)
	cfg.KafkaBrokers = normalizeList(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Services) == 0 {
		errs = append(errs, errors.New("SERVICES must list at least one service"))
	}
	for _, service := range c.DecisionServices {
		if !slices.Contains(c.Services, service) {
			errs = append(errs, fmt.Errorf("DECISION_SERVICES entry %q is not in SERVICES", service))
		}
	}
	if c.MinSamples < 1 {
		errs = append(errs, errors.New("MIN_SAMPLES must be at least 1"))
	}
	if c.PromoteThreshold < 0 || c.PromoteThreshold > 100 {
		errs = append(errs, errors.New("PROMOTE_THRESHOLD must be within [0, 100]"))
	}
	if c.RollbackThreshold < 0 || c.RollbackThreshold > c.PromoteThreshold {
		errs = append(errs, errors.New("ROLLBACK_THRESHOLD must be within [0, PROMOTE_THRESHOLD]"))
	}
	if c.WeightIncrement <= 0 || c.WeightIncrement > 1 {
		errs = append(errs, errors.New("WEIGHT_INCREMENT must be within (0, 1]"))
	}
	if c.BalanceEpsilon <= 0 {
		errs = append(errs, errors.New("BALANCE_EPSILON must be positive"))
	}
	if c.DecisionInterval <= 0 {
		errs = append(errs, errors.New("DECISION_INTERVAL must be positive"))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, errors.New("RETRY_DELAY must be positive"))
	}
	if c.RouterTimeout <= 0 {
		errs = append(errs, errors.New("ROUTER_TIMEOUT must be positive"))
	}
	if c.ScoreMode != "combined" && c.ScoreMode != "split" {
		errs = append(errs, fmt.Errorf("SCORE_MODE %q must be combined or split", c.ScoreMode))
	}
	if !oneOf(c.StateDriver, DriverRedis, DriverMemory) {
		errs = append(errs, fmt.Errorf("STATE_DRIVER %q must be redis or memory", c.StateDriver))
	}
	if !oneOf(c.AccountsDriver, DriverPostgres, DriverMemory) {
		errs = append(errs, fmt.Errorf("ACCOUNTS_DRIVER %q must be postgres or memory", c.AccountsDriver))
	}
	if !oneOf(c.MessagingDriver, DriverKafka, DriverMemory) {
		errs = append(errs, fmt.Errorf("MESSAGING_DRIVER %q must be kafka or memory", c.MessagingDriver))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateIngest checks the settings only the ingesting process needs. The
// API process never opens Postgres or the broker.
func (c Config) ValidateIngest() error {
	var errs []error
	if c.AccountsDriver == DriverPostgres && strings.TrimSpace(c.PostgresDSN) == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required when ACCOUNTS_DRIVER=postgres"))
	}
	if c.MessagingDriver == DriverKafka && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when MESSAGING_DRIVER=kafka"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" && !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	return out
}

func oneOf(value string, options ...string) bool {
	return slices.Contains(options, value)
}
