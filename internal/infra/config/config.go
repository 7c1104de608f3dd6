package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	BrokerNone     = "none"
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string `env:"APP_ENV" env-default:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`

	Store    string `env:"STORE" env-default:"memory"`
	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB" env-default:"leasehub"`

	Broker           string          `env:"BROKER" env-default:"none"`
	KafkaBrokers     []string        `env:"KAFKA_BROKERS" env-separator:","`
	RabbitURL        string          `env:"RABBITMQ_URL"`
	RabbitExchange   string          `env:"RABBITMQ_EXCHANGE" env-default:"leasehub.events"`
	TopicPrefix      string          `env:"TOPIC_PREFIX" env-default:""`
	OutboxInterval   time.Duration   `env:"OUTBOX_POLL_INTERVAL" env-default:"500ms"`
	RetryBackoff     []time.Duration `env:"RETRY_BACKOFF" env-separator:"," env-default:"1s,5s,30s"`
	SessionTTL       time.Duration   `env:"SESSION_TTL" env-default:"24h"`
	BcryptCost       int             `env:"BCRYPT_COST" env-default:"10"`
	CORSAllowOrigins []string        `env:"CORS_ALLOW_ORIGINS" env-separator:"," env-default:"*"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminName     string `env:"ADMIN_NAME" env-default:"Administrator"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY" env-default:"minioadmin"`
	S3SecretKey string `env:"S3_SECRET_KEY" env-default:"minioadmin"`
	S3Bucket    string `env:"S3_ARCHIVE_BUCKET" env-default:"leasehub-archive"`
	S3UseSSL    bool   `env:"S3_USE_SSL" env-default:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.normalize()
}

func (c *Config) normalize() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.Broker = strings.ToLower(strings.TrimSpace(c.Broker))
	switch c.Store {
	case StoreMemory, "":
		c.Store = StoreMemory
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required when STORE=mongo")
		}
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	switch c.Broker {
	case BrokerNone, "":
		c.Broker = BrokerNone
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("config: KAFKA_BROKERS is required when BROKER=kafka")
		}
	case BrokerRabbitMQ:
		if c.RabbitURL == "" {
			return errors.New("config: RABBITMQ_URL is required when BROKER=rabbitmq")
		}
	default:
		return fmt.Errorf("config: unknown BROKER %q", c.Broker)
	}
	return nil
}

// ArchiveEnabled reports whether deleted listings are archived to S3.
func (c Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.S3Endpoint) != ""
}
