package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	QueueMemory = "memory"
	QueueKafka  = "kafka"
)

type Config struct {
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`

	HTTPPort string `envconfig:"HTTP_PORT" default:":8080"`
	GrpcPort string `envconfig:"GRPC_PORT" default:":50051"`

	LogLevel  string `envconfig:"LOG_LEVEL"  default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	PaystackBaseURL     string        `envconfig:"PAYSTACK_BASE_URL"     default:"https://api.paystack.co"`
	PaystackSecretKey   string        `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackTimeout     time.Duration `envconfig:"PAYSTACK_TIMEOUT"      default:"10s"`
	PaystackCallbackURL string        `envconfig:"PAYSTACK_CALLBACK_URL"`

	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `envconfig:"TWILIO_PHONE_NUMBER"`

	QueueBackend           string   `envconfig:"QUEUE_BACKEND"            default:"memory"`
	KafkaBrokers           []string `envconfig:"KAFKA_BROKERS"`
	KafkaNotificationTopic string   `envconfig:"KAFKA_NOTIFICATION_TOPIC" default:"shoplit.notifications"`
	KafkaConsumerGroup     string   `envconfig:"KAFKA_CONSUMER_GROUP"     default:"shoplit-notifier"`

	NotificationWorkers int           `envconfig:"NOTIFICATION_WORKERS" default:"4"`
	OutboxPollInterval  time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize     int           `envconfig:"OUTBOX_BATCH_SIZE"    default:"50"`
}

var (
	config  Config
	loadErr error
	once    sync.Once
)

// LoadConfig reads an optional .env file and the environment once per process.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		var cfg *Config
		cfg, loadErr = Process()
		if loadErr != nil {
			return
		}
		config = *cfg
		logger.Infof("Configuration loaded: HTTP Port=%s, GRPC Port=%s, Storage=%s, Queue=%s, LogLevel=%s",
			config.HTTPPort, config.GrpcPort, config.StorageDriver, config.QueueBackend, config.LogLevel)
		if config.PaystackSecretKey == "" {
			logger.Warn("Configuration loaded: PAYSTACK_SECRET_KEY is not set, gateway calls will be rejected")
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return &config, nil
}

// Process reads the environment without caching.
func Process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.QueueBackend = strings.ToLower(strings.TrimSpace(c.QueueBackend))

	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for the postgres storage driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("configuration error: unknown STORAGE_DRIVER '%s'", c.StorageDriver)
	}

	switch c.QueueBackend {
	case QueueKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("configuration error: KAFKA_BROKERS is required for the kafka queue backend")
		}
	case QueueMemory:
	default:
		return fmt.Errorf("configuration error: unknown QUEUE_BACKEND '%s'", c.QueueBackend)
	}

	if c.NotificationWorkers <= 0 {
		return fmt.Errorf("configuration error: NOTIFICATION_WORKERS must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("configuration error: OUTBOX_BATCH_SIZE must be positive")
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("configuration error: OUTBOX_POLL_INTERVAL must be positive")
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if strings.EqualFold(c.LogFormat, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", c.LogLevel, level.String())
	}
	logger.SetLevel(level)
	return logger
}
