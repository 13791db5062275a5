// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values of the enumerated settings.
const (
	TokenTypePaseto = "paseto"
	TokenTypeJWT    = "jwt"

	EventsDriverNone  = "none"
	EventsDriverKafka = "kafka"
	EventsDriverAMQP  = "amqp"

	EnvDevelopment = "development"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver       string        `mapstructure:"DB_DRIVER"`
	DBSource       string        `mapstructure:"DB_SOURCE"`
	DBLockTimeout  time.Duration `mapstructure:"DB_LOCK_TIMEOUT"`
	MigrateOnStart bool          `mapstructure:"MIGRATE_ON_START"`

	ServerAddress   string        `mapstructure:"SERVER_ADDRESS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	TokenType           string        `mapstructure:"TOKEN_TYPE"`
	TokenSymmetricKey   string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`

	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	EventsDriver string `mapstructure:"EVENTS_DRIVER"`
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`

	Environement string `mapstructure:"GO_ENV"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_LOCK_TIMEOUT", 5*time.Second)
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("TOKEN_TYPE", TokenTypePaseto)
	v.SetDefault("ACCESS_TOKEN_DURATION", time.Hour)
	v.SetDefault("ADMIN_NAME", "admin")
	v.SetDefault("EVENTS_DRIVER", EventsDriverNone)
	v.SetDefault("KAFKA_TOPIC", "ledger_events")
	v.SetDefault("AMQP_EXCHANGE", "ledger")
	v.SetDefault("GO_ENV", "production")
}

// Load read configuration from file or environment variables.
//
// The app.env file is optional, environment variables always take precedence.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"DB_SOURCE", "TOKEN_SYMMETRIC_KEY", "ADMIN_EMAIL", "ADMIN_PASSWORD", "KAFKA_BROKERS", "AMQP_URL"} {
		if err := v.BindEnv(key); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// Brokers returns the configured Kafka broker addresses.
func (c Config) Brokers() []string {
	var brokers []string

	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// Validate returns an error listing every invalid setting.
func (c Config) Validate() error {
	var problems []string

	if c.DBSource == "" {
		problems = append(problems, "DB_SOURCE is required")
	}

	if c.ServerAddress == "" {
		problems = append(problems, "SERVER_ADDRESS is required")
	}

	switch c.TokenType {
	case TokenTypePaseto, TokenTypeJWT:
	default:
		problems = append(problems, fmt.Sprintf("invalid TOKEN_TYPE %q: must be %q or %q", c.TokenType, TokenTypePaseto, TokenTypeJWT))
	}

	if len(c.TokenSymmetricKey) < 32 {
		problems = append(problems, "TOKEN_SYMMETRIC_KEY must be at least 32 characters")
	}

	if c.TokenType == TokenTypePaseto && len(c.TokenSymmetricKey) != 32 {
		problems = append(problems, "TOKEN_SYMMETRIC_KEY must be exactly 32 characters for paseto")
	}

	if c.AccessTokenDuration <= 0 {
		problems = append(problems, "ACCESS_TOKEN_DURATION must be positive")
	}

	if c.DBLockTimeout < 0 {
		problems = append(problems, "DB_LOCK_TIMEOUT cannot be negative")
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		problems = append(problems, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	switch c.EventsDriver {
	case EventsDriverNone:
	case EventsDriverKafka:
		if len(c.Brokers()) == 0 {
			problems = append(problems, "KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
		}
		if c.KafkaTopic == "" {
			problems = append(problems, "KAFKA_TOPIC is required when EVENTS_DRIVER=kafka")
		}
	case EventsDriverAMQP:
		if !strings.HasPrefix(c.AMQPURL, "amqp://") && !strings.HasPrefix(c.AMQPURL, "amqps://") {
			problems = append(problems, fmt.Sprintf("invalid AMQP_URL %q: must start with amqp:// or amqps://", c.AMQPURL))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE is required when EVENTS_DRIVER=amqp")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid EVENTS_DRIVER %q: must be one of none, kafka, amqp", c.EventsDriver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}
