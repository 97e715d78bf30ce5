package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bistro services
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	RabbitMQ      RabbitMQConfig     `yaml:"rabbitmq"`
	Redis         RedisConfig        `yaml:"redis"`
	Kafka         KafkaConfig        `yaml:"kafka"`
	Payments      PaymentsConfig     `yaml:"payments"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port         int `yaml:"port"`
	TrackingPort int `yaml:"tracking_port"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// RedisConfig holds the order id sequence location
type RedisConfig struct {
	Addr string `yaml:"addr"`
	Key  string `yaml:"key"`
}

// KafkaConfig holds the order event stream location
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// PaymentsConfig holds the simulated success rate of each payment backend
type PaymentsConfig struct {
	CardSuccessRate         float64 `yaml:"card_success_rate"`
	PeerTransferSuccessRate float64 `yaml:"peer_transfer_success_rate"`
	WalletSuccessRate       float64 `yaml:"wallet_success_rate"`
}

// NotificationConfig holds the simulated delivery rate of each channel
type NotificationConfig struct {
	SMS     float64 `yaml:"sms"`
	Email   float64 `yaml:"email"`
	Push    float64 `yaml:"push"`
	InApp   float64 `yaml:"in_app"`
	Slack   float64 `yaml:"slack"`
	Webhook float64 `yaml:"webhook"`
}

var (
	defaultPayments = PaymentsConfig{
		CardSuccessRate:         0.95,
		PeerTransferSuccessRate: 0.97,
		WalletSuccessRate:       0.98,
	}
	defaultNotifications = NotificationConfig{
		SMS:     0.98,
		Email:   0.95,
		Push:    0.90,
		InApp:   0.99,
		Slack:   0.97,
		Webhook: 0.93,
	}
)

// Load reads configuration from a YAML file and applies environment overrides
func Load(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	// rates are prefilled so an explicit 0 in the file survives decoding
	cfg := &Config{Payments: defaultPayments, Notifications: defaultNotifications}
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validateRates(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables when they are set
func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"DB_HOST":           &c.Database.Host,
		"DB_USER":           &c.Database.User,
		"DB_PASSWORD":       &c.Database.Password,
		"DB_NAME":           &c.Database.Database,
		"RABBITMQ_HOST":     &c.RabbitMQ.Host,
		"RABBITMQ_USER":     &c.RabbitMQ.User,
		"RABBITMQ_PASSWORD": &c.RabbitMQ.Password,
		"REDIS_ADDR":        &c.Redis.Addr,
		"KAFKA_TOPIC":       &c.Kafka.Topic,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"SERVER_PORT":   &c.Server.Port,
		"DB_PORT":       &c.Database.Port,
		"RABBITMQ_PORT": &c.RabbitMQ.Port,
	}
	for name, dst := range intVars {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", name, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.TrackingPort == 0 {
		c.Server.TrackingPort = 3001
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "bistro:order_id"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "bistro.orders"
	}
}

// validateRates rejects any success rate outside [0, 1]
func (c *Config) validateRates() error {
	rates := []struct {
		name string
		v    float64
	}{
		{"payments.card_success_rate", c.Payments.CardSuccessRate},
		{"payments.peer_transfer_success_rate", c.Payments.PeerTransferSuccessRate},
		{"payments.wallet_success_rate", c.Payments.WalletSuccessRate},
		{"notifications.sms", c.Notifications.SMS},
		{"notifications.email", c.Notifications.Email},
		{"notifications.push", c.Notifications.Push},
		{"notifications.in_app", c.Notifications.InApp},
		{"notifications.slack", c.Notifications.Slack},
		{"notifications.webhook", c.Notifications.Webhook},
	}
	for _, r := range rates {
		if math.IsNaN(r.v) || r.v < 0 || r.v > 1 {
			return fmt.Errorf("invalid %s: %v must be between 0 and 1", r.name, r.v)
		}
	}
	return nil
}

// DatabaseEnabled reports whether a PostgreSQL host is configured
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// RabbitMQEnabled reports whether a RabbitMQ host is configured
func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQ.Host != ""
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
