package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ConfigYAML(t *testing.T) {
	path := filepath.Join("..", "..", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Database.Host, "expected database.host to be set")
	assert.NotZero(t, cfg.RabbitMQ.Port, "expected rabbitmq.port to be set")
	assert.Equal(t, 0.95, cfg.Payments.CardSuccessRate)
	assert.Equal(t, 0.99, cfg.Notifications.InApp)
}

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  host: db.local\npayments:\n  card_success_rate: 0.5\n"), 0o600))

	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "bistro.orders", cfg.Kafka.Topic)
	assert.Equal(t, "bistro:order_id", cfg.Redis.Key)
	assert.Equal(t, 0.5, cfg.Payments.CardSuccessRate)
	assert.Equal(t, 0.97, cfg.Payments.PeerTransferSuccessRate)
	assert.True(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.RabbitMQEnabled())
}

func TestLoad_Rates(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "absent rates keep defaults",
			yaml: "server:\n  port: 3000\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, defaultPayments, cfg.Payments)
				assert.Equal(t, defaultNotifications, cfg.Notifications)
			},
		},
		{
			name: "explicit zero disables a backend",
			yaml: "payments:\n  card_success_rate: 0\nnotifications:\n  sms: 0\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Zero(t, cfg.Payments.CardSuccessRate)
				assert.Zero(t, cfg.Notifications.SMS)
				assert.Equal(t, 0.98, cfg.Payments.WalletSuccessRate)
				assert.Equal(t, 0.95, cfg.Notifications.Email)
			},
		},
		{
			name: "explicit one always succeeds",
			yaml: "payments:\n  peer_transfer_success_rate: 1\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1.0, cfg.Payments.PeerTransferSuccessRate)
			},
		},
		{
			name:    "rate above one",
			yaml:    "payments:\n  card_success_rate: 1.5\n",
			wantErr: "payments.card_success_rate",
		},
		{
			name:    "negative rate",
			yaml:    "notifications:\n  webhook: -0.1\n",
			wantErr: "notifications.webhook",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	path := filepath.Join("..", "..", "config.yaml")
	t.Setenv("DB_PORT", "not-a-number")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConnectionURLs(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d"},
		RabbitMQ: RabbitMQConfig{Host: "r", Port: 2, User: "ru", Password: "rp"},
	}
	assert.Equal(t, "postgres://u:p@h:1/d?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, "amqp://ru:rp@r:2/", cfg.RabbitMQURL())
}
