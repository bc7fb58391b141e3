package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "RELAY_UNIFORM_NOT_FOUND", "RELAY_EGRESS_BUFFER",
		"RABBITMQ_ENABLED", "RABBITMQ_HOST", "RABBITMQ_PORT",
		"RABBITMQ_USER", "RABBITMQ_PASSWORD", "RABBITMQ_VHOST",
	} {
		t.Setenv(key, "")
	}

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.WS.Port)
	assert.Equal(t, 256, cfg.WS.EgressBuffer)
	assert.False(t, cfg.Relay.UniformNotFound)
	assert.False(t, cfg.RabbitMq.Enabled)
	assert.Equal(t, "localhost", cfg.RabbitMq.Host)
	assert.Equal(t, 5672, cfg.RabbitMq.Port)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Contains(t, cfg.Defaults, "PORT")
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RELAY_UNIFORM_NOT_FOUND", "true")
	t.Setenv("RELAY_EGRESS_BUFFER", "16")
	t.Setenv("RABBITMQ_ENABLED", "1")
	t.Setenv("RABBITMQ_HOST", "mq")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.WS.Port)
	assert.Equal(t, 16, cfg.WS.EgressBuffer)
	assert.True(t, cfg.Relay.UniformNotFound)
	assert.True(t, cfg.RabbitMq.Enabled)
	assert.Equal(t, "mq", cfg.RabbitMq.Host)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.NotContains(t, cfg.Defaults, "PORT")
}

func TestNewRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "eighty"},
		{"bool not parseable", "RELAY_UNIFORM_NOT_FOUND", "maybe"},
		{"egress not positive", "RELAY_EGRESS_BUFFER", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := New()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
