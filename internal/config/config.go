package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	WS       *WebSocketconfig
	Relay    *Relayconfig
	RabbitMq *RabbitMqconfig
	Log      *Loggerconfig

	// Defaults lists the keys that fell back to their default value.
	Defaults []string
}

type WebSocketconfig struct {
	Port         int `yaml:"port"`
	EgressBuffer int `yaml:"egress_buffer"`
}

type Relayconfig struct {
	UniformNotFound bool `yaml:"uniform_not_found"`
}

type RabbitMqconfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type Loggerconfig struct {
	Level string `yaml:"level"`
}

// New reads the configuration from the environment. A .env file in the
// working directory, if present, is loaded first and never overrides
// variables that are already set.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var defaults []string

	getEnv := func(key, def string) string {
		val, ok := os.LookupEnv(key)
		if !ok || val == "" {
			defaults = append(defaults, key)
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) (int, error) {
		valStr := os.Getenv(key)
		if valStr == "" {
			defaults = append(defaults, key)
			return def, nil
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return val, nil
	}

	getEnvBool := func(key string, def bool) (bool, error) {
		valStr := os.Getenv(key)
		if valStr == "" {
			defaults = append(defaults, key)
			return def, nil
		}
		val, err := strconv.ParseBool(valStr)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return val, nil
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	egress, err := getEnvInt("RELAY_EGRESS_BUFFER", 256)
	if err != nil {
		return nil, err
	}
	if egress <= 0 {
		return nil, fmt.Errorf("RELAY_EGRESS_BUFFER: must be positive, got %d", egress)
	}
	uniform, err := getEnvBool("RELAY_UNIFORM_NOT_FOUND", false)
	if err != nil {
		return nil, err
	}
	mqEnabled, err := getEnvBool("RABBITMQ_ENABLED", false)
	if err != nil {
		return nil, err
	}
	mqPort, err := getEnvInt("RABBITMQ_PORT", 5672)
	if err != nil {
		return nil, err
	}

	cnf := &Config{
		WS: &WebSocketconfig{
			Port:         port,
			EgressBuffer: egress,
		},
		Relay: &Relayconfig{
			UniformNotFound: uniform,
		},
		RabbitMq: &RabbitMqconfig{
			Enabled:  mqEnabled,
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     mqPort,
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    os.Getenv("RABBITMQ_VHOST"),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		Defaults: defaults,
	}

	return cnf, nil
}
