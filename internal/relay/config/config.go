// Package config загружает конфигурацию relay-сервера.
// Порядок источников: значения по умолчанию, затем TOML-файл,
// затем переменные окружения с префиксом FRAMEDECK_.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the relay server configuration
type Config struct {
	Server struct {
		Addr            string        `koanf:"addr"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"server"`

	Storage struct {
		Path string `koanf:"path"`
	} `koanf:"storage"`

	Auth struct {
		// Secret ключ подписи JWT; пустой ключ отключает аутентификацию
		Secret   string        `koanf:"secret"`
		TokenTTL time.Duration `koanf:"token_ttl"`
	} `koanf:"auth"`

	RateLimit struct {
		Enabled bool          `koanf:"enabled"`
		Rate    int           `koanf:"rate"`
		Window  time.Duration `koanf:"window"`
	} `koanf:"rate_limit"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// Load загружает конфигурацию. Пустой configPath означает поиск по
// стандартным путям; отсутствие файла не является ошибкой.
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// значения по умолчанию
	_ = k.Load(confmap.Provider(map[string]interface{}{
		"server.addr":             ":8080",
		"server.shutdown_timeout": "10s",
		"storage.path":            "relay.db",
		"auth.secret":             "",
		"auth.token_ttl":          "24h",
		"rate_limit.enabled":      true,
		"rate_limit.rate":         60,
		"rate_limit.window":       "1m",
		"log.level":               "info",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./relay.toml", "$HOME/.framedeck/relay.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Двойное подчеркивание разделяет уровни вложенности:
	// FRAMEDECK_SERVER__ADDR -> server.addr,
	// FRAMEDECK_RATE_LIMIT__ENABLED -> rate_limit.enabled
	_ = k.Load(env.Provider("FRAMEDECK_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "FRAMEDECK_")), "__", ".")
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate проверяет согласованность конфигурации
func Validate(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if config.RateLimit.Enabled && config.RateLimit.Rate <= 0 {
		return fmt.Errorf("rate limit rate must be positive")
	}

	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.Log.Level)
	}

	return nil
}
