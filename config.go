package main

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY,required=true"`
	AnthropicModel  string        `env:"ANTHROPIC_MODEL,default=claude-haiku-4-5-20251001"`
	ClassifyTimeout time.Duration `env:"CLASSIFY_TIMEOUT,default=30s"`
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT,default=8080"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE,default=ko"`
	EventHistory    int           `env:"EVENT_HISTORY,default=200"`
	SlackBotToken   string        `env:"SLACK_BOT_TOKEN"`
	SlackChannel    string        `env:"SLACK_CHANNEL"`
}

// LoadConfig reads the configuration from es.
func LoadConfig(es env.EnvSet) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.AnthropicAPIKey == "" {
		return Config{}, fmt.Errorf("config: ANTHROPIC_API_KEY must be set")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
