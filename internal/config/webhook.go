package config

import "fmt"

type WebhookConfig struct {
	SigningKey     string `mapstructure:"signing-key"`
	MaxConcurrency int    `mapstructure:"max-concurrency"`
}

func (cfg *WebhookConfig) Validate() error {
	if cfg.SigningKey == "" {
		return fmt.Errorf("missing webhook signing key")
	}

	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.MaxConcurrency < 1 {
		return fmt.Errorf("webhook max concurrency must be a positive integer")
	}

	return nil
}
