package config

import (
	"fmt"
	"net/url"
)

type QueueConfig struct {
	Url               string `mapstructure:"url"`
	QueueUser         string `mapstructure:"queue-user"`
	QueuePassword     string `mapstructure:"queue-password"`
	EthereumQueueName string `mapstructure:"ethereum-queue-name"`
	PolygonQueueName  string `mapstructure:"polygon-queue-name"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Url == "" {
		return fmt.Errorf("missing queue url")
	}

	u, err := url.Parse(cfg.Url)
	if err != nil {
		return fmt.Errorf("invalid queue url: %w", err)
	}

	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return fmt.Errorf("unsupported queue scheme: %s", u.Scheme)
	}

	if cfg.QueueUser == "" {
		return fmt.Errorf("missing queue user")
	}

	if cfg.QueuePassword == "" {
		return fmt.Errorf("missing queue password")
	}

	if cfg.EthereumQueueName == "" {
		cfg.EthereumQueueName = "ethereum.eas"
	}

	if cfg.PolygonQueueName == "" {
		cfg.PolygonQueueName = "polygon.eas"
	}

	return nil
}
