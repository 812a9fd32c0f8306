package config

import (
	"fmt"
	"time"
)

type TrackerConfig struct {
	SweepInterval     time.Duration `mapstructure:"sweep-interval"`
	DefaultDeadlineMs int64         `mapstructure:"default-deadline-ms"`
	PurgeGracePeriod  time.Duration `mapstructure:"purge-grace-period"`
}

func (cfg *TrackerConfig) Validate() error {
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	if cfg.SweepInterval < time.Second {
		return fmt.Errorf("tracker sweep interval must be at least 1s")
	}

	if cfg.DefaultDeadlineMs == 0 {
		cfg.DefaultDeadlineMs = 300000
	}
	if cfg.DefaultDeadlineMs < 0 {
		return fmt.Errorf("tracker default deadline cannot be negative")
	}

	if cfg.PurgeGracePeriod == 0 {
		cfg.PurgeGracePeriod = time.Hour
	}
	if cfg.PurgeGracePeriod < 0 {
		return fmt.Errorf("tracker purge grace period cannot be negative")
	}

	return nil
}
