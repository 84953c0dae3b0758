package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	NodeID         string `env:"NODE_ID"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	Host           string `env:"HOST,required=true"`
	Port           int    `env:"PORT,required=true"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	// BusAddr is the broker address, empty runs the node on an in-process bus.
	BusAddr          string        `env:"BUS_ADDR"`
	BusTopic         string        `env:"BUS_TOPIC,default=planning-poker"`
	BusSecret        string        `env:"BUS_SECRET"`
	BusTokenDuration time.Duration `env:"BUS_TOKEN_DURATION,default=24h"`
	BusRetryTimeout  time.Duration `env:"BUS_RETRY_TIMEOUT,default=5s"`

	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	BufferTimeout   time.Duration `env:"BUFFER_TIMEOUT,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=10s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`

	ClientInactivityTimeout         time.Duration `env:"CLIENT_INACTIVITY_TIMEOUT,required=true"`
	ClientInactivityCheckInterval   time.Duration `env:"CLIENT_INACTIVITY_CHECK_INTERVAL,required=true"`
	SessionExpiration               time.Duration `env:"SESSION_EXPIRATION,required=true"`
	BusInitializationTimeout        time.Duration `env:"BUS_INITIALIZATION_TIMEOUT,required=true"`
	BusMessageTimeout               time.Duration `env:"BUS_MESSAGE_TIMEOUT,required=true"`
	SubscriptionMaintenanceInterval time.Duration `env:"SUBSCRIPTION_MAINTENANCE_INTERVAL,required=true"`
	SubscriptionInactivityTimeout   time.Duration `env:"SUBSCRIPTION_INACTIVITY_TIMEOUT,required=true"`
	LongPollTimeout                 time.Duration `env:"LONG_POLL_TIMEOUT,default=30s"`
}

// Validate completes defaults that cannot be expressed as tags and rejects
// inconsistent timeouts.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		c.NodeID = uuid.NewString()
	}
	if c.BusAddr != "" && c.BusSecret == "" {
		return fmt.Errorf("BUS_SECRET is required when BUS_ADDR is set")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE must be positive, got %d", c.BufferSize)
	}
	durations := map[string]time.Duration{
		"BUS_TOKEN_DURATION":                c.BusTokenDuration,
		"BUS_RETRY_TIMEOUT":                 c.BusRetryTimeout,
		"BUFFER_TIMEOUT":                    c.BufferTimeout,
		"SINK_TIMEOUT":                      c.SinkTimeout,
		"RESTART_INTERVAL":                  c.RestartInterval,
		"METRIC_INTERVAL":                   c.MetricInterval,
		"CLIENT_INACTIVITY_TIMEOUT":         c.ClientInactivityTimeout,
		"CLIENT_INACTIVITY_CHECK_INTERVAL":  c.ClientInactivityCheckInterval,
		"SESSION_EXPIRATION":                c.SessionExpiration,
		"BUS_INITIALIZATION_TIMEOUT":        c.BusInitializationTimeout,
		"BUS_MESSAGE_TIMEOUT":               c.BusMessageTimeout,
		"SUBSCRIPTION_MAINTENANCE_INTERVAL": c.SubscriptionMaintenanceInterval,
		"SUBSCRIPTION_INACTIVITY_TIMEOUT":   c.SubscriptionInactivityTimeout,
		"LONG_POLL_TIMEOUT":                 c.LongPollTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.BusMessageTimeout > c.BusInitializationTimeout {
		return fmt.Errorf("BUS_MESSAGE_TIMEOUT (%s) must not exceed BUS_INITIALIZATION_TIMEOUT (%s)",
			c.BusMessageTimeout, c.BusInitializationTimeout)
	}
	if c.SubscriptionInactivityTimeout <= c.SubscriptionMaintenanceInterval {
		return fmt.Errorf("SUBSCRIPTION_INACTIVITY_TIMEOUT (%s) must exceed SUBSCRIPTION_MAINTENANCE_INTERVAL (%s)",
			c.SubscriptionInactivityTimeout, c.SubscriptionMaintenanceInterval)
	}
	return nil
}
