package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// BROKER_ADDR points at a running broker; the scenarios are skipped without it.
	BrokerAddr string `envconfig:"BROKER_ADDR"`
	BusSecret  string `envconfig:"BUS_SECRET"`
	BusTopic   string `envconfig:"E2E_BUS_TOPIC" default:"planning-poker-e2e"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
