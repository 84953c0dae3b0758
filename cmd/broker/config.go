package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Host     string `envconfig:"BROKER_HOST" default:"0.0.0.0"`
	Port     int    `envconfig:"BROKER_PORT" default:"9090"`
	Secret   string `envconfig:"BUS_SECRET" required:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	// SubscriberBuffer is the number of messages queued per subscriber before it is dropped.
	SubscriberBuffer int `envconfig:"SUBSCRIBER_BUFFER" default:"1024"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
