package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gong-cli/gong/client"
)

type config struct {
	Host              string
	Port              int
	HeartbeatInterval time.Duration
	DialTimeout       time.Duration
}

type fileConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	HeartbeatInterval string `toml:"heartbeat_interval"`
	DialTimeout       string `toml:"dial_timeout"`
}

func defaultConfig() config {
	return config{
		Host:              client.DefaultHost,
		Port:              client.DefaultPort,
		HeartbeatInterval: client.DefaultHeartbeatInterval,
		DialTimeout:       client.DefaultDialTimeout,
	}
}

// loadConfig overlays a TOML file onto the defaults. Keys absent from the
// file keep their defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("loading config: %w", err)
	}

	if meta.IsDefined("host") {
		if host := strings.TrimSpace(raw.Host); host != "" {
			cfg.Host = host
		}
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return config{}, fmt.Errorf("parsing heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}
	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return config{}, fmt.Errorf("parsing dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}

	return cfg, nil
}
