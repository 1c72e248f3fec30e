package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mcdev12/vallamkali/go/internal/config"
	"gopkg.in/yaml.v3"
)

// Config is the gateway's deployment configuration. A YAML file named by
// GATEWAY_CONFIG is read first and environment variables override it.
type Config struct {
	Port string `yaml:"port"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Relay struct {
		UseNATS       bool   `yaml:"use_nats"`
		NATSURL       string `yaml:"nats_url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"relay"`
	Database struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"database"`
}

func defaultConfig() *Config {
	cfg := &Config{Port: "8081"}
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Relay.NATSURL = "nats://localhost:4222"
	cfg.Relay.SubjectPrefix = "vallamkali.relay"
	cfg.Database.Enabled = true
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Port = config.GetEnv("GATEWAY_PORT", cfg.Port)
	if origins := config.GetEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
	}
	if url := config.GetEnv("NATS_URL", ""); url != "" {
		cfg.Relay.NATSURL = url
		cfg.Relay.UseNATS = true
	}
	cfg.Relay.SubjectPrefix = config.GetEnv("RELAY_SUBJECT_PREFIX", cfg.Relay.SubjectPrefix)
	if v := config.GetEnv("DB_ENABLED", ""); v != "" {
		cfg.Database.Enabled = v == "true"
	}
	return cfg, nil
}
