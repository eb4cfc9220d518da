package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	EndpointAddrHTTP string        `env:"SECRETWALL_ADDR"`
	DatabaseDSN      string        `env:"SECRETWALL_DATABASE_DSN"`
	ProviderSecret   string        `env:"SECRETWALL_PROVIDER_SECRET"`
	SessionTTL       time.Duration `env:"SECRETWALL_SESSION_TTL"`
}

// parseEnv overlays values from the environment. Unset variables leave the
// current values alone.
func parseEnv(config *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.ProviderSecret != "" {
		config.ProviderSecret = c.ProviderSecret
	}
	if c.SessionTTL != 0 {
		config.SessionTTL = c.SessionTTL
	}
}
