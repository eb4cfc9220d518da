package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avoronov/secretwall/internal/flagx"
	"github.com/avoronov/secretwall/internal/timex"
)

// JsonConfig is the intermediate DTO for the JSON config file. It uses
// timex.Duration for interval fields so both "24h" and integer nanoseconds
// parse.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	ProviderSecret   string         `json:"provider_secret"`
	SessionTTL       timex.Duration `json:"session_ttl"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any. If the file cannot be read or contains invalid
// JSON, the function panics: a present-but-broken config file is a
// deployment error, not something to run through.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
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
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = time.Duration(c.SessionTTL.Duration)
	}
}
