package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/dealkeeper/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into
// the runtime Config struct.
type JsonConfig struct {
	EndpointAddr  string `json:"endpoint_addr"`
	DatabaseDSN   string `json:"database_dsn"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       *int   `json:"redis_db"`
	SecretKey     string `json:"secret_key"`
	BcryptCost    *int   `json:"bcrypt_cost"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags;
// if neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// Only fields present in the file override the current values; absent
// string fields are left untouched so defaults survive a partial file.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
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

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.RedisPassword != "" {
		config.RedisPassword = c.RedisPassword
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
}
