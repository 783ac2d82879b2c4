// File path: internal/sqldb/config.go
package sqldb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DSN          string `json:"dsn"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`

	QueryTimeout       time.Duration `json:"-"`
	QueryTimeoutString string        `json:"query_timeout"`

	MaxRows int `json:"max_rows"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.DSN) != "" {
		result.DSN = strings.TrimSpace(override.DSN)
	}
	if override.MaxOpenConns > 0 {
		result.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		result.MaxIdleConns = override.MaxIdleConns
	}
	if override.QueryTimeout > 0 {
		result.QueryTimeout = override.QueryTimeout
	}
	if strings.TrimSpace(override.QueryTimeoutString) != "" {
		result.QueryTimeoutString = strings.TrimSpace(override.QueryTimeoutString)
	}
	if override.MaxRows > 0 {
		result.MaxRows = override.MaxRows
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("DATABASE_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

// queryCeiling caps every statement regardless of configuration so a runaway
// query cannot hold a connection indefinitely.
const queryCeiling = 30 * time.Second

func (c *Config) applyDefaults() {
	if c.QueryTimeout <= 0 {
		if c.QueryTimeoutString != "" {
			if parsed, err := time.ParseDuration(c.QueryTimeoutString); err == nil {
				c.QueryTimeout = parsed
			}
		}
		if c.QueryTimeout <= 0 {
			c.QueryTimeout = queryCeiling
		}
	}
	if c.QueryTimeout > queryCeiling {
		c.QueryTimeout = queryCeiling
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 8
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 4
	}
	if c.MaxRows <= 0 {
		c.MaxRows = 1000
	}
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read database config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse database config: %w", err)
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN")); dsn != "" {
		cfg.DSN = dsn
	}
	if timeout := strings.TrimSpace(os.Getenv("DATABASE_QUERY_TIMEOUT")); timeout != "" {
		cfg.QueryTimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.QueryTimeout = parsed
		}
	}
	if maxOpen := strings.TrimSpace(os.Getenv("DATABASE_MAX_OPEN_CONNS")); maxOpen != "" {
		value, err := strconv.Atoi(maxOpen)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_MAX_OPEN_CONNS: %w", err)
		}
		if value > 0 {
			cfg.MaxOpenConns = value
		}
	}
	if maxRows := strings.TrimSpace(os.Getenv("DATABASE_MAX_ROWS")); maxRows != "" {
		value, err := strconv.Atoi(maxRows)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_MAX_ROWS: %w", err)
		}
		if value > 0 {
			cfg.MaxRows = value
		}
	}
	return cfg, nil
}
