// File path: internal/cache/config.go
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config controls the Redis-backed cache store. When Addr is empty the
// store is considered unconfigured and the service falls back to the noop
// store (pass-through mode, every lookup misses).
type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`

	DialTimeout       time.Duration `json:"-"`
	DialTimeoutString string        `json:"dial_timeout"`

	OpTimeout       time.Duration `json:"-"`
	OpTimeoutString string        `json:"op_timeout"`

	ScanCount int64 `json:"scan_count"`
}

// Enabled reports whether a store address was configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Addr) != "" {
		result.Addr = strings.TrimSpace(override.Addr)
	}
	if strings.TrimSpace(override.Password) != "" {
		result.Password = override.Password
	}
	if override.DB > 0 {
		result.DB = override.DB
	}
	if override.DialTimeout > 0 {
		result.DialTimeout = override.DialTimeout
	}
	if strings.TrimSpace(override.DialTimeoutString) != "" {
		result.DialTimeoutString = strings.TrimSpace(override.DialTimeoutString)
	}
	if override.OpTimeout > 0 {
		result.OpTimeout = override.OpTimeout
	}
	if strings.TrimSpace(override.OpTimeoutString) != "" {
		result.OpTimeoutString = strings.TrimSpace(override.OpTimeoutString)
	}
	if override.ScanCount > 0 {
		result.ScanCount = override.ScanCount
	}
	return result
}

// LoadConfig resolves the cache configuration from an optional JSON file
// (REDIS_CONFIG_FILE) overlaid with environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("REDIS_CONFIG_FILE")); path != "" {
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

func (c *Config) applyDefaults() {
	if c.DialTimeout <= 0 {
		if c.DialTimeoutString != "" {
			if parsed, err := time.ParseDuration(c.DialTimeoutString); err == nil {
				c.DialTimeout = parsed
			}
		}
		if c.DialTimeout <= 0 {
			c.DialTimeout = 5 * time.Second
		}
	}
	if c.OpTimeout <= 0 {
		if c.OpTimeoutString != "" {
			if parsed, err := time.ParseDuration(c.OpTimeoutString); err == nil {
				c.OpTimeout = parsed
			}
		}
		if c.OpTimeout <= 0 {
			c.OpTimeout = 2 * time.Second
		}
	}
	if c.ScanCount <= 0 {
		c.ScanCount = 200
	}
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read redis config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse redis config: %w", err)
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		cfg.Addr = addr
	}
	if password := strings.TrimSpace(os.Getenv("REDIS_PASSWORD")); password != "" {
		cfg.Password = password
	}
	if db := strings.TrimSpace(os.Getenv("REDIS_DB")); db != "" {
		value, err := strconv.Atoi(db)
		if err != nil {
			return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
		}
		if value > 0 {
			cfg.DB = value
		}
	}
	if timeout := strings.TrimSpace(os.Getenv("REDIS_DIAL_TIMEOUT")); timeout != "" {
		cfg.DialTimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.DialTimeout = parsed
		}
	}
	if timeout := strings.TrimSpace(os.Getenv("REDIS_OP_TIMEOUT")); timeout != "" {
		cfg.OpTimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.OpTimeout = parsed
		}
	}
	if count := strings.TrimSpace(os.Getenv("REDIS_SCAN_COUNT")); count != "" {
		value, err := strconv.ParseInt(count, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse REDIS_SCAN_COUNT: %w", err)
		}
		if value > 0 {
			cfg.ScanCount = value
		}
	}
	return cfg, nil
}
