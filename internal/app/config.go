// File path: internal/app/config.go
package app

import (
	"os"
	"path/filepath"
	"strings"
)

// Config controls construction of the application container. Optional
// collaborators stay nil-or-disabled when their settings are absent; the
// service degrades rather than refuses to start.
type Config struct {
	ArtifactRoot   string
	AutoApproveSQL bool
}

// DefaultConfig returns the baseline configuration used when no overrides
// are supplied.
func DefaultConfig() Config {
	return Config{
		ArtifactRoot: filepath.Join("data", "artifacts"),
	}
}

// LoadConfig builds a Config from defaults and environment variables.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("RAGLINE_ARTIFACT_ROOT")); value != "" {
		cfg.ArtifactRoot = value
	}
	if value := strings.TrimSpace(os.Getenv("RAGLINE_AUTO_APPROVE_SQL")); value != "" {
		cfg.AutoApproveSQL = strings.EqualFold(value, "true") || value == "1"
	}
	return cfg
}
