package config

import (
	"os"
	"path/filepath"
)

// SystemConfigDir holds server.yaml on the Linux hosts the status page is
// deployed to.
const SystemConfigDir = "/etc/statuspage"

// GetEnv returns the value of key, or def when it is unset or empty.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// DefaultConfigPath returns where name is looked up when neither --config nor
// CONFIG_FILE is set.
func DefaultConfigPath(name string) string {
	return defaultConfigPath(os.Getenv("XDG_CONFIG_HOME"), name)
}

// defaultConfigPath prefers a per-user file under xdgHome, which is how the
// server is run during development, and falls back to SystemConfigDir.
func defaultConfigPath(xdgHome, name string) string {
	if xdgHome != "" {
		p := filepath.Join(xdgHome, "statuspage", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(SystemConfigDir, name)
}
