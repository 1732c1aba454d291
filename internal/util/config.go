package util

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultRecordInterval is how often a breadcrumb recording samples the location source
const DefaultRecordInterval = 5 * time.Second

// DefaultDataDir returns the directory holding the local database and event logs
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wayfarer"
	}
	return filepath.Join(home, ".wayfarer")
}

// DefaultDBPath returns the default database path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "wayfarer.db")
}

// GetRecordInterval returns the configured breadcrumb sampling interval
// Non-positive values fall back to DefaultRecordInterval
func GetRecordInterval() time.Duration {
	d := viper.GetDuration("record-interval")
	if d <= 0 {
		return DefaultRecordInterval
	}
	return d
}

// GetAllowDownload returns whether on-device models may be downloaded on demand
func GetAllowDownload() bool {
	return viper.GetBool("allow-download")
}
