package config

import (
	"os"
	"path/filepath"
)

// SourceKind selects the implementation behind a device-facing source.
type SourceKind string

const (
	// SourceSim is the built-in simulated watch.
	SourceSim SourceKind = "sim"
	// SourceMQTT bridges a watch that publishes over MQTT.
	SourceMQTT SourceKind = "mqtt"
	// SourceFile reads the passive activity state from a watched file.
	SourceFile SourceKind = "file"
)

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wearmon")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	dir := dataDir()
	if dir == "" {
		return "wearmon.db"
	}
	return filepath.Join(dir, "wearmon.db")
}

// getDefaultLogPath returns the default path for the rotated log file.
func getDefaultLogPath() string {
	dir := dataDir()
	if dir == "" {
		return "wearmon.log"
	}
	return filepath.Join(dir, "wearmon.log")
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "wearmon"
	}
	return "wearmon-" + host
}
