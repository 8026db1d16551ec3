// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath      string
	LogFile           string
	LogLevel          string
	MeasurementSource SourceKind
	ActivitySource    SourceKind
	ActivityStateFile string
	ScenarioPath      string
	ExerciseType      string
	MQTT              MQTTConfig
	HeartRateAlertBPM float64
	SleepLookback     time.Duration
	HistoryLookback   time.Duration
	UITickInterval    time.Duration
}

// MQTTConfig configures the MQTT device bridge.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Default values
const (
	defaultSleepLookback     = 24 * time.Hour
	defaultHistoryLookback   = 72 * time.Hour
	defaultUITickInterval    = time.Second
	defaultHeartRateAlertBPM = 170
	defaultMQTTBroker        = "tcp://localhost:1883"
	defaultMQTTTopicPrefix   = "wearmon"
	defaultExerciseType      = "running"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:      getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		LogFile:           getEnvString("LOG_FILE", getDefaultLogPath()),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
		MeasurementSource: SourceKind(strings.ToLower(getEnvString("MEASUREMENT_SOURCE", string(SourceSim)))),
		ActivitySource:    SourceKind(strings.ToLower(getEnvString("ACTIVITY_SOURCE", ""))),
		ActivityStateFile: getEnvString("ACTIVITY_STATE_FILE", ""),
		ScenarioPath:      getEnvString("SCENARIO_PATH", ""),
		ExerciseType:      getEnvString("EXERCISE_TYPE", defaultExerciseType),
		MQTT: MQTTConfig{
			Broker:      getEnvString("MQTT_BROKER", defaultMQTTBroker),
			ClientID:    getEnvString("MQTT_CLIENT_ID", defaultClientID()),
			Username:    getEnvString("MQTT_USERNAME", ""),
			Password:    getEnvString("MQTT_PASSWORD", ""),
			TopicPrefix: getEnvString("MQTT_TOPIC_PREFIX", defaultMQTTTopicPrefix),
		},
		HeartRateAlertBPM: getEnvFloat("HEART_RATE_ALERT_BPM", defaultHeartRateAlertBPM),
		SleepLookback:     getEnvDuration("SLEEP_LOOKBACK", defaultSleepLookback),
		HistoryLookback:   getEnvDuration("HISTORY_LOOKBACK", defaultHistoryLookback),
		UITickInterval:    getEnvDuration("UI_TICK_INTERVAL", defaultUITickInterval),
	}

	// The passive activity stream follows the measurement source unless a
	// state file or an explicit source is configured.
	if cfg.ActivitySource == "" {
		if cfg.ActivityStateFile != "" {
			cfg.ActivitySource = SourceFile
		} else {
			cfg.ActivitySource = cfg.MeasurementSource
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that enumerated values and durations are usable.
func (c *Config) Validate() error {
	switch c.MeasurementSource {
	case SourceSim, SourceMQTT:
	default:
		return fmt.Errorf("MEASUREMENT_SOURCE must be %q or %q, got %q", SourceSim, SourceMQTT, c.MeasurementSource)
	}

	switch c.ActivitySource {
	case SourceSim, SourceMQTT:
	case SourceFile:
		if c.ActivityStateFile == "" {
			return fmt.Errorf("ACTIVITY_STATE_FILE is required when ACTIVITY_SOURCE is %q", SourceFile)
		}
	default:
		return fmt.Errorf("ACTIVITY_SOURCE must be %q, %q or %q, got %q", SourceSim, SourceMQTT, SourceFile, c.ActivitySource)
	}

	if c.SleepLookback <= 0 || c.HistoryLookback <= 0 {
		return fmt.Errorf("SLEEP_LOOKBACK and HISTORY_LOOKBACK must be positive")
	}
	if c.UITickInterval <= 0 {
		return fmt.Errorf("UI_TICK_INTERVAL must be positive")
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "wearmon", ".env"),
			filepath.Join(home, ".wearmon", ".env"),
		)
	}

	// Parent directory (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
