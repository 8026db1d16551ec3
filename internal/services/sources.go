package services

import (
	"fmt"

	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/services/activity"
	"github.com/j-veylop/wearmon/internal/services/exercise"
	"github.com/j-veylop/wearmon/internal/services/sleep"
	"github.com/j-veylop/wearmon/internal/sources/mqttbridge"
	"github.com/j-veylop/wearmon/internal/sources/sim"
	"github.com/j-veylop/wearmon/internal/sources/statefile"
)

// Sources bundles the device-side inputs of the manager.
type Sources struct {
	Measurement exercise.MeasurementSource
	Passive     activity.PassiveStateSource
	// Records defaults to the manager's database when nil.
	Records sleep.HistoricalRecordSource
	closers []func() error
}

// Close releases every source opened by OpenSources.
func (s Sources) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenSources builds the measurement and passive sources selected by cfg.
// A simulated watch or MQTT bridge is shared when both roles use it.
func OpenSources(cfg *config.Config) (Sources, error) {
	var (
		src    Sources
		watch  *sim.Watch
		bridge *mqttbridge.Bridge
	)

	getWatch := func() (*sim.Watch, error) {
		if watch != nil {
			return watch, nil
		}
		sc := sim.DefaultScenario()
		if cfg.ScenarioPath != "" {
			loaded, err := sim.LoadScenario(cfg.ScenarioPath)
			if err != nil {
				return nil, err
			}
			sc = loaded
		}
		watch = sim.New(sc)
		src.closers = append(src.closers, watch.Close)
		logger.Info("using simulated watch", "scenario", sc.Name)
		return watch, nil
	}

	getBridge := func() (*mqttbridge.Bridge, error) {
		if bridge != nil {
			return bridge, nil
		}
		client, err := mqttbridge.NewClient(&cfg.MQTT)
		if err != nil {
			return nil, err
		}
		b := mqttbridge.New(client, cfg.MQTT.TopicPrefix)
		if err := b.Connect(); err != nil {
			client.Disconnect()
			return nil, err
		}
		bridge = b
		src.closers = append(src.closers, b.Close)
		return bridge, nil
	}

	switch cfg.MeasurementSource {
	case config.SourceMQTT:
		b, err := getBridge()
		if err != nil {
			return Sources{}, fmt.Errorf("failed to open measurement source: %w", err)
		}
		src.Measurement = b
	default:
		w, err := getWatch()
		if err != nil {
			return Sources{}, fmt.Errorf("failed to open measurement source: %w", err)
		}
		src.Measurement = w
	}

	switch cfg.ActivitySource {
	case config.SourceFile:
		src.Passive = statefile.New(cfg.ActivityStateFile)
	case config.SourceMQTT:
		b, err := getBridge()
		if err != nil {
			_ = src.Close()
			return Sources{}, fmt.Errorf("failed to open activity source: %w", err)
		}
		src.Passive = b
	default:
		w, err := getWatch()
		if err != nil {
			_ = src.Close()
			return Sources{}, fmt.Errorf("failed to open activity source: %w", err)
		}
		src.Passive = w
	}

	return src, nil
}
