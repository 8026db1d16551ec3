// Package sim provides a simulated watch that implements both the exercise
// measurement source and the passive activity source.
package sim

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services/activity"
)

// Wave describes a gauge oscillating around a base value.
type Wave struct {
	Base      float64       `yaml:"base"`
	Amplitude float64       `yaml:"amplitude"`
	Period    time.Duration `yaml:"period"`
}

// At returns the wave value elapsed into the session.
func (w Wave) At(elapsed time.Duration) float64 {
	if w.Period <= 0 || w.Amplitude == 0 {
		return w.Base
	}
	phase := 2 * math.Pi * float64(elapsed) / float64(w.Period)
	return w.Base + w.Amplitude*math.Sin(phase)
}

// ActivityStep is one entry of the passive activity script.
type ActivityStep struct {
	State string        `yaml:"state"`
	Hold  time.Duration `yaml:"hold"`
}

// Scenario drives the simulated watch.
type Scenario struct {
	Name             string         `yaml:"name"`
	Activity         []ActivityStep `yaml:"activity"`
	Unavailable      []string       `yaml:"unavailable"`
	HeartRate        Wave           `yaml:"heart_rate"`
	Speed            Wave           `yaml:"speed_mps"`
	CadenceSPM       float64        `yaml:"cadence_spm"`
	CaloriesPerTick  float64        `yaml:"calories_per_tick"`
	ElevationPerTick float64        `yaml:"elevation_per_tick"`
	Tick             time.Duration  `yaml:"tick"`
	StepsPerTick     int64          `yaml:"steps_per_tick"`
	FloorsEvery      int            `yaml:"floors_every"`
	WarmupTicks      int            `yaml:"warmup_ticks"`
}

// DefaultScenario is an easy run with a passive day around it.
func DefaultScenario() Scenario {
	return Scenario{
		Name:             "easy run",
		Tick:             time.Second,
		HeartRate:        Wave{Base: 142, Amplitude: 18, Period: 3 * time.Minute},
		Speed:            Wave{Base: 2.9, Amplitude: 0.3, Period: 5 * time.Minute},
		CadenceSPM:       164,
		StepsPerTick:     3,
		CaloriesPerTick:  0.18,
		ElevationPerTick: 0.02,
		FloorsEvery:      120,
		WarmupTicks:      3,
		Activity: []ActivityStep{
			{State: activity.RawPassive, Hold: 5 * time.Minute},
		},
	}
}

// LoadScenario reads a YAML scenario. Unset fields take the defaults.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario over the defaults.
func ParseScenario(data []byte) (Scenario, error) {
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks the scenario for values the watch cannot run with.
func (sc Scenario) Validate() error {
	if sc.Tick <= 0 {
		return fmt.Errorf("scenario tick must be positive, got %s", sc.Tick)
	}
	if sc.StepsPerTick < 0 || sc.CaloriesPerTick < 0 || sc.ElevationPerTick < 0 {
		return fmt.Errorf("scenario increments must not be negative")
	}
	for _, name := range sc.Unavailable {
		if _, ok := models.ParseMetricType(name); !ok {
			return fmt.Errorf("unknown metric %q in unavailable list", name)
		}
	}
	for i, step := range sc.Activity {
		if step.State == "" {
			return fmt.Errorf("activity step %d has no state", i)
		}
	}
	return nil
}

func (sc Scenario) unavailable() map[models.MetricType]bool {
	out := make(map[models.MetricType]bool, len(sc.Unavailable))
	for _, name := range sc.Unavailable {
		if m, ok := models.ParseMetricType(name); ok {
			out[m] = true
		}
	}
	return out
}

// frame builds the n-th frame of a session (n starts at 1).
func (sc Scenario) frame(n int, ts time.Time, startedAt time.Time, metrics []models.MetricType) models.ExerciseMetricsFrame {
	elapsed := time.Duration(n) * sc.Tick
	skip := sc.unavailable()
	warm := n > sc.WarmupTicks

	var samples []models.MetricSample
	for _, m := range metrics {
		if skip[m] {
			continue
		}
		switch m {
		case models.MetricHeartRate:
			samples = append(samples, models.NewSample(m, math.Round(sc.HeartRate.At(elapsed)), ts))
		case models.MetricSteps:
			if warm {
				samples = append(samples, models.NewSample(m, float64(sc.StepsPerTick), ts))
			}
		case models.MetricCadence:
			if warm {
				samples = append(samples, models.NewSample(m, sc.CadenceSPM, ts))
			}
		case models.MetricCalories:
			samples = append(samples, models.NewSample(m, sc.CaloriesPerTick, ts))
		case models.MetricDistance:
			if warm {
				samples = append(samples, models.NewSample(m, sc.Speed.At(elapsed)*sc.Tick.Seconds(), ts))
			}
		case models.MetricSpeed:
			if warm {
				samples = append(samples, models.NewSample(m, sc.Speed.At(elapsed), ts))
			}
		case models.MetricPace:
			if speed := sc.Speed.At(elapsed); warm && speed > 0 {
				samples = append(samples, models.NewSample(m, 1e6/speed, ts))
			}
		case models.MetricElevationGain:
			if warm {
				samples = append(samples, models.NewSample(m, sc.ElevationPerTick, ts))
			}
		case models.MetricFloors:
			if sc.FloorsEvery > 0 && n%sc.FloorsEvery == 0 {
				samples = append(samples, models.NewSample(m, 1, ts))
			}
		}
	}

	f := models.NewFrame(ts, samples...)
	f.Checkpoint = &models.ActiveDurationCheckpoint{
		Time:           ts,
		ActiveDuration: ts.Sub(startedAt),
	}
	return f
}
