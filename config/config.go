// Package config loads DirtSim's tunable settings from an embedded YAML
// default file, optionally overridden by a user-supplied YAML file,
// mirroring the config.Init/MustInit/Cfg/Load pattern.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// PhysicsConfig is the single PhysicsSettingsGet/Set mutation target.
type PhysicsConfig struct {
	Gravity          float32 `yaml:"gravity"`
	Elasticity       float32 `yaml:"elasticity"`
	Timescale        float32 `yaml:"timescale"`
	PressureScale    float32 `yaml:"pressure_scale"`
	FrictionStrength float32 `yaml:"friction_strength"`
	ComCohesionRange float32 `yaml:"com_cohesion_range"`
	ComCohesionForce float32 `yaml:"com_cohesion_force"`
	AirResistance    float32 `yaml:"air_resistance"`
	MaxSpeed         float32 `yaml:"max_speed"`
	SwapEnabled      bool    `yaml:"swap_enabled"`
	GaussSeidelPasses int    `yaml:"gauss_seidel_passes"`
}

// EvolutionConfig configures the generational GA.
type EvolutionConfig struct {
	PopulationSize          int     `yaml:"population_size"`
	MaxGenerations          int     `yaml:"max_generations"`
	TournamentSize          int     `yaml:"tournament_size"`
	MaxSimulationTimeSeconds float64 `yaml:"max_simulation_time_seconds"`
	EnergyReference         float64 `yaml:"energy_reference"`
}

// MutationConfig configures genome mutation.
type MutationConfig struct {
	Rate      float64 `yaml:"rate"`
	Sigma     float64 `yaml:"sigma"`
	ResetRate float64 `yaml:"reset_rate"`
}

// LightConfig configures the radiance pipeline.
type LightConfig struct {
	AmbientColor     [3]float32 `yaml:"ambient_color"`
	AmbientIntensity float32    `yaml:"ambient_intensity"`
	AmbientBoost     float32    `yaml:"ambient_boost"`
	SkyAccessEnabled bool       `yaml:"sky_access_enabled"`
	MultiDirectional bool       `yaml:"multi_directional"`
	SunColor         [3]float32 `yaml:"sun_color"`
	SunIntensity     float32    `yaml:"sun_intensity"`
	SunEnabled       bool       `yaml:"sun_enabled"`
	DiffusionIterations int     `yaml:"diffusion_iterations"`
	DiffusionRate    float32    `yaml:"diffusion_rate"`
	AirScatterRate   float32    `yaml:"air_scatter_rate"`
	SkyAccessFalloff float32    `yaml:"sky_access_falloff"`
}

// TelemetryConfig configures CSV/log output.
type TelemetryConfig struct {
	OutputDir     string `yaml:"output_dir"`
	PerfWindow    int    `yaml:"perf_window"`
	LogEveryTicks int    `yaml:"log_every_ticks"`
}

// Config is the full tunable settings tree.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Mutation  MutationConfig  `yaml:"mutation"`
	Light     LightConfig     `yaml:"light"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

var (
	mu     sync.RWMutex
	global *Config
)

// Load parses the embedded defaults and, if path is non-empty, merges a
// user override file on top of them.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: parse embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read override %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse override %q: %w", path, err)
		}
	}
	return cfg, nil
}

// Init loads config from path (or embedded defaults if empty) and installs
// it as the process-wide config.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	mu.Lock()
	global = cfg
	mu.Unlock()
	return nil
}

// MustInit calls Init and panics on error; used by command-line entry
// points where a bad config file is a fatal startup error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(err)
	}
}

// Cfg returns the process-wide config, installing embedded defaults if
// Init has not yet been called.
func Cfg() *Config {
	mu.RLock()
	cfg := global
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}
	if err := Init(""); err != nil {
		panic(err)
	}
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Set installs cfg as the process-wide config, used by PhysicsSettingsSet
// and similar live-mutation API handlers.
func Set(cfg *Config) {
	mu.Lock()
	global = cfg
	mu.Unlock()
}

// WriteYAML serializes cfg to path, mirroring the best-config
// export in cmd/optimize.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
