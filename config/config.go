// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is returned by Validate for values the engine cannot run with.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Domain    DomainConfig    `yaml:"domain"`
	Sim       SimConfig       `yaml:"sim"`
	Frame     FrameConfig     `yaml:"frame"`
	Backend   BackendConfig   `yaml:"backend"`
	Emission  EmissionConfig  `yaml:"emission"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Presets   []Preset        `yaml:"presets"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds viewer window parameters.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
}

// DomainConfig describes the simulated square and its seeding resolution.
type DomainConfig struct {
	GridMax       float64 `yaml:"grid_max"`       // Domain spans [-GridMax, GridMax]
	BoundaryRatio float64 `yaml:"boundary_ratio"` // Boundary half-extent as a fraction of GridMax
	Resolutions   []int   `yaml:"resolutions"`    // Seeding grid cells per axis, selectable
	Resolution    int     `yaml:"resolution"`     // Index into Resolutions
}

// SimConfig holds the solver parameters that may change between frames.
type SimConfig struct {
	Gravity          float64 `yaml:"gravity"`
	Friction         float64 `yaml:"friction"`          // Total particle friction per substep, [0,1]
	BoundaryFriction float64 `yaml:"boundary_friction"` // Total boundary friction per substep, [0,1]
	Iterations       int     `yaml:"iterations"`        // Constraint iterations per substep
	MaxSpeed         float64 `yaml:"max_speed"`         // Clamp on extrapolated full-frame speed
	Orientation      float64 `yaml:"orientation"`       // Boundary orientation in radians
	Substeps         int     `yaml:"substeps"`
	Spin             float64 `yaml:"spin"` // Orientation increment per displayed frame
}

// FrameConfig holds displayed-frame timing.
type FrameConfig struct {
	Duration float64 `yaml:"duration"` // Simulated seconds per displayed frame
	Warmup   float64 `yaml:"warmup"`   // Displayed seconds before the first advance
}

// BackendConfig selects and sizes the execution backend.
type BackendConfig struct {
	Mode              string `yaml:"mode"`
	MaxNeighbors      int    `yaml:"max_neighbors"`
	Workers           int    `yaml:"workers"`
	ParallelThreshold int    `yaml:"parallel_threshold"`
}

// Emission shapes.
const (
	EmitCircle  = "circle"
	EmitOutline = "outline"
)

// EmissionConfig holds the default seeding shapes.
type EmissionConfig struct {
	Shape        string         `yaml:"shape"` // circle | outline
	Center       [2]float64     `yaml:"center"`
	Radius       float64        `yaml:"radius"`
	ClickRadius  float64        `yaml:"click_radius"`
	Outline      [][][2]float64 `yaml:"outline"`       // Polylines in outline units, filled by the even-odd rule
	OutlineScale float64        `yaml:"outline_scale"` // Simulation units per outline unit
	Invert       bool           `yaml:"invert"`        // Seed everywhere the shape is not
}

// TelemetryConfig holds stats and output parameters.
type TelemetryConfig struct {
	StatsWindow int    `yaml:"stats_window"`
	OutputDir   string `yaml:"output_dir"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// DerivedConfig holds precomputed values derived from other config fields.
type DerivedConfig struct {
	NumGridCells   int     // Domain.Resolutions[Domain.Resolution]
	CellSize       float64 // 2*GridMax/NumGridCells
	ParticleRadius float64 // CellSize/2
	Diameter       float64 // CellSize
	Origin         float64 // -GridMax
	HalfExtent     float64 // BoundaryRatio*GridMax
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Domain.GridMax <= 0 {
		return fmt.Errorf("%w: domain.grid_max must be positive", ErrInvalidConfig)
	}
	if len(c.Domain.Resolutions) == 0 {
		return fmt.Errorf("%w: domain.resolutions is empty", ErrInvalidConfig)
	}
	for _, r := range c.Domain.Resolutions {
		if r < 2 {
			return fmt.Errorf("%w: resolution %d is below 2 cells", ErrInvalidConfig, r)
		}
	}
	if c.Domain.Resolution < 0 || c.Domain.Resolution >= len(c.Domain.Resolutions) {
		return fmt.Errorf("%w: domain.resolution %d out of range", ErrInvalidConfig, c.Domain.Resolution)
	}
	if c.Domain.BoundaryRatio <= 0 || c.Domain.BoundaryRatio > 1 {
		return fmt.Errorf("%w: domain.boundary_ratio must be in (0,1]", ErrInvalidConfig)
	}
	if c.Sim.Iterations < 1 {
		return fmt.Errorf("%w: sim.iterations must be at least 1", ErrInvalidConfig)
	}
	if c.Sim.Substeps < 0 {
		return fmt.Errorf("%w: sim.substeps must not be negative", ErrInvalidConfig)
	}
	if !(c.Sim.MaxSpeed > 0) {
		return fmt.Errorf("%w: sim.max_speed must be positive", ErrInvalidConfig)
	}
	if !finite(c.Sim.Gravity) || !finite(c.Sim.Orientation) || !finite(c.Sim.Spin) {
		return fmt.Errorf("%w: sim gravity, orientation and spin must be finite", ErrInvalidConfig)
	}
	if !in01(c.Sim.Friction) || !in01(c.Sim.BoundaryFriction) {
		return fmt.Errorf("%w: friction values must be in [0,1]", ErrInvalidConfig)
	}
	if c.Backend.MaxNeighbors < 1 {
		return fmt.Errorf("%w: backend.max_neighbors must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseMode(c.Backend.Mode); err != nil {
		return err
	}
	return c.Emission.Validate()
}

// Validate checks the emission shape and its parameters.
func (e EmissionConfig) Validate() error {
	switch e.Shape {
	case "", EmitCircle:
	case EmitOutline:
		if len(e.Outline) == 0 {
			return fmt.Errorf("%w: emission.outline is empty", ErrInvalidConfig)
		}
		if !(e.OutlineScale > 0) {
			return fmt.Errorf("%w: emission.outline_scale must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown emission shape %q", ErrInvalidConfig, e.Shape)
	}
	return nil
}

// ParseMode checks a backend mode name. It returns the canonical name.
func ParseMode(s string) (string, error) {
	switch s {
	case "sequential", "parallel":
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown backend mode %q", ErrInvalidConfig, s)
}

// DefaultGravity replaces a non-finite gravity in Clamped.
const DefaultGravity = 9.81

// Clamped returns a copy of s with every field forced into its legal range,
// and whether anything changed. Non-finite values never pass: friction
// NaN becomes 0, infinite friction saturates, and a non-finite gravity,
// orientation or spin falls back to DefaultGravity, 0 and 0.
func (s SimConfig) Clamped() (SimConfig, bool) {
	out := s
	if out.Iterations < 1 {
		out.Iterations = 1
	}
	if out.Substeps < 0 {
		out.Substeps = 0
	}
	out.Friction = clamp01(out.Friction)
	out.BoundaryFriction = clamp01(out.BoundaryFriction)
	if math.IsInf(out.MaxSpeed, 1) {
		out.MaxSpeed = math.MaxFloat64
	}
	if !(out.MaxSpeed > 0) {
		out.MaxSpeed = math.SmallestNonzeroFloat64
	}
	if !finite(out.Gravity) {
		out.Gravity = DefaultGravity
	}
	if !finite(out.Orientation) {
		out.Orientation = 0
	}
	if !finite(out.Spin) {
		out.Spin = 0
	}
	// NaN never compares equal, so compare the two copies field by field
	// through their bits.
	return out, !sameSim(out, s)
}

func sameSim(a, b SimConfig) bool {
	return a.Iterations == b.Iterations &&
		a.Substeps == b.Substeps &&
		sameFloat(a.Gravity, b.Gravity) &&
		sameFloat(a.Friction, b.Friction) &&
		sameFloat(a.BoundaryFriction, b.BoundaryFriction) &&
		sameFloat(a.MaxSpeed, b.MaxSpeed) &&
		sameFloat(a.Orientation, b.Orientation) &&
		sameFloat(a.Spin, b.Spin)
}

func sameFloat(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NumGridCells = c.Domain.Resolutions[c.Domain.Resolution]
	c.Derived.CellSize = 2 * c.Domain.GridMax / float64(c.Derived.NumGridCells)
	c.Derived.ParticleRadius = c.Derived.CellSize * 0.5
	c.Derived.Diameter = c.Derived.CellSize
	c.Derived.Origin = -c.Domain.GridMax
	c.Derived.HalfExtent = c.Domain.BoundaryRatio * c.Domain.GridMax
}

// WithResolution returns a copy of the config using resolution index idx.
func (c *Config) WithResolution(idx int) (*Config, error) {
	if idx < 0 || idx >= len(c.Domain.Resolutions) {
		return nil, fmt.Errorf("%w: resolution %d out of range", ErrInvalidConfig, idx)
	}
	out := *c
	out.Domain.Resolution = idx
	out.computeDerived()
	return &out, nil
}

// FrictionFromSlider maps a [0,1] slider value onto particle and boundary
// friction. The curve spans roughly [0.001, 0.33] per substep.
func FrictionFromSlider(v float64) (friction, boundary float64) {
	friction = 0.001 * math.Pow(1.06, v*100)
	return friction, friction * 0.5
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func in01(v float64) bool {
	return v >= 0 && v <= 1
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
