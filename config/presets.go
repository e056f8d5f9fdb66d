package config

import (
	"fmt"
	"math"
)

// Preset is a named set of solver overrides. The *PerResolution fields are
// multiplied by the resolution index and added to the base value. A preset
// with an Emission shape also replaces the seeded particles.
type Preset struct {
	Name                    string  `yaml:"name"`
	Iterations              int     `yaml:"iterations,omitempty"`
	IterationsPerResolution int     `yaml:"iterations_per_resolution,omitempty"`
	SpinDegrees             float64 `yaml:"spin_degrees,omitempty"`
	FrictionSlider          float64 `yaml:"friction_slider,omitempty"`
	MaxSpeed                float64 `yaml:"max_speed,omitempty"`
	MaxSpeedPerResolution   float64 `yaml:"max_speed_per_resolution,omitempty"`
	Emission                string  `yaml:"emission,omitempty"`
	Invert                  bool    `yaml:"invert,omitempty"`
}

// PresetNone leaves the current parameters untouched.
const PresetNone = "none"

// Range of the iterations control. Every preset stays within it at every
// resolution.
const (
	MinIterations = 1
	MaxIterations = 16
)

// Preset returns the preset with the given name.
func (c *Config) Preset(name string) (Preset, error) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
}

// PresetNames lists preset names in config order.
func (c *Config) PresetNames() []string {
	names := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		names[i] = p.Name
	}
	return names
}

// Apply returns sim with the preset's overrides for the given resolution index.
func (p Preset) Apply(sim SimConfig, resolution int) SimConfig {
	if p.Name == PresetNone || p.Name == "" {
		return sim
	}
	sim.Iterations = p.Iterations + p.IterationsPerResolution*resolution
	sim.Spin = p.SpinDegrees * math.Pi / 180
	sim.Friction, sim.BoundaryFriction = FrictionFromSlider(p.FrictionSlider)
	sim.MaxSpeed = p.MaxSpeed + p.MaxSpeedPerResolution*float64(resolution)
	return sim
}

// Reseeds reports whether applying the preset restarts the simulation
// from a new emission.
func (p Preset) Reseeds() bool {
	return p.Emission != ""
}

// ApplyEmission returns em with the preset's shape and inversion. It
// returns em unchanged for presets that keep the current particles.
func (p Preset) ApplyEmission(em EmissionConfig) EmissionConfig {
	if !p.Reseeds() {
		return em
	}
	em.Shape = p.Emission
	em.Invert = p.Invert
	return em
}
