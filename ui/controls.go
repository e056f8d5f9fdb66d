package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/config"
)

// Controls holds the values edited by the control panel.
type Controls struct {
	Iterations     int
	SpinDegrees    float32
	FrictionSlider float32 // [0,1], mapped through config.FrictionFromSlider
	MaxSpeed       float32
	Parallel       bool
	Resolution     int
	Preset         int
}

// Changes reports which controls the user touched this frame.
type Changes struct {
	Sim        bool // iterations, spin, friction or max speed
	Backend    bool
	Resolution bool
	Preset     bool
}

// Any reports whether anything changed.
func (c Changes) Any() bool {
	return c.Sim || c.Backend || c.Resolution || c.Preset
}

// ControlPanel renders the raygui parameter panel.
type ControlPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
	visible  bool

	resolutions string // raygui combo text
	presets     string
}

// NewControlPanel creates a panel listing the configured resolutions and presets.
func NewControlPanel(x, y, width float32, cfg *config.Config) *ControlPanel {
	res := make([]string, len(cfg.Domain.Resolutions))
	for i, r := range cfg.Domain.Resolutions {
		res[i] = strconv.Itoa(r)
	}
	return &ControlPanel{
		renderer:    NewRenderer(),
		x:           x,
		y:           y,
		width:       width,
		visible:     true,
		resolutions: strings.Join(res, ";"),
		presets:     strings.Join(cfg.PresetNames(), ";"),
	}
}

// Toggle switches panel visibility.
func (p *ControlPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Contains reports whether a screen point is over the panel, so clicks
// there are not treated as emission.
func (p *ControlPanel) Contains(x, y float32) bool {
	if !p.visible {
		return false
	}
	return x >= p.x && x <= p.x+p.width && y >= p.y && y <= p.y+p.height()
}

func (p *ControlPanel) height() float32 {
	return 7*38 + 40
}

// Draw renders the panel, updating c in place.
func (p *ControlPanel) Draw(c *Controls) Changes {
	var ch Changes
	if !p.visible {
		return ch
	}

	r := p.renderer
	pad := float32(r.Theme.Padding)
	r.DrawPanel(int32(p.x), int32(p.y), int32(p.width), int32(p.height()))

	y := p.y + pad
	rl.DrawText("Parameters", int32(p.x+pad), int32(y), 16, rl.White)
	y += 26
	sliderW := p.width - 2*pad - 40

	slider := func(label string, value, lo, hi float32, format string) float32 {
		rl.DrawText(label, int32(p.x+pad), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		out := gui.SliderBar(
			rl.Rectangle{X: p.x + pad, Y: y + 14, Width: sliderW, Height: 16},
			"", "",
			value, lo, hi,
		)
		rl.DrawText(fmt.Sprintf(format, out), int32(p.x+pad+sliderW+6), int32(y+16), r.Theme.FontSize, r.Theme.ValueColor)
		y += 38
		return out
	}

	if it := int(math.Round(float64(slider("Iterations", float32(c.Iterations), config.MinIterations, config.MaxIterations, "%.0f")))); it != c.Iterations {
		c.Iterations = it
		ch.Sim = true
	}
	if v := slider("Spin (deg/frame)", c.SpinDegrees, -5, 5, "%.1f"); v != c.SpinDegrees {
		c.SpinDegrees = v
		ch.Sim = true
	}
	if v := slider("Friction", c.FrictionSlider, 0, 1, "%.2f"); v != c.FrictionSlider {
		c.FrictionSlider = v
		ch.Sim = true
	}
	if v := slider("Max speed", c.MaxSpeed, 1, 200, "%.0f"); v != c.MaxSpeed {
		c.MaxSpeed = v
		ch.Sim = true
	}

	if v := gui.CheckBox(rl.Rectangle{X: p.x + pad, Y: y, Width: 16, Height: 16}, "Parallel backend", c.Parallel); v != c.Parallel {
		c.Parallel = v
		ch.Backend = true
	}
	y += 30

	rl.DrawText("Resolution", int32(p.x+pad), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	if v := int(gui.ComboBox(rl.Rectangle{X: p.x + pad + 90, Y: y - 4, Width: sliderW - 50, Height: 20}, p.resolutions, int32(c.Resolution))); v != c.Resolution {
		c.Resolution = v
		ch.Resolution = true
	}
	y += 30

	rl.DrawText("Preset", int32(p.x+pad), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	if v := int(gui.ComboBox(rl.Rectangle{X: p.x + pad + 90, Y: y - 4, Width: sliderW - 50, Height: 20}, p.presets, int32(c.Preset))); v != c.Preset {
		c.Preset = v
		ch.Preset = true
	}

	return ch
}

// ControlsFromSim initializes panel values from solver parameters.
func ControlsFromSim(sim config.SimConfig, parallel bool, resolution int) Controls {
	return Controls{
		Iterations:     sim.Iterations,
		SpinDegrees:    float32(sim.Spin * 180 / math.Pi),
		FrictionSlider: sliderFromFriction(sim.Friction),
		MaxSpeed:       float32(sim.MaxSpeed),
		Parallel:       parallel,
		Resolution:     resolution,
	}
}

// ApplyTo returns sim with the panel's values.
func (c Controls) ApplyTo(sim config.SimConfig) config.SimConfig {
	sim.Iterations = c.Iterations
	sim.Spin = float64(c.SpinDegrees) * math.Pi / 180
	sim.Friction, sim.BoundaryFriction = config.FrictionFromSlider(float64(c.FrictionSlider))
	sim.MaxSpeed = float64(c.MaxSpeed)
	return sim
}

// sliderFromFriction inverts config.FrictionFromSlider.
func sliderFromFriction(f float64) float32 {
	if f <= 0.001 {
		return 0
	}
	v := math.Log(f/0.001) / math.Log(1.06) / 100
	return float32(math.Min(v, 1))
}
