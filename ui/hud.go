package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Backend   string
	Cells     int
	Frame     int64
	FPS       int32
	Paused    bool
	Warmup    bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-right corner.
func (h *HUD) Draw(x int32, data HUDData) {
	rl.DrawText(data.Title, x, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Particles: %d | Grid: %d | Backend: %s", data.Particles, data.Cells, data.Backend),
		x, 35, 16, rl.LightGray,
	)
	rl.DrawText(fmt.Sprintf("Frame: %d | FPS: %d", data.Frame, data.FPS), x, 55, 16, rl.LightGray)

	switch {
	case data.Paused:
		rl.DrawText("PAUSED", x, 75, 16, rl.Yellow)
	case data.Warmup:
		rl.DrawText("Warming up", x, 75, 16, rl.Gray)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// statsSections describe the frame statistics panel.
var statsSections = []SectionDescriptor{
	{
		Title: "Motion",
		Fields: []FieldDescriptor{
			{Label: "Mean speed", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return float32(d.(telemetry.FrameStats).SpeedMean) }},
			{Label: "P90 speed", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float32 { return float32(d.(telemetry.FrameStats).SpeedP90) }},
			{Label: "Kinetic", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float32 { return float32(d.(telemetry.FrameStats).Kinetic) }},
		},
	},
	{
		Title: "Constraints",
		Fields: []FieldDescriptor{
			{Label: "Contacts", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%d", d.(telemetry.FrameStats).Contacts) }},
			{Label: "Penetration", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 0.5}, Getter: func(d any) float32 { return float32(d.(telemetry.FrameStats).MaxPenetration) }},
			{Label: "Wall excess", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 0.5}, Getter: func(d any) float32 { return float32(d.(telemetry.FrameStats).MaxBoundaryExcess) }},
			{Label: "Neighbors", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float32 { return float32(d.(telemetry.FrameStats).NeighborMean) }},
			{Label: "Overflow", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%d", d.(telemetry.FrameStats).NeighborOverflow) }},
		},
	},
}

// StatsPanel renders per-frame statistics.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a stats panel at the given position.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders stats and returns the panel's bottom edge.
func (p *StatsPanel) Draw(stats telemetry.FrameStats) int32 {
	r := p.renderer
	pad := r.Theme.Padding

	height := pad * 2
	for _, sd := range statsSections {
		height += r.SectionHeight(sd)
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + pad
	for _, sd := range statsSections {
		y = r.DrawSection(p.x+pad, y, sd, stats, p.width-pad*2)
	}
	return p.y + height
}

// PerfPanel renders the per-phase timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a perf panel at the given position.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders phase percentages as bars.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	pad := r.Theme.Padding
	height := pad*2 + r.Theme.LineHeight*2 + int32(len(telemetry.Phases))*(r.Theme.LineHeight+2)
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + pad
	y = r.DrawLabelValue(p.x+pad, y, "Step", fmt.Sprintf("%v (%.0f/s)", stats.AvgStep.Round(time.Microsecond), stats.StepsPerSecond))
	y = r.DrawSectionHeader(p.x+pad, y, "Phases %")
	for _, phase := range telemetry.Phases {
		y = r.DrawBar(p.x+pad, y, phase, float32(stats.PhasePct[phase]), FieldRange{Min: 0, Max: 100}, p.width-pad*2)
	}
}
