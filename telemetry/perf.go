package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the frame pipeline.
const (
	PhaseNeighbors = "neighbors"
	PhaseEstimate  = "estimate"
	PhaseBoundary  = "boundary"
	PhaseCollide   = "collide"
	PhaseConstrain = "constrain"
	PhaseVelocity  = "velocity"
	PhasePosition  = "position"
	PhaseSync      = "sync"
)

// Phases lists the pipeline phases in execution order.
var Phases = []string{
	PhaseNeighbors, PhaseEstimate, PhaseBoundary, PhaseCollide,
	PhaseConstrain, PhaseVelocity, PhasePosition, PhaseSync,
}

// PerfSample holds timing data for a single simulation frame.
type PerfSample struct {
	Step   time.Duration
	Phases map[string]time.Duration
}

// PerfCollector tracks per-phase timings over a rolling window of frames.
// A nil collector ignores every call, so callers need no guards.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	stepStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Display timing (viewer only)
	lastDisplay time.Time
	displayDur  time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a simulation frame.
func (p *PerfCollector) StartFrame() {
	if p == nil {
		return
	}
	p.stepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration, len(Phases))
	p.lastPhase = ""
}

// StartPhase closes the running phase, if any, and starts timing phase.
// Phases entered several times per frame accumulate.
func (p *PerfCollector) StartPhase(phase string) {
	if p == nil {
		return
	}
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame closes the running phase and records the sample.
func (p *PerfCollector) EndFrame() {
	if p == nil {
		return
	}
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		Step:   now.Sub(p.stepStart),
		Phases: p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// RecordDisplay records the interval between displayed frames.
func (p *PerfCollector) RecordDisplay() {
	if p == nil {
		return
	}
	now := time.Now()
	if !p.lastDisplay.IsZero() {
		p.displayDur = now.Sub(p.lastDisplay)
	}
	p.lastDisplay = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	// Phase breakdown (average durations and share of the step)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	StepsPerSecond float64

	DisplayDuration time.Duration
	FPS             float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p == nil {
		return stats
	}
	stats.DisplayDuration = p.displayDur
	if p.displayDur > 0 {
		stats.FPS = float64(time.Second) / float64(p.displayDur)
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Step
		if i == 0 || s.Step < stats.MinStep {
			stats.MinStep = s.Step
		}
		if s.Step > stats.MaxStep {
			stats.MaxStep = s.Step
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	stats.AvgStep = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		stats.PhaseAvg[phase] = avg
		if stats.AvgStep > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgStep) * 100
		}
	}
	if stats.AvgStep > 0 {
		stats.StepsPerSecond = float64(time.Second) / float64(stats.AvgStep)
	}
	return stats
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("min_step_us", s.MinStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Frame        int64   `csv:"frame"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	FPS          float64 `csv:"fps"`
	NeighborsPct float64 `csv:"neighbors_pct"`
	EstimatePct  float64 `csv:"estimate_pct"`
	BoundaryPct  float64 `csv:"boundary_pct"`
	CollidePct   float64 `csv:"collide_pct"`
	ConstrainPct float64 `csv:"constrain_pct"`
	VelocityPct  float64 `csv:"velocity_pct"`
	PositionPct  float64 `csv:"position_pct"`
	SyncPct      float64 `csv:"sync_pct"`
}

// ToCSV flattens the stats for the perf.csv row ending at frame.
func (s PerfStats) ToCSV(frame int64) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:        frame,
		AvgStepUS:    s.AvgStep.Microseconds(),
		MinStepUS:    s.MinStep.Microseconds(),
		MaxStepUS:    s.MaxStep.Microseconds(),
		StepsPerSec:  s.StepsPerSecond,
		FPS:          s.FPS,
		NeighborsPct: s.PhasePct[PhaseNeighbors],
		EstimatePct:  s.PhasePct[PhaseEstimate],
		BoundaryPct:  s.PhasePct[PhaseBoundary],
		CollidePct:   s.PhasePct[PhaseCollide],
		ConstrainPct: s.PhasePct[PhaseConstrain],
		VelocityPct:  s.PhasePct[PhaseVelocity],
		PositionPct:  s.PhasePct[PhasePosition],
		SyncPct:      s.PhasePct[PhaseSync],
	}
}
