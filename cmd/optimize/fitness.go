package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/engine"
	"github.com/pthm-cable/pbd/shapes"
)

// Fitness weights.
const (
	weightPenetration = 1.0  // mean worst overlap, in diameters
	weightExcess      = 1.0  // mean worst wall excess, in diameters
	weightIterations  = 0.02 // per constraint iteration, the solver cost
	weightDiverged    = 1e6  // any non-finite state
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	frames      int
	seeds       []shapes.Circle
	baseConfig  *config.Config
	statsWindow int

	mu          sync.Mutex
	lastQuality float64 // mean residual from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Each seed is an emission
// circle; all seeds run with the same parameters.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []shapes.Circle, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		frames:      frames,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10,
	}
}

// LastQuality returns the mean residual from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the sampled residuals of one run, in diameters.
type runResult struct {
	penetration []float64
	excess      []float64
	diverged    bool
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	sim := fe.params.ApplyToSim(fe.baseConfig.Sim, x)

	// Run all seeds in parallel
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s shapes.Circle) {
			defer wg.Done()
			results[idx] = fe.runSimulation(sim, s)
		}(i, seed)
	}
	wg.Wait()

	var total, residual float64
	for _, r := range results {
		f, q := fe.computeFitness(r, sim.Iterations)
		total += f
		residual += q
	}
	n := float64(len(results))

	fe.mu.Lock()
	fe.lastQuality = residual / n
	fe.mu.Unlock()

	return total / n
}

// runSimulation advances one engine and samples residuals every
// statsWindow frames.
func (fe *FitnessEvaluator) runSimulation(sim config.SimConfig, seed shapes.Circle) runResult {
	cfg := *fe.baseConfig
	e := engine.New(&cfg, engine.WithMode(engine.Sequential))
	defer e.Close()
	e.SetSim(sim)
	e.Emit(seed)

	d := cfg.Derived.Diameter
	var r runResult
	for i := 1; i <= fe.frames; i++ {
		e.Rotate(sim.Spin)
		e.AdvanceFrame(cfg.Frame.Duration, sim.Substeps)
		if i%fe.statsWindow != 0 {
			continue
		}
		s := e.Stats()
		if math.IsNaN(s.SpeedMax) || math.IsInf(s.SpeedMax, 0) {
			r.diverged = true
			return r
		}
		r.penetration = append(r.penetration, s.MaxPenetration/d)
		r.excess = append(r.excess, s.MaxBoundaryExcess/d)
	}
	return r
}

// computeFitness returns the scalar fitness and the unweighted residual.
func (fe *FitnessEvaluator) computeFitness(r runResult, iterations int) (fitness, residual float64) {
	if r.diverged || len(r.penetration) == 0 {
		return weightDiverged, math.Inf(1)
	}
	pen := stat.Mean(r.penetration, nil)
	exc := stat.Mean(r.excess, nil)
	residual = pen + exc
	fitness = weightPenetration*pen + weightExcess*exc + weightIterations*float64(iterations)
	return fitness, residual
}
