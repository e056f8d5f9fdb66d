package main

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Row is one frame of the divergence log.
type Row struct {
	Frame          int64   `csv:"frame"`
	Particles      int     `csv:"particles"`
	MaxDivergence  float64 `csv:"max_divergence"`
	MeanDivergence float64 `csv:"mean_divergence"`
	Overflow       int     `csv:"neighbor_overflow"`
}

// Summary condenses a divergence log.
type Summary struct {
	Particles      int
	Max            float64
	FinalMean      float64
	FirstDivergent int64 // 0 if the backends never diverged
	MaxOverflow    int
}

// divergence returns the largest and mean per-particle distance between
// two interleaved position arrays of equal length.
func divergence(a, b []float64) (maxD, meanD float64) {
	n := min(len(a), len(b)) / 2
	if n == 0 {
		return 0, 0
	}
	d := make([]float64, n)
	for i := range d {
		d[i] = math.Hypot(a[2*i]-b[2*i], a[2*i+1]-b[2*i+1])
		maxD = math.Max(maxD, d[i])
	}
	return maxD, stat.Mean(d, nil)
}

func summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.Particles = r.Particles
		s.Max = math.Max(s.Max, r.MaxDivergence)
		s.FinalMean = r.MeanDivergence
		s.MaxOverflow = max(s.MaxOverflow, r.Overflow)
		if s.FirstDivergent == 0 && r.MaxDivergence > 0 {
			s.FirstDivergent = r.Frame
		}
	}
	return s
}
