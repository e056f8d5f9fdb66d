// Package renderer draws the simulation state with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/camera"
)

// ParticleRenderer renders simulation particles as discs tinted by speed.
type ParticleRenderer struct {
	Slow, Fast rl.Color

	// FullSpeed is the speed at which the Fast color is reached.
	FullSpeed float32
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{
		Slow:      rl.Color{R: 60, G: 120, B: 220, A: 255},
		Fast:      rl.Color{R: 240, G: 240, B: 255, A: 255},
		FullSpeed: 20,
	}
}

// Draw renders every particle. positions and velocities are interleaved xy
// arrays; velocities may be nil, in which case all particles use Slow.
func (r *ParticleRenderer) Draw(cam *camera.Camera, positions, velocities []float64, radius float32) {
	screenR := max(radius*cam.Scale(), 1)
	for i := 0; i < len(positions)/2; i++ {
		wx, wy := float32(positions[2*i]), float32(positions[2*i+1])
		if !cam.IsVisible(wx, wy, radius) {
			continue
		}

		color := r.Slow
		if 2*i+1 < len(velocities) {
			speed := float32(math.Hypot(velocities[2*i], velocities[2*i+1]))
			color = lerpColor(r.Slow, r.Fast, speed/r.FullSpeed)
		}

		sx, sy := cam.WorldToScreen(wx, wy)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, screenR, color)
	}
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	t = max(0, min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
