package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pbd/camera"
	"github.com/pthm-cable/pbd/components"
)

// BoundaryRenderer draws the container as a rotated square wall.
type BoundaryRenderer struct {
	Color rl.Color

	// Width is the wall thickness in simulation units.
	Width float64
}

// NewBoundaryRenderer creates a boundary renderer.
func NewBoundaryRenderer() *BoundaryRenderer {
	return &BoundaryRenderer{
		Color: rl.Color{R: 90, G: 95, B: 110, A: 255},
		Width: 2,
	}
}

// Draw renders the wall just outside the region particle centers may
// occupy, inset by one particle radius so discs touch the wall.
func (r *BoundaryRenderer) Draw(cam *camera.Camera, b components.Boundary, particleRadius float64) {
	inner, outer := b.Frame(particleRadius, r.Width)
	thick := float32(r.Width) * cam.Scale()

	var mid [4]rl.Vector2
	for i := range mid {
		m := r2.Scale(0.5, r2.Add(inner[i], outer[i]))
		sx, sy := cam.WorldToScreen(float32(m.X), float32(m.Y))
		mid[i] = rl.Vector2{X: sx, Y: sy}
	}
	for i := range mid {
		rl.DrawLineEx(mid[i], mid[(i+1)%4], thick, r.Color)
		rl.DrawCircleV(mid[i], thick/2, r.Color)
	}
}
