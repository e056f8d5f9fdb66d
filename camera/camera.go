// Package camera maps the simulation plane onto the viewer window.
package camera

// Camera controls the viewport into the simulation domain. The domain is
// centered on the origin with y pointing up; screen y points down.
type Camera struct {
	// Position is the camera center in simulation coordinates
	X, Y float32

	// Zoom level (1.0 fits the whole domain)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Extent is the domain half width the camera fits at zoom 1
	Extent float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera that fits a domain of the given half width.
func New(viewportW, viewportH, extent float32) *Camera {
	return &Camera{
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Extent:    extent,
		MinZoom:   0.5,
		MaxZoom:   8.0,
	}
}

// Scale returns screen pixels per simulation unit.
func (c *Camera) Scale() float32 {
	return min(c.ViewportW, c.ViewportH) / (2 * c.Extent) * c.Zoom
}

// WorldToScreen converts simulation coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to simulation coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	s := c.Scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by a screen pixel delta. Dragging right moves the
// view left, like grabbing the plane.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X-dx/s, -c.Extent, c.Extent)
	c.Y = clamp(c.Y+dy/s, -c.Extent, c.Extent)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera on the origin at zoom 1.
func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.Zoom = 1.0
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
