package slidescene

import "math"

// Position is a point in canvas pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Area returns Width*Height, or 0 for empty rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() Position {
	return Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersect returns the overlapping region of r and o. The result is the
// zero Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// rotatePoint rotates p around c by deg degrees (clockwise in screen space).
func rotatePoint(p, c Position, deg float64) Position {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := p.X-c.X, p.Y-c.Y
	return Position{
		X: c.X + dx*cos - dy*sin,
		Y: c.Y + dx*sin + dy*cos,
	}
}

// nearlySquare reports whether w and h differ by no more than tol of the
// larger side.
func nearlySquare(w, h, tol float64) bool {
	m := math.Max(math.Abs(w), math.Abs(h))
	if m == 0 {
		return true
	}
	return math.Abs(w-h) <= tol*m
}
