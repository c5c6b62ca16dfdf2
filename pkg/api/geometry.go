package api

// Point is a position in screen coordinates. The origin is the top-left
// corner of the primary screen; X grows to the right, Y grows downward.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// RelPoint is a position expressed as fractions of a bounding box.
// Both coordinates are normally in [0, 1]; values outside that range are
// legal and simply land outside the box (they get clamped to the screen
// at resolution time).
type RelPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Center returns the middle point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Clamp returns the nearest point to p that lies inside the rectangle.
// An empty rectangle returns p unchanged.
func (r Rect) Clamp(p Point) Point {
	if r.Empty() {
		return p
	}
	if p.X < r.X {
		p.X = r.X
	}
	if p.X > r.X+r.W-1 {
		p.X = r.X + r.W - 1
	}
	if p.Y < r.Y {
		p.Y = r.Y
	}
	if p.Y > r.Y+r.H-1 {
		p.Y = r.Y + r.H - 1
	}
	return p
}
