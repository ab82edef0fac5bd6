package geom

import "math"

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min Vec2 `json:"min" yaml:"min"`
	Max Vec2 `json:"max" yaml:"max"`
}

// R builds a rectangle from its corner coordinates.
func R(minX, minY, maxX, maxY float64) Rect {
	return Rect{Min: V(minX, minY), Max: V(maxX, maxY)}
}

// FromSize builds a rectangle anchored at the origin.
func FromSize(width, height float64) Rect {
	return R(0, 0, width, height)
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Area returns width*height. An inverted rectangle has a non-positive area.
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return V((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// IsPositive reports whether the rectangle has a positive area.
func (r Rect) IsPositive() bool { return r.Area() > 0 }

// IsFinite reports whether both corners are finite.
func (r Rect) IsFinite() bool { return r.Min.IsFinite() && r.Max.IsFinite() }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Expand grows r to include p.
func (r Rect) Expand(p Vec2) Rect {
	return Rect{
		Min: V(math.Min(r.Min.X, p.X), math.Min(r.Min.Y, p.Y)),
		Max: V(math.Max(r.Max.X, p.X), math.Max(r.Max.Y, p.Y)),
	}
}
