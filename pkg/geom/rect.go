// Package geom provides the rectangle arithmetic shared by templates, layout
// and compositing. Coordinates are canvas pixels with y growing downwards.
package geom

import "math"

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left   float64 `json:"left" toml:"left"`
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
}

// XYWH builds a Rect from an origin and a size.
func XYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// CenterX returns the horizontal center point of the rectangle.
func (r Rect) CenterX() float64 { return (r.Left + r.Right) / 2 }

// CenterY returns the vertical center point of the rectangle.
func (r Rect) CenterY() float64 { return (r.Top + r.Bottom) / 2 }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Inflate grows the rectangle by pad on every side.
func (r Rect) Inflate(pad float64) Rect {
	return Rect{Left: r.Left - pad, Top: r.Top - pad, Right: r.Right + pad, Bottom: r.Bottom + pad}
}

// Translate moves the rectangle by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Intersects reports whether the interiors of r and o overlap.
// Rectangles that only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Intersect returns the overlap of r and o. Disjoint rectangles yield an
// empty Rect collapsed onto the nearest edge of o.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   math.Max(r.Left, o.Left),
		Top:    math.Max(r.Top, o.Top),
		Right:  math.Min(r.Right, o.Right),
		Bottom: math.Min(r.Bottom, o.Bottom),
	}
	out.Left = math.Min(out.Left, o.Right)
	out.Top = math.Min(out.Top, o.Bottom)
	out.Right = math.Max(out.Right, out.Left)
	out.Bottom = math.Max(out.Bottom, out.Top)
	return out
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Right <= r.Right && o.Top >= r.Top && o.Bottom <= r.Bottom
}

// Clamp shifts r so it fits inside bounds, shrinking it only when it is
// larger than bounds along an axis.
func (r Rect) Clamp(bounds Rect) Rect {
	w := math.Min(r.Width(), bounds.Width())
	h := math.Min(r.Height(), bounds.Height())
	x := Clamp(r.Left, bounds.Left, bounds.Right-w)
	y := Clamp(r.Top, bounds.Top, bounds.Bottom-h)
	return XYWH(x, y, w, h)
}

// Clamp limits v to [lo, hi]. When hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
