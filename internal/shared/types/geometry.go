package types

import "fmt"

// Rect is an integer pixel rectangle. Left/Top are inclusive, Right/Bottom
// exclusive, matching the platform's coordinate convention.
type Rect struct {
	Left   int `json:"left" yaml:"left" toml:"left"`
	Top    int `json:"top" yaml:"top" toml:"top"`
	Right  int `json:"right" yaml:"right" toml:"right"`
	Bottom int `json:"bottom" yaml:"bottom" toml:"bottom"`
}

// NewRect builds a rectangle from its edges
func NewRect(left, top, right, bottom int) Rect {
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Width returns the horizontal extent
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle covers no pixels
func (r Rect) Empty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Offset returns the rectangle translated by (dx, dy)
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Intersect returns the overlapping area and whether it is non-empty
func (r Rect) Intersect(o Rect) (Rect, bool) {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.Empty() {
		return Rect{}, false
	}
	return out, true
}

// Overlaps reports whether two rectangles share at least one pixel
func (r Rect) Overlaps(o Rect) bool {
	_, ok := r.Intersect(o)
	return ok
}

// Contains reports whether o lies entirely within r
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%d, %d - %d, %d)", r.Left, r.Top, r.Right, r.Bottom)
}
