package engine

// Rect is an axis-aligned rectangle in continuous (pixel) space
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// NewRect builds a rectangle from its top-left corner and size
func NewRect(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

func (r Rect) Width() float64 {
	return r.Right - r.Left
}

func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Contains reports whether the point lies inside the rectangle, edges included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

func (r Rect) CenterX() float64 {
	return r.Left + (r.Right-r.Left)/2
}

func (r Rect) CenterY() float64 {
	return r.Top + (r.Bottom-r.Top)/2
}

// Offset returns the rectangle translated by (dx, dy)
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// clamp restricts v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
