// Package geometry converts between the three coordinate spaces of the table:
// viewport pixels, container scroll offset, and the fixed virtual battlefield
// surface that card positions are stored in. Stored positions are battlefield
// space, so they survive across clients with different window sizes.
package geometry

// Battlefield surface and card footprint constants. Positions reference the
// top-left corner of a card; clamping keeps the full footprint on the surface.
const (
	BattlefieldWidth  = 2400.0
	BattlefieldHeight = 1600.0
	CardWidth         = 100.0
	CardHeight        = 140.0
)

// Point is a position in battlefield space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in battlefield space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScreenToBattlefield maps a screen position to battlefield space by adding
// the container's scroll offset.
func ScreenToBattlefield(screenX, screenY, scrollLeft, scrollTop float64) Point {
	return Point{
		X: screenX + scrollLeft,
		Y: screenY + scrollTop,
	}
}

// ClampToBattlefield constrains a position so the full card footprint stays
// on the surface. Idempotent: clamping a clamped point is a no-op.
func ClampToBattlefield(x, y float64) Point {
	maxX := BattlefieldWidth - CardWidth
	maxY := BattlefieldHeight - CardHeight

	if x < 0 {
		x = 0
	} else if x > maxX {
		x = maxX
	}
	if y < 0 {
		y = 0
	} else if y > maxY {
		y = maxY
	}
	return Point{X: x, Y: y}
}

// SelectionBounds normalizes two arbitrary corner points into a rectangle.
// Drag selection can travel in any of the four directions.
func SelectionBounds(ax, ay, bx, by float64) Rect {
	x, y := ax, ay
	if bx < x {
		x = bx
	}
	if by < y {
		y = by
	}
	w := ax - bx
	if w < 0 {
		w = -w
	}
	h := ay - by
	if h < 0 {
		h = -h
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// CardIntersectsSelection reports whether a card's footprint overlaps the
// selection rectangle.
func CardIntersectsSelection(cardX, cardY float64, sel Rect) bool {
	return cardX < sel.X+sel.Width &&
		cardX+CardWidth > sel.X &&
		cardY < sel.Y+sel.Height &&
		cardY+CardHeight > sel.Y
}
