package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenToBattlefield(t *testing.T) {
	p := ScreenToBattlefield(120, 80, 400, 250)
	assert.Equal(t, 520.0, p.X)
	assert.Equal(t, 330.0, p.Y)

	// Zero scroll leaves screen coordinates unchanged.
	p = ScreenToBattlefield(42, 17, 0, 0)
	assert.Equal(t, Point{X: 42, Y: 17}, p)
}

func TestClampToBattlefield(t *testing.T) {
	tests := []struct {
		name     string
		x, y     float64
		expected Point
	}{
		{"interior point unchanged", 500, 400, Point{X: 500, Y: 400}},
		{"negative coordinates clamp to origin", -50, -9999, Point{X: 0, Y: 0}},
		{"overflow clamps to footprint limit", 99999, 99999, Point{X: BattlefieldWidth - CardWidth, Y: BattlefieldHeight - CardHeight}},
		{"right edge accounts for card width", BattlefieldWidth, 100, Point{X: BattlefieldWidth - CardWidth, Y: 100}},
		{"bottom edge accounts for card height", 100, BattlefieldHeight, Point{X: 100, Y: BattlefieldHeight - CardHeight}},
		{"exact limit is kept", BattlefieldWidth - CardWidth, BattlefieldHeight - CardHeight, Point{X: BattlefieldWidth - CardWidth, Y: BattlefieldHeight - CardHeight}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampToBattlefield(tt.x, tt.y))
		})
	}
}

func TestClampIdempotence(t *testing.T) {
	inputs := []Point{
		{X: -1000, Y: -1000},
		{X: 0, Y: 0},
		{X: 123.45, Y: 678.9},
		{X: BattlefieldWidth * 2, Y: BattlefieldHeight * 2},
		{X: BattlefieldWidth, Y: -5},
	}
	for _, in := range inputs {
		once := ClampToBattlefield(in.X, in.Y)
		twice := ClampToBattlefield(once.X, once.Y)
		assert.Equal(t, once, twice, "clamp must be idempotent for %+v", in)
	}
}

func TestSelectionBounds(t *testing.T) {
	// All four drag directions normalize to the same rectangle.
	expected := Rect{X: 10, Y: 20, Width: 90, Height: 60}
	assert.Equal(t, expected, SelectionBounds(10, 20, 100, 80))
	assert.Equal(t, expected, SelectionBounds(100, 80, 10, 20))
	assert.Equal(t, expected, SelectionBounds(100, 20, 10, 80))
	assert.Equal(t, expected, SelectionBounds(10, 80, 100, 20))
}

func TestCardIntersectsSelection(t *testing.T) {
	sel := SelectionBounds(200, 200, 400, 400)

	assert.True(t, CardIntersectsSelection(250, 250, sel), "card fully inside")
	assert.True(t, CardIntersectsSelection(150, 150, sel), "card overlapping top-left corner")
	assert.True(t, CardIntersectsSelection(390, 390, sel), "card overlapping bottom-right corner")
	assert.False(t, CardIntersectsSelection(0, 0, sel), "card far outside")
	assert.False(t, CardIntersectsSelection(400, 400, sel), "card touching at corner does not intersect")
	assert.False(t, CardIntersectsSelection(200-CardWidth, 250, sel), "card flush against left edge")
}
