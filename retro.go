package retro

import "image/color"

// Native output resolution in pixels. Every layer, sprite and bucket
// coordinate is expressed in this space.
const (
	NativeWidth  = 240
	NativeHeight = 135
)

// TilePixels is the edge length of one texture cell (tiles and sprite cells
// share the same 8x8 cell size).
const TilePixels = 8

// Color565 is a 16-bit packed RGB color: 5 bits red, 6 bits green, 5 bits
// blue, red in the high bits. This is the on-wire palette entry format.
type Color565 uint16

// ColorTransparent is the magenta key color. Unbound palette slots are
// uploaded with this value.
const ColorTransparent Color565 = 0xF81F

// NewColor565 packs 8-bit RGB components, discarding the low bits.
func NewColor565(r, g, b uint8) Color565 {
	return Color565(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGB expands the color back to 8-bit components. The high bits are
// replicated into the low bits so that full intensity maps to 255.
func (c Color565) RGB() (r, g, b uint8) {
	r5 := uint8(c>>11) & 0x1F
	g6 := uint8(c>>5) & 0x3F
	b5 := uint8(c) & 0x1F
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// RGBA implements color.Color. Color565 is always opaque.
func (c Color565) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.RGB()
	return color.RGBA{R: r8, G: g8, B: b8, A: 0xFF}.RGBA()
}

// Color565Model converts arbitrary colors to Color565.
var Color565Model = color.ModelFunc(func(c color.Color) color.Color {
	if c565, ok := c.(Color565); ok {
		return c565
	}
	r, g, b, _ := c.RGBA()
	return NewColor565(uint8(r>>8), uint8(g>>8), uint8(b>>8))
})

// Vec2i16 is a signed 16-bit pixel position, the storage type for sprite
// positions.
type Vec2i16 struct {
	X, Y int16
}

// Rect is an integer axis-aligned rectangle in native pixel space. Min is
// inclusive and Max is exclusive, so a 1x1 sprite at (3, 4) is
// Rect{3, 4, 4, 5}.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() int { return r.MaxY - r.MinY }

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Contains reports whether the pixel (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Intersects reports whether r and other share at least one pixel.
// Rectangles that only touch along an edge do not intersect.
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.MinX < other.MaxX && other.MinX < r.MaxX &&
		r.MinY < other.MaxY && other.MinY < r.MaxY
}

// mod returns the non-negative remainder of a divided by n.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, n int) int {
	q := a / n
	if (a%n != 0) && ((a < 0) != (n < 0)) {
		q--
	}
	return q
}
