package retro

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// SpriteTween moves an active sprite to a target position over time. Each
// Update writes the position through SpriteArena.Move, so the sprite is
// queued for bucket maintenance like any other move. The tween stops as soon
// as the sprite is deactivated.
//
// Nothing advances tweens automatically; call Update once per frame.
type SpriteTween struct {
	arena *SpriteArena
	id    SpriteID
	x, y  *gween.Tween
	Done  bool
}

// TweenSprite creates a SpriteTween from the sprite's current position to
// (toX, toY). A sprite that is not active yields a tween that is already
// done.
func TweenSprite(arena *SpriteArena, id SpriteID, toX, toY int16, duration float32, fn ease.TweenFunc) *SpriteTween {
	t := &SpriteTween{arena: arena, id: id}
	o, err := arena.Sprite(id)
	if err != nil {
		t.Done = true
		return t
	}
	t.x = gween.New(float32(o.Position.X), float32(toX), duration, fn)
	t.y = gween.New(float32(o.Position.Y), float32(toY), duration, fn)
	return t
}

// Update advances the tween by dt seconds.
func (t *SpriteTween) Update(dt float32) {
	if t.Done {
		return
	}
	if !t.arena.IsActive(t.id) {
		t.Done = true
		return
	}
	x, xDone := t.x.Update(dt)
	y, yDone := t.y.Update(dt)
	_ = t.arena.Move(t.id, Vec2i16{X: roundInt16(x), Y: roundInt16(y)})
	t.Done = xDone && yDone
}

// OffsetTween scrolls one tile layer to a target offset over time. Offsets
// are written through TileGrid.SetOffset and therefore wrap.
type OffsetTween struct {
	grid  *TileGrid
	layer int
	x, y  *gween.Tween
	Done  bool
}

// TweenOffset creates an OffsetTween from the layer's current offset to
// (toX, toY). toX and toY may lie outside the layer extent to scroll past a
// wrap point; an invalid layer yields a tween that is already done.
func TweenOffset(grid *TileGrid, layer, toX, toY int, duration float32, fn ease.TweenFunc) *OffsetTween {
	t := &OffsetTween{grid: grid, layer: layer}
	x, y, err := grid.Offset(layer)
	if err != nil {
		t.Done = true
		return t
	}
	t.x = gween.New(float32(x), float32(toX), duration, fn)
	t.y = gween.New(float32(y), float32(toY), duration, fn)
	return t
}

// Update advances the tween by dt seconds.
func (t *OffsetTween) Update(dt float32) {
	if t.Done {
		return
	}
	x, xDone := t.x.Update(dt)
	y, yDone := t.y.Update(dt)
	_ = t.grid.SetOffset(t.layer, int(math.Round(float64(x))), int(math.Round(float64(y))))
	t.Done = xDone && yDone
}

// PaletteFade blends one palette color toward a target color. Channels are
// interpolated in 8-bit RGB and written back through Palette.SetColor, so a
// bound palette resyncs its table only on frames where the packed value
// actually changes. The final frame writes the target exactly.
type PaletteFade struct {
	palette *Palette
	slot    int
	to      Color565
	r, g, b *gween.Tween
	Done    bool
}

// FadePaletteColor creates a PaletteFade of color slot i of p toward to. An
// out-of-range slot yields a fade that is already done.
func FadePaletteColor(p *Palette, i int, to Color565, duration float32, fn ease.TweenFunc) *PaletteFade {
	f := &PaletteFade{palette: p, slot: i, to: to}
	from, err := p.Color(i)
	if err != nil {
		f.Done = true
		return f
	}
	fr, fg, fb := from.RGB()
	tr, tg, tb := to.RGB()
	f.r = gween.New(float32(fr), float32(tr), duration, fn)
	f.g = gween.New(float32(fg), float32(tg), duration, fn)
	f.b = gween.New(float32(fb), float32(tb), duration, fn)
	return f
}

// Update advances the fade by dt seconds.
func (f *PaletteFade) Update(dt float32) {
	if f.Done {
		return
	}
	r, rDone := f.r.Update(dt)
	g, gDone := f.g.Update(dt)
	b, bDone := f.b.Update(dt)
	f.Done = rDone && gDone && bDone
	if f.Done {
		_ = f.palette.SetColor(f.slot, f.to)
		return
	}
	_ = f.palette.SetColor(f.slot, NewColor565(clampByte(r), clampByte(g), clampByte(b)))
}

func roundInt16(v float32) int16 {
	r := math.Round(float64(v))
	switch {
	case r > math.MaxInt16:
		return math.MaxInt16
	case r < math.MinInt16:
		return math.MinInt16
	}
	return int16(r)
}

// clampByte keeps overshooting easings (back, elastic) inside a channel.
func clampByte(v float32) uint8 {
	r := math.Round(float64(v))
	switch {
	case r > 255:
		return 255
	case r < 0:
		return 0
	}
	return uint8(r)
}
