package retro

import (
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Occupancy reports which texture cells hold loaded graphics.
// *TextureBank implements it.
type Occupancy interface {
	IsOccupied(index uint8) bool
}

// placeholder color, debug mode only, for tiles and sprites that reference
// an unoccupied cell
var magenta = [3]uint8{0xFF, 0x00, 0xFF}

// Renderer is the reference consumer of the scene components. It keeps
// device-side mirrors of everything the components push (palette table,
// texture cells, tile layers, layer info) and composes the native frame from
// those mirrors plus the sprite arena and bucket index.
//
// Layers are drawn back to front starting at layer 0. Color index 0 is
// transparent everywhere; pixels no layer or sprite covers show the backdrop,
// palette slot 0 color 0, or black while slot 0 is unbound. Sprites are
// drawn above every layer, and a lower sprite id wins where sprites overlap.
// Cells that are not loaded in the texture bank render transparent; in debug
// mode they render magenta where nothing below them was drawn, and each one
// is logged once.
type Renderer struct {
	palettes [MaxPalettes * PaletteColors]uint16
	cells    [MaxTextures][CellByteSize]byte
	layers   [GridLayers][LayerSize]uint16
	offsets  [GridLayers][2]int

	frame []byte // RGBA, NativeWidth*NativeHeight*4

	// ScreenshotDir is where queued screenshots are written.
	ScreenshotDir   string
	screenshotQueue []string

	debug       bool
	warnedCells [MaxTextures]bool
	stats       frameStats
}

// NewRenderer creates a renderer with an all-transparent palette mirror.
func NewRenderer() *Renderer {
	r := &Renderer{
		frame:         make([]byte, NativeWidth*NativeHeight*4),
		ScreenshotDir: "screenshots",
	}
	for i := range r.palettes {
		r.palettes[i] = uint16(ColorTransparent)
	}
	return r
}

// SetDebugMode enables the missing-texture placeholder and warnings,
// per-frame stats on stderr, and the FPS overlay.
func (r *Renderer) SetDebugMode(enabled bool) {
	r.debug = enabled
}

// UploadPalettes implements PaletteSink.
func (r *Renderer) UploadPalettes(data []uint16) {
	copy(r.palettes[:], data)
	r.stats.paletteUploads++
}

// UploadCell implements CellSink.
func (r *Renderer) UploadCell(index uint8, data []byte) {
	copy(r.cells[index][:], data)
	r.warnedCells[index] = false
	r.stats.cellUploads++
}

// UploadLayer implements TileSink.
func (r *Renderer) UploadLayer(layer int, data []uint16) {
	copy(r.layers[layer][:], data)
	r.stats.layerUploads++
}

// UploadLayerInfo implements LayerInfoSink.
func (r *Renderer) UploadLayerInfo(layer int, info [LayerInfoSize]byte) {
	r.offsets[layer][0] = int(info[layerOffsetXByte+1])<<8 | int(info[layerOffsetXByte])
	r.offsets[layer][1] = int(info[layerOffsetYByte+1])<<8 | int(info[layerOffsetYByte])
}

// texel returns the 2-bit color index at (x, y) of a cell.
func (r *Renderer) texel(cell uint8, x, y int) uint8 {
	b := r.cells[cell][y*cellRowBytes+x/PixelsPerByte]
	return b >> (6 - 2*(x%PixelsPerByte)) & 0b11
}

func (r *Renderer) missing(cell uint8, occ Occupancy) bool {
	if occ == nil || occ.IsOccupied(cell) {
		return false
	}
	r.stats.missingTexels++
	if r.debug && !r.warnedCells[cell] {
		r.warnedCells[cell] = true
		log.Printf("retro: texture cell %d is not loaded, using magenta placeholder", cell)
	}
	return true
}

func (r *Renderer) put(i int, c Color565) {
	cr, cg, cb := c.RGB()
	r.frame[i] = cr
	r.frame[i+1] = cg
	r.frame[i+2] = cb
	r.frame[i+3] = 0xFF
}

func (r *Renderer) putRGB(i int, c [3]uint8) {
	r.frame[i] = c[0]
	r.frame[i+1] = c[1]
	r.frame[i+2] = c[2]
	r.frame[i+3] = 0xFF
}

// Compose renders the native frame from the mirrors, the active sprites and
// the bucket index. occ may be nil, in which case every cell is sampled as
// loaded.
func (r *Renderer) Compose(sprites *SpriteArena, buckets *SpriteBucketIndex, occ Occupancy) {
	var t0 time.Time
	if r.debug {
		t0 = time.Now()
	}

	backdrop := Color565(r.palettes[0])
	if backdrop == ColorTransparent {
		backdrop = 0
	}
	for py := 0; py < NativeHeight; py++ {
		for px := 0; px < NativeWidth; px++ {
			i := (py*NativeWidth + px) * 4
			r.put(i, backdrop)
			r.composeLayers(i, px, py, occ)
			if sprites != nil && buckets != nil {
				r.composeSprites(i, px, py, sprites, buckets, occ)
			}
		}
	}

	if r.debug {
		r.stats.composeTime = time.Since(t0)
	}
	r.flushScreenshots()
}

func (r *Renderer) composeLayers(i, px, py int, occ Occupancy) {
	drawn := false
	for layer := 0; layer < GridLayers; layer++ {
		wx := mod(px+r.offsets[layer][0], LayerPixelWidth)
		wy := mod(py+r.offsets[layer][1], LayerPixelHeight)
		t := UnpackTile(r.layers[layer][(wy/TilePixels)*GridWidth+wx/TilePixels])

		if r.missing(t.ID, occ) {
			// the placeholder never covers a lower layer's pixel
			if r.debug && !drawn {
				r.putRGB(i, magenta)
				drawn = true
			}
			continue
		}
		sx, sy := t.Transform.Source(wx%TilePixels, wy%TilePixels, TilePixels)
		idx := r.texel(t.ID, sx, sy)
		if idx == 0 {
			continue
		}
		r.put(i, Color565(r.palettes[int(t.Palette)*PaletteColors+int(idx)]))
		drawn = true
	}
}

func (r *Renderer) composeSprites(i, px, py int, sprites *SpriteArena, buckets *SpriteBucketIndex, occ Occupancy) {
	for _, id := range buckets.At(px, py).IDs() {
		o := &sprites.objects[id]
		if !o.Active {
			continue
		}
		lx := px - int(o.Position.X)
		ly := py - int(o.Position.Y)
		w, h := o.Shape.Size()
		if lx < 0 || ly < 0 || lx >= w || ly >= h {
			continue
		}
		wide, _ := o.Shape.Cells()
		cell := o.Cells[(ly/TilePixels)*wide+lx/TilePixels]
		if r.missing(cell, occ) {
			if !r.debug {
				continue
			}
			r.putRGB(i, magenta)
			r.stats.spritePixels++
			return
		}
		idx := r.texel(cell, lx%TilePixels, ly%TilePixels)
		if idx == 0 {
			continue
		}
		r.put(i, Color565(r.palettes[int(o.Palette)*PaletteColors+int(idx)]))
		r.stats.spritePixels++
		return
	}
}

// Frame returns the composed RGBA frame. The slice is reused by the next
// Compose.
func (r *Renderer) Frame() []byte {
	return r.frame
}

// Pixel returns the composed color at native pixel (x, y).
func (r *Renderer) Pixel(x, y int) (red, green, blue uint8) {
	i := (y*NativeWidth + x) * 4
	return r.frame[i], r.frame[i+1], r.frame[i+2]
}

// Draw writes the composed frame to screen, which must be NativeWidth by
// NativeHeight.
func (r *Renderer) Draw(screen *ebiten.Image) {
	var t0 time.Time
	if r.debug {
		t0 = time.Now()
	}

	screen.WritePixels(r.frame)

	if r.debug {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
		r.stats.drawTime = time.Since(t0)
		r.debugLog(r.stats)
		debugCheckUploads(r.stats)
	}
	r.stats = frameStats{}
}
