package retro

import "fmt"

// Grid dimensions. The grid is larger than the native screen so layers can
// scroll; addressing wraps on both axes.
const (
	GridWidth  = 60
	GridHeight = 36
	GridLayers = 4

	LayerSize = GridWidth * GridHeight

	// Full pixel extent of one layer; scroll offsets wrap modulo these.
	LayerPixelWidth  = GridWidth * TilePixels
	LayerPixelHeight = GridHeight * TilePixels
)

// Layer info record: 4 bytes per layer, little-endian u16 X offset followed
// by little-endian u16 Y offset.
const (
	LayerInfoSize = 4

	layerOffsetXByte = 0
	layerOffsetYByte = 2
)

// Tile word layout (16 bits, the renderer contract):
//
//	15      8 7    4 3     0
//	[ tile id ][ xform ][ palette ]
const (
	tileIDShift        = 8
	tileTransformShift = 4
	tilePaletteShift   = 0

	tileIDMask        uint16 = 0xFF << tileIDShift
	tileTransformMask uint16 = 0xF << tileTransformShift
	tilePaletteMask   uint16 = 0xF << tilePaletteShift
)

// TileTransform orients a tile: bits 0-1 hold a clockwise rotation, bit 2
// flips horizontally and bit 3 flips vertically.
type TileTransform uint8

const (
	Rotate0        TileTransform = 0b0000
	Rotate90       TileTransform = 0b0001
	Rotate180      TileTransform = 0b0010
	Rotate270      TileTransform = 0b0011
	FlipHorizontal TileTransform = 0b0100
	FlipVertical   TileTransform = 0b1000

	rotationMask TileTransform = 0b0011
	maxTransform TileTransform = 0b1111
)

// Rotation returns the rotation component (Rotate0..Rotate270).
func (t TileTransform) Rotation() TileTransform { return t & rotationMask }

// FlippedH reports whether the horizontal flip bit is set.
func (t TileTransform) FlippedH() bool { return t&FlipHorizontal != 0 }

// FlippedV reports whether the vertical flip bit is set.
func (t TileTransform) FlippedV() bool { return t&FlipVertical != 0 }

// Source maps a destination texel (u, v) in a size x size cell to the source
// texel it samples. Flips apply to the destination first, then the cell is
// rotated clockwise.
func (t TileTransform) Source(u, v, size int) (x, y int) {
	last := size - 1
	if t.FlippedH() {
		u = last - u
	}
	if t.FlippedV() {
		v = last - v
	}
	switch t.Rotation() {
	case Rotate90:
		return v, last - u
	case Rotate180:
		return last - u, last - v
	case Rotate270:
		return last - v, u
	default:
		return u, v
	}
}

// Tile is the unpacked form of one grid cell.
type Tile struct {
	ID        uint8
	Transform TileTransform
	Palette   PaletteIndex
}

// PackTile encodes t into its 16-bit wire word. Transform and Palette must
// fit in 4 bits; use Tile.Validate first when the values are untrusted.
func PackTile(t Tile) uint16 {
	return uint16(t.ID)<<tileIDShift |
		uint16(t.Transform)<<tileTransformShift&tileTransformMask |
		uint16(t.Palette)<<tilePaletteShift&tilePaletteMask
}

// UnpackTile decodes a 16-bit tile word.
func UnpackTile(w uint16) Tile {
	return Tile{
		ID:        uint8((w & tileIDMask) >> tileIDShift),
		Transform: TileTransform((w & tileTransformMask) >> tileTransformShift),
		Palette:   PaletteIndex((w & tilePaletteMask) >> tilePaletteShift),
	}
}

// Validate reports whether the transform and palette fields fit the packed
// layout.
func (t Tile) Validate() error {
	if t.Transform > maxTransform {
		return fmt.Errorf("retro: tile transform %#x: %w", uint8(t.Transform), ErrIndex)
	}
	if int(t.Palette) >= MaxPalettes {
		return fmt.Errorf("retro: tile palette %d: %w", t.Palette, ErrIndex)
	}
	return nil
}

// TileField selects which fields of a Tile a partial write touches.
type TileField uint8

const (
	FieldID TileField = 1 << iota
	FieldTransform
	FieldPalette

	FieldAll = FieldID | FieldTransform | FieldPalette
)

// TileSink receives the contiguous tile words of one dirty layer during
// Resync. data has LayerSize entries, row-major, and is only valid for the
// duration of the call.
type TileSink interface {
	UploadLayer(layer int, data []uint16)
}

// LayerInfoSink receives a layer's 4-byte info record whenever its scroll
// offset changes.
type LayerInfoSink interface {
	UploadLayerInfo(layer int, info [LayerInfoSize]byte)
}

// TileGrid is the layered tilemap. All storage is allocated once; cells are
// addressed with toroidal wrapping and changes are tracked per layer.
type TileGrid struct {
	data [GridLayers * LayerSize]uint16

	dirty    [GridLayers]bool
	anyDirty bool

	info     [GridLayers * LayerInfoSize]byte
	infoSink LayerInfoSink
}

// NewTileGrid creates a clean grid of empty tiles. Use Refresh for the
// initial upload.
func NewTileGrid() *TileGrid {
	return &TileGrid{}
}

// SetInfoSink attaches the layer-info target and pushes every layer's
// current record to it.
func (g *TileGrid) SetInfoSink(sink LayerInfoSink) {
	g.infoSink = sink
	if sink == nil {
		return
	}
	for layer := 0; layer < GridLayers; layer++ {
		sink.UploadLayerInfo(layer, g.infoRecord(layer))
	}
}

// cellIndex wraps x and y into the grid and returns the flat data index.
func cellIndex(x, y, layer int) int {
	if x < 0 || x >= GridWidth {
		x = mod(x, GridWidth)
	}
	if y < 0 || y >= GridHeight {
		y = mod(y, GridHeight)
	}
	return layer*LayerSize + y*GridWidth + x
}

func checkLayer(op string, layer int) error {
	if layer < 0 || layer >= GridLayers {
		return fmt.Errorf("retro: %s layer %d: %w", op, layer, ErrIndex)
	}
	return nil
}

// SetFields writes the fields of t selected by fields into the cell at
// (x, y) on layer, keeping the other fields of the stored word.
func (g *TileGrid) SetFields(x, y, layer int, t Tile, fields TileField) error {
	if err := checkLayer("set tile", layer); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}

	i := cellIndex(x, y, layer)
	cur := g.data[i]
	next := PackTile(t)

	var mask uint16
	if fields&FieldID != 0 {
		mask |= tileIDMask
	}
	if fields&FieldTransform != 0 {
		mask |= tileTransformMask
	}
	if fields&FieldPalette != 0 {
		mask |= tilePaletteMask
	}

	g.data[i] = cur&^mask | next&mask
	g.markDirty(layer)
	return nil
}

// Set overwrites every field of the cell at (x, y) on layer.
func (g *TileGrid) Set(x, y, layer int, t Tile) error {
	return g.SetFields(x, y, layer, t, FieldAll)
}

// SetTile changes only the tile id of a cell.
func (g *TileGrid) SetTile(x, y, layer int, id uint8) error {
	return g.SetFields(x, y, layer, Tile{ID: id}, FieldID)
}

// SetTransform changes only the transform of a cell.
func (g *TileGrid) SetTransform(x, y, layer int, tr TileTransform) error {
	return g.SetFields(x, y, layer, Tile{Transform: tr}, FieldTransform)
}

// SetPalette changes only the palette reference of a cell.
func (g *TileGrid) SetPalette(x, y, layer int, p PaletteIndex) error {
	return g.SetFields(x, y, layer, Tile{Palette: p}, FieldPalette)
}

// Get returns the unpacked cell at (x, y) on layer.
func (g *TileGrid) Get(x, y, layer int) (Tile, error) {
	if err := checkLayer("get tile", layer); err != nil {
		return Tile{}, err
	}
	return UnpackTile(g.data[cellIndex(x, y, layer)]), nil
}

// Fill overwrites every cell of layer with t.
func (g *TileGrid) Fill(layer int, t Tile) error {
	if err := checkLayer("fill", layer); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	w := PackTile(t)
	start := layer * LayerSize
	for i := start; i < start+LayerSize; i++ {
		g.data[i] = w
	}
	g.markDirty(layer)
	return nil
}

// Layer returns a read-only view of one layer's packed words. Callers must
// not modify it.
func (g *TileGrid) Layer(layer int) ([]uint16, error) {
	if err := checkLayer("layer", layer); err != nil {
		return nil, err
	}
	start := layer * LayerSize
	return g.data[start : start+LayerSize : start+LayerSize], nil
}

// SetOffset sets the pixel scroll offset of layer, wrapping each axis to the
// layer's pixel extent, and pushes the layer's info record immediately.
func (g *TileGrid) SetOffset(layer, x, y int) error {
	if err := checkLayer("set offset", layer); err != nil {
		return err
	}
	x = mod(x, LayerPixelWidth)
	y = mod(y, LayerPixelHeight)

	base := layer * LayerInfoSize
	g.info[base+layerOffsetXByte+0] = byte(x & 0xFF)
	g.info[base+layerOffsetXByte+1] = byte(x >> 8 & 0xFF)
	g.info[base+layerOffsetYByte+0] = byte(y & 0xFF)
	g.info[base+layerOffsetYByte+1] = byte(y >> 8 & 0xFF)

	if g.infoSink != nil {
		g.infoSink.UploadLayerInfo(layer, g.infoRecord(layer))
	}
	return nil
}

// Offset returns the wrapped pixel scroll offset of layer.
func (g *TileGrid) Offset(layer int) (x, y int, err error) {
	if err := checkLayer("offset", layer); err != nil {
		return 0, 0, err
	}
	base := layer * LayerInfoSize
	x = int(g.info[base+layerOffsetXByte+1])<<8 | int(g.info[base+layerOffsetXByte])
	y = int(g.info[base+layerOffsetYByte+1])<<8 | int(g.info[base+layerOffsetYByte])
	return x, y, nil
}

func (g *TileGrid) infoRecord(layer int) [LayerInfoSize]byte {
	var rec [LayerInfoSize]byte
	copy(rec[:], g.info[layer*LayerInfoSize:])
	return rec
}

func (g *TileGrid) markDirty(layer int) {
	g.dirty[layer] = true
	g.anyDirty = true
}

// MarkAllDirty forces the next Resync to upload every layer.
func (g *TileGrid) MarkAllDirty() {
	for i := range g.dirty {
		g.dirty[i] = true
	}
	g.anyDirty = true
}

// Dirty reports whether layer has changes not yet resynced. Out-of-range
// layers are never dirty.
func (g *TileGrid) Dirty(layer int) bool {
	if layer < 0 || layer >= GridLayers {
		return false
	}
	return g.dirty[layer]
}

// AnyDirty reports whether any layer has pending changes.
func (g *TileGrid) AnyDirty() bool {
	return g.anyDirty
}

// Refresh uploads every layer to sink regardless of dirty state and clears
// all flags.
func (g *TileGrid) Refresh(sink TileSink) {
	for layer := 0; layer < GridLayers; layer++ {
		start := layer * LayerSize
		sink.UploadLayer(layer, g.data[start:start+LayerSize:start+LayerSize])
		g.dirty[layer] = false
	}
	g.anyDirty = false
}

// Resync uploads each dirty layer's words to sink and clears its flag.
// Clean layers are not touched. Returns the number of layers uploaded.
func (g *TileGrid) Resync(sink TileSink) int {
	if !g.anyDirty {
		return 0
	}
	uploaded := 0
	for layer := 0; layer < GridLayers; layer++ {
		if !g.dirty[layer] {
			continue
		}
		start := layer * LayerSize
		sink.UploadLayer(layer, g.data[start:start+LayerSize:start+LayerSize])
		g.dirty[layer] = false
		uploaded++
	}
	g.anyDirty = false
	return uploaded
}
