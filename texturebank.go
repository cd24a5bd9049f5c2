package retro

import "fmt"

// MaxTextures is the number of cells in a TextureBank. Tile ids are 8 bits,
// so every id addresses a cell.
const MaxTextures = 256

// CellSink receives a cell's packed pixels whenever it is (re)loaded. data
// has CellByteSize bytes and is only valid for the duration of the call.
type CellSink interface {
	UploadCell(index uint8, data []byte)
}

// TextureBank is the fixed pool of 8x8 2bpp cells shared by tiles and
// sprites. Occupancy is tracked in a packed bitmap, most significant bit
// first.
type TextureBank struct {
	cells    [MaxTextures][CellByteSize]byte
	occupied [MaxTextures / 8]byte
	count    int
	sink     CellSink
}

// NewTextureBank creates an empty bank. sink may be nil.
func NewTextureBank(sink CellSink) *TextureBank {
	return &TextureBank{sink: sink}
}

// SetSink attaches the upload target and pushes every occupied cell to it.
func (b *TextureBank) SetSink(sink CellSink) {
	b.sink = sink
	if sink == nil {
		return
	}
	for i := 0; i < MaxTextures; i++ {
		if b.IsOccupied(uint8(i)) {
			sink.UploadCell(uint8(i), b.cells[i][:])
		}
	}
}

// IsOccupied reports whether the cell at index holds loaded graphics.
func (b *TextureBank) IsOccupied(index uint8) bool {
	return b.occupied[index/8]>>(7-index%8)&1 != 0
}

// Count returns the number of occupied cells.
func (b *TextureBank) Count() int {
	return b.count
}

func (b *TextureBank) setOccupied(index uint8, val bool) {
	if b.IsOccupied(index) == val {
		return
	}
	bit := byte(1) << (7 - index%8)
	if val {
		b.occupied[index/8] |= bit
		b.count++
	} else {
		b.occupied[index/8] &^= bit
		b.count--
	}
}

// Cell returns a copy of the cell's packed pixels and whether it is
// occupied. Unoccupied cells return their last contents, usually zero.
func (b *TextureBank) Cell(index uint8) ([]byte, bool) {
	out := make([]byte, CellByteSize)
	copy(out, b.cells[index][:])
	return out, b.IsOccupied(index)
}

// LoadCell writes one cell into a free index and marks it occupied.
func (b *TextureBank) LoadCell(data []byte, index uint8) error {
	return b.LoadCellWith(data, index, true, true)
}

// LoadCellWith writes one cell. With checkFree an occupied index is
// rejected; with markOccupied the occupancy bit is set after the write.
// Bulk loaders pass false for both after reserving a range themselves.
func (b *TextureBank) LoadCellWith(data []byte, index uint8, checkFree, markOccupied bool) error {
	if len(data) != CellByteSize {
		return fmt.Errorf("retro: load cell %d: got %d bytes, want %d packed 4 pixels per byte: %w",
			index, len(data), CellByteSize, ErrFormat)
	}
	if checkFree && b.IsOccupied(index) {
		return fmt.Errorf("retro: load cell %d: %w", index, ErrOccupied)
	}
	b.write(data, index)
	if markOccupied {
		b.setOccupied(index, true)
	}
	return nil
}

// LoadCellNext writes one cell into the first free index and returns it.
func (b *TextureBank) LoadCellNext(data []byte) (uint8, error) {
	if len(data) != CellByteSize {
		return 0, fmt.Errorf("retro: load cell: got %d bytes, want %d: %w", len(data), CellByteSize, ErrFormat)
	}
	free, err := b.reserve(1)
	if err != nil {
		return 0, err
	}
	b.write(data, free[0])
	b.setOccupied(free[0], true)
	return free[0], nil
}

// Free releases an occupied cell. Its pixels stay in place until the index
// is loaded again.
func (b *TextureBank) Free(index uint8) error {
	if !b.IsOccupied(index) {
		return fmt.Errorf("retro: free cell %d: %w", index, ErrAlreadyInactive)
	}
	b.setOccupied(index, false)
	return nil
}

// LoadSheet splits img into cells in row-major order, assigns each the next
// free index by a first-free scan, loads them and returns the indices in
// cell order. Nothing is written unless every cell fits.
func (b *TextureBank) LoadSheet(img *IndexedImage) ([]uint8, error) {
	if err := img.CheckSheet(); err != nil {
		return nil, err
	}
	n := img.CellCount()
	indices, err := b.reserve(n)
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		b.setOccupied(idx, true)
	}
	b.loadCells(img, indices)
	return indices, nil
}

// LoadSheetAt splits img into cells and loads them at the given indices,
// which must be free, distinct, and exactly as many as the sheet has cells.
// Nothing is written if any check fails.
func (b *TextureBank) LoadSheetAt(img *IndexedImage, indices []uint8) error {
	if err := img.CheckSheet(); err != nil {
		return err
	}
	if n := img.CellCount(); len(indices) != n {
		return fmt.Errorf("retro: load sheet: %d indices for %d cells: %w", len(indices), n, ErrFormat)
	}

	var seen [MaxTextures / 8]byte
	for _, idx := range indices {
		bit := byte(1) << (7 - idx%8)
		if b.IsOccupied(idx) || seen[idx/8]&bit != 0 {
			return fmt.Errorf("retro: load sheet: cell %d: %w", idx, ErrOccupied)
		}
		seen[idx/8] |= bit
	}

	b.loadCells(img, indices)
	for _, idx := range indices {
		b.setOccupied(idx, true)
	}
	return nil
}

// reserve finds n free indices by scanning from 0 without marking them.
func (b *TextureBank) reserve(n int) ([]uint8, error) {
	if n > MaxTextures-b.count {
		return nil, fmt.Errorf("retro: need %d texture cells, %d free: %w", n, MaxTextures-b.count, ErrCapacity)
	}
	out := make([]uint8, 0, n)
	for i := 0; i < MaxTextures && len(out) < n; i++ {
		if !b.IsOccupied(uint8(i)) {
			out = append(out, uint8(i))
		}
	}
	return out, nil
}

// loadCells writes the sheet's cells unchecked and unmarked; callers own
// the occupancy bookkeeping. img.Cell always returns CellByteSize bytes.
func (b *TextureBank) loadCells(img *IndexedImage, indices []uint8) {
	for i, idx := range indices {
		b.write(img.Cell(i), idx)
	}
}

func (b *TextureBank) write(data []byte, index uint8) {
	copy(b.cells[index][:], data)
	if b.sink != nil {
		b.sink.UploadCell(index, b.cells[index][:])
	}
}
