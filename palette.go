package retro

import "fmt"

const (
	// PaletteColors is the number of color slots in one palette.
	PaletteColors = 4

	// MaxPalettes is the number of slots in a PaletteTable.
	MaxPalettes = 16
)

// PaletteIndex addresses a PaletteTable slot. Tiles and sprites reference
// palettes through this index, never through a *Palette.
type PaletteIndex uint8

// Palette is a set of four colors. A palette is created standalone and only
// becomes referenceable once bound into a PaletteTable slot.
type Palette struct {
	colors [PaletteColors]Color565

	// Set while bound; table is the only component notified on mutation.
	table *PaletteTable
	index PaletteIndex
}

// NewPalette creates an unbound palette with the given colors.
func NewPalette(c0, c1, c2, c3 Color565) *Palette {
	return &Palette{colors: [PaletteColors]Color565{c0, c1, c2, c3}}
}

// Bound reports whether the palette currently occupies a table slot.
func (p *Palette) Bound() bool {
	return p.table != nil
}

// Index returns the slot the palette is bound to.
func (p *Palette) Index() (PaletteIndex, error) {
	if p.table == nil {
		return 0, fmt.Errorf("retro: palette index: %w", ErrNotBound)
	}
	return p.index, nil
}

// Color returns the color at slot i.
func (p *Palette) Color(i int) (Color565, error) {
	if i < 0 || i >= PaletteColors {
		return 0, fmt.Errorf("retro: palette color %d: %w", i, ErrIndex)
	}
	return p.colors[i], nil
}

// SetColor replaces the color at slot i. Writing the value already stored is
// a no-op; any other write triggers a full resync of the owning table, if
// the palette is bound.
func (p *Palette) SetColor(i int, c Color565) error {
	if i < 0 || i >= PaletteColors {
		return fmt.Errorf("retro: set palette color %d: %w", i, ErrIndex)
	}
	if p.colors[i] == c {
		return nil
	}
	p.colors[i] = c
	if p.table != nil {
		p.table.resync()
	}
	return nil
}

// Data returns a copy of the four colors in upload order.
func (p *Palette) Data() [PaletteColors]Color565 {
	return p.colors
}

// PaletteSink receives the packed palette table. data holds
// MaxPalettes*PaletteColors entries, slot-major, and is only valid for the
// duration of the call.
type PaletteSink interface {
	UploadPalettes(data []uint16)
}

// PaletteTable is the fixed set of palette slots. The whole table is uploaded
// as one unit whenever any binding or bound color changes.
type PaletteTable struct {
	slots [MaxPalettes]*Palette
	data  [MaxPalettes * PaletteColors]uint16
	sink  PaletteSink
	syncs int
}

// NewPaletteTable creates an empty table. sink may be nil and attached later
// with SetSink.
func NewPaletteTable(sink PaletteSink) *PaletteTable {
	t := &PaletteTable{sink: sink}
	t.pack()
	return t
}

// SetSink attaches the upload target and immediately pushes the current
// table to it.
func (t *PaletteTable) SetSink(sink PaletteSink) {
	t.sink = sink
	if sink != nil {
		sink.UploadPalettes(t.data[:])
	}
}

// Bind places p in slot, detaching whichever palette occupied the slot
// before. If p was bound elsewhere (another slot, or another table) it is
// moved: its previous slot becomes empty.
func (t *PaletteTable) Bind(slot PaletteIndex, p *Palette) error {
	if int(slot) >= MaxPalettes {
		return fmt.Errorf("retro: bind palette slot %d: %w", slot, ErrIndex)
	}
	if p == nil {
		return fmt.Errorf("retro: bind palette slot %d: nil palette: %w", slot, ErrFormat)
	}

	if prev := t.slots[slot]; prev != nil && prev != p {
		prev.table = nil
		prev.index = 0
	}

	if p.table != nil && (p.table != t || p.index != slot) {
		old := p.table
		old.slots[p.index] = nil
		if old != t {
			old.resync()
		}
	}

	t.slots[slot] = p
	p.table = t
	p.index = slot
	t.resync()
	return nil
}

// Unbind empties slot. Unbinding an empty slot returns ErrNotBound.
func (t *PaletteTable) Unbind(slot PaletteIndex) error {
	if int(slot) >= MaxPalettes {
		return fmt.Errorf("retro: unbind palette slot %d: %w", slot, ErrIndex)
	}
	p := t.slots[slot]
	if p == nil {
		return fmt.Errorf("retro: unbind palette slot %d: %w", slot, ErrNotBound)
	}
	p.table = nil
	p.index = 0
	t.slots[slot] = nil
	t.resync()
	return nil
}

// Get returns the palette bound to slot.
func (t *PaletteTable) Get(slot PaletteIndex) (*Palette, error) {
	if int(slot) >= MaxPalettes {
		return nil, fmt.Errorf("retro: get palette slot %d: %w", slot, ErrIndex)
	}
	p := t.slots[slot]
	if p == nil {
		return nil, fmt.Errorf("retro: get palette slot %d: %w", slot, ErrNotBound)
	}
	return p, nil
}

// Data returns a copy of the packed table, MaxPalettes*PaletteColors
// entries. Empty slots hold ColorTransparent.
func (t *PaletteTable) Data() []uint16 {
	out := make([]uint16, len(t.data))
	copy(out, t.data[:])
	return out
}

// Syncs returns how many full resyncs the table has performed.
func (t *PaletteTable) Syncs() int {
	return t.syncs
}

func (t *PaletteTable) pack() {
	for i, p := range t.slots {
		base := i * PaletteColors
		if p == nil {
			for j := 0; j < PaletteColors; j++ {
				t.data[base+j] = uint16(ColorTransparent)
			}
			continue
		}
		for j, c := range p.colors {
			t.data[base+j] = uint16(c)
		}
	}
}

// resync repacks the table and pushes it to the sink.
func (t *PaletteTable) resync() {
	t.pack()
	t.syncs++
	if t.sink != nil {
		t.sink.UploadPalettes(t.data[:])
	}
}
