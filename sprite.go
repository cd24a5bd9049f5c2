package retro

import "fmt"

// MaxSprites is the number of sprite slots in a SpriteArena.
const MaxSprites = 40

// SpriteID identifies an arena slot. It doubles as the handle callers keep:
// it is only meaningful while IsActive reports true for it.
type SpriteID uint8

// SpriteShape selects a sprite's layout in texture cells.
type SpriteShape uint8

const (
	Sprite1x1 SpriteShape = iota
	Sprite2x2
	Sprite3x3
	Sprite4x4
	Sprite1x2
	Sprite2x1
	Sprite2x3
	Sprite3x2

	spriteShapeCount
)

// cells wide, cells high; indexed by SpriteShape.
var shapeCells = [spriteShapeCount][2]int{
	Sprite1x1: {1, 1},
	Sprite2x2: {2, 2},
	Sprite3x3: {3, 3},
	Sprite4x4: {4, 4},
	Sprite1x2: {1, 2},
	Sprite2x1: {2, 1},
	Sprite2x3: {2, 3},
	Sprite3x2: {3, 2},
}

// Valid reports whether s is one of the defined shapes.
func (s SpriteShape) Valid() bool {
	return s < spriteShapeCount
}

// Cells returns the shape's extent in cells.
func (s SpriteShape) Cells() (wide, high int) {
	if !s.Valid() {
		return 0, 0
	}
	c := shapeCells[s]
	return c[0], c[1]
}

// CellCount returns how many texture cells a sprite of this shape uses.
func (s SpriteShape) CellCount() int {
	w, h := s.Cells()
	return w * h
}

// Size returns the shape's extent in pixels.
func (s SpriteShape) Size() (width, height int) {
	w, h := s.Cells()
	return w * TilePixels, h * TilePixels
}

// String returns the shape name, e.g. "2x3".
func (s SpriteShape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SpriteShape(%d)", uint8(s))
	}
	w, h := s.Cells()
	return fmt.Sprintf("%dx%d", w, h)
}

// SpriteSpec carries the fields written by Activate and ActivateNext.
// Cells are listed row-major and must number exactly Shape.CellCount().
type SpriteSpec struct {
	Position Vec2i16
	Shape    SpriteShape
	Palette  PaletteIndex
	Cells    []uint8
}

func (s SpriteSpec) validate() error {
	if !s.Shape.Valid() {
		return fmt.Errorf("retro: sprite shape %d: %w", uint8(s.Shape), ErrShapeMismatch)
	}
	if n := s.Shape.CellCount(); len(s.Cells) != n {
		return fmt.Errorf("retro: sprite shape %v needs %d cells, got %d: %w",
			s.Shape, n, len(s.Cells), ErrShapeMismatch)
	}
	if int(s.Palette) >= MaxPalettes {
		return fmt.Errorf("retro: sprite palette %d: %w", s.Palette, ErrIndex)
	}
	return nil
}

// SpriteObject is one arena slot. Values returned by SpriteArena.Sprite are
// snapshots; mutate through the arena.
type SpriteObject struct {
	ID       SpriteID
	Active   bool
	Position Vec2i16
	Shape    SpriteShape
	Palette  PaletteIndex
	Cells    []uint8
}

// Bounds returns the pixel rectangle covered by the sprite.
func (o *SpriteObject) Bounds() Rect {
	w, h := o.Shape.Size()
	x, y := int(o.Position.X), int(o.Position.Y)
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// SpriteArena owns every sprite slot. Ids move between a FIFO free queue
// and the active set; no other transitions exist.
type SpriteArena struct {
	objects [MaxSprites]SpriteObject

	// cell storage, MaxSprites x the largest shape, owned by the arena
	cellStore [MaxSprites][16]uint8

	free   []SpriteID // FIFO: pop front, push back
	active []SpriteID // activation order

	// ids whose bucket membership is stale
	pending    [MaxSprites]bool
	anyPending bool

	// index is cleared eagerly on Deactivate; may be nil
	index *SpriteBucketIndex
}

// NewSpriteArena creates an arena with every id free, queued in ascending
// order.
func NewSpriteArena() *SpriteArena {
	a := &SpriteArena{
		free:   make([]SpriteID, 0, MaxSprites),
		active: make([]SpriteID, 0, MaxSprites),
	}
	for i := 0; i < MaxSprites; i++ {
		a.objects[i].ID = SpriteID(i)
		a.free = append(a.free, SpriteID(i))
	}
	return a
}

// AttachIndex makes Deactivate remove the id from idx immediately, so a
// freed id never shows up in a query, even before the next Sync. Moves and
// shape changes are still applied by Sync.
func (a *SpriteArena) AttachIndex(idx *SpriteBucketIndex) {
	a.index = idx
}

func checkSpriteID(op string, id SpriteID) error {
	if int(id) >= MaxSprites {
		return fmt.Errorf("retro: %s sprite %d: %w", op, id, ErrIndex)
	}
	return nil
}

// IsActive reports whether id is a valid, active sprite.
func (a *SpriteArena) IsActive(id SpriteID) bool {
	return int(id) < MaxSprites && a.objects[id].Active
}

// FreeCount returns how many ids are available.
func (a *SpriteArena) FreeCount() int {
	return len(a.free)
}

// ActiveCount returns how many ids are active.
func (a *SpriteArena) ActiveCount() int {
	return len(a.active)
}

// Active returns the active ids in activation order. The slice is a copy.
func (a *SpriteArena) Active() []SpriteID {
	out := make([]SpriteID, len(a.active))
	copy(out, a.active)
	return out
}

// ActivateNext takes the id at the front of the free queue and activates it
// with spec.
func (a *SpriteArena) ActivateNext(spec SpriteSpec) (SpriteID, error) {
	if len(a.free) == 0 {
		return 0, fmt.Errorf("retro: activate sprite: %w", ErrCapacity)
	}
	if err := spec.validate(); err != nil {
		return 0, err
	}
	id := a.free[0]
	a.free = a.free[1:]
	a.commit(id, spec)
	return id, nil
}

// Activate activates a caller-chosen id, for entities that need a stable
// reserved identity.
func (a *SpriteArena) Activate(id SpriteID, spec SpriteSpec) error {
	if err := checkSpriteID("activate", id); err != nil {
		return err
	}
	if a.objects[id].Active {
		return fmt.Errorf("retro: activate sprite %d: %w", id, ErrAlreadyActive)
	}
	if err := spec.validate(); err != nil {
		return err
	}
	for i, f := range a.free {
		if f == id {
			a.free = append(a.free[:i], a.free[i+1:]...)
			break
		}
	}
	a.commit(id, spec)
	return nil
}

func (a *SpriteArena) commit(id SpriteID, spec SpriteSpec) {
	o := &a.objects[id]
	o.Active = true
	o.Position = spec.Position
	o.Shape = spec.Shape
	o.Palette = spec.Palette
	o.Cells = a.cellStore[id][:len(spec.Cells)]
	copy(o.Cells, spec.Cells)
	a.active = append(a.active, id)
	a.markPending(id)
}

// Deactivate frees id and queues it at the back of the free queue.
func (a *SpriteArena) Deactivate(id SpriteID) error {
	if err := checkSpriteID("deactivate", id); err != nil {
		return err
	}
	o := &a.objects[id]
	if !o.Active {
		return fmt.Errorf("retro: deactivate sprite %d: %w", id, ErrAlreadyInactive)
	}
	o.Active = false
	o.Cells = nil
	for i, act := range a.active {
		if act == id {
			a.active = append(a.active[:i], a.active[i+1:]...)
			break
		}
	}
	a.free = append(a.free, id)
	if a.index != nil {
		a.index.Remove(id)
	}
	a.markPending(id)
	return nil
}

func (a *SpriteArena) object(op string, id SpriteID) (*SpriteObject, error) {
	if err := checkSpriteID(op, id); err != nil {
		return nil, err
	}
	o := &a.objects[id]
	if !o.Active {
		return nil, fmt.Errorf("retro: %s sprite %d: %w", op, id, ErrInactive)
	}
	return o, nil
}

// Sprite returns a snapshot of an active sprite.
func (a *SpriteArena) Sprite(id SpriteID) (SpriteObject, error) {
	o, err := a.object("read", id)
	if err != nil {
		return SpriteObject{}, err
	}
	snap := *o
	snap.Cells = append([]uint8(nil), o.Cells...)
	return snap, nil
}

// Bounds returns the pixel rectangle of an active sprite.
func (a *SpriteArena) Bounds(id SpriteID) (Rect, error) {
	o, err := a.object("bounds of", id)
	if err != nil {
		return Rect{}, err
	}
	return o.Bounds(), nil
}

// Move sets an active sprite's position.
func (a *SpriteArena) Move(id SpriteID, pos Vec2i16) error {
	o, err := a.object("move", id)
	if err != nil {
		return err
	}
	if o.Position == pos {
		return nil
	}
	o.Position = pos
	a.markPending(id)
	return nil
}

// SetShape changes an active sprite's shape together with its cells.
func (a *SpriteArena) SetShape(id SpriteID, shape SpriteShape, cells []uint8) error {
	o, err := a.object("reshape", id)
	if err != nil {
		return err
	}
	spec := SpriteSpec{Shape: shape, Palette: o.Palette, Cells: cells}
	if err := spec.validate(); err != nil {
		return err
	}
	o.Shape = shape
	o.Cells = a.cellStore[id][:len(cells)]
	copy(o.Cells, cells)
	a.markPending(id)
	return nil
}

// SetSpritePalette changes the palette an active sprite references.
func (a *SpriteArena) SetSpritePalette(id SpriteID, p PaletteIndex) error {
	o, err := a.object("set palette of", id)
	if err != nil {
		return err
	}
	if int(p) >= MaxPalettes {
		return fmt.Errorf("retro: sprite palette %d: %w", p, ErrIndex)
	}
	o.Palette = p
	return nil
}

// Each calls fn with a snapshot of every active sprite in activation order.
// Changes go through Move, SetShape and the other arena methods.
func (a *SpriteArena) Each(fn func(o SpriteObject)) {
	for _, id := range a.Active() {
		o := a.objects[id]
		if !o.Active {
			continue
		}
		o.Cells = append([]uint8(nil), o.Cells...)
		fn(o)
	}
}

func (a *SpriteArena) markPending(id SpriteID) {
	a.pending[id] = true
	a.anyPending = true
}

// Pending reports whether any sprite changed extent or activation state
// since the last Sync.
func (a *SpriteArena) Pending() bool {
	return a.anyPending
}

// Sync brings idx up to date for every sprite that moved, changed shape, or
// changed activation state since the last Sync. Returns the number of
// sprites processed.
func (a *SpriteArena) Sync(idx *SpriteBucketIndex) int {
	if !a.anyPending {
		return 0
	}
	n := 0
	for i := range a.pending {
		if !a.pending[i] {
			continue
		}
		id := SpriteID(i)
		idx.Remove(id)
		if a.objects[i].Active {
			idx.insert(id, a.objects[i].Bounds())
		}
		a.pending[i] = false
		n++
	}
	a.anyPending = false
	return n
}
