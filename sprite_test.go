package retro

import (
	"errors"
	"testing"
)

func spec1x1(x, y int16) SpriteSpec {
	return SpriteSpec{Position: Vec2i16{X: x, Y: y}, Shape: Sprite1x1, Cells: []uint8{1}}
}

// --- Shapes ---

func TestSpriteShapes(t *testing.T) {
	tests := []struct {
		shape        SpriteShape
		wide, high   int
		name         string
		cellCount    int
		width, height int
	}{
		{Sprite1x1, 1, 1, "1x1", 1, 8, 8},
		{Sprite2x2, 2, 2, "2x2", 4, 16, 16},
		{Sprite3x3, 3, 3, "3x3", 9, 24, 24},
		{Sprite4x4, 4, 4, "4x4", 16, 32, 32},
		{Sprite1x2, 1, 2, "1x2", 2, 8, 16},
		{Sprite2x1, 2, 1, "2x1", 2, 16, 8},
		{Sprite2x3, 2, 3, "2x3", 6, 16, 24},
		{Sprite3x2, 3, 2, "3x2", 6, 24, 16},
	}
	for _, tt := range tests {
		w, h := tt.shape.Cells()
		if w != tt.wide || h != tt.high {
			t.Errorf("%v.Cells() = %d, %d", tt.shape, w, h)
		}
		if tt.shape.CellCount() != tt.cellCount {
			t.Errorf("%v.CellCount() = %d", tt.shape, tt.shape.CellCount())
		}
		if pw, ph := tt.shape.Size(); pw != tt.width || ph != tt.height {
			t.Errorf("%v.Size() = %d, %d", tt.shape, pw, ph)
		}
		if tt.shape.String() != tt.name {
			t.Errorf("String = %q, want %q", tt.shape.String(), tt.name)
		}
	}
	if SpriteShape(8).Valid() || SpriteShape(8).CellCount() != 0 {
		t.Error("shape 8 reported valid")
	}
}

// --- Activation ---

func TestActivateNextFIFO(t *testing.T) {
	a := NewSpriteArena()
	for i := 0; i < MaxSprites; i++ {
		id, err := a.ActivateNext(spec1x1(0, 0))
		if err != nil {
			t.Fatal(err)
		}
		if id != SpriteID(i) {
			t.Fatalf("activation %d got id %d", i, id)
		}
	}
	if _, err := a.ActivateNext(spec1x1(0, 0)); !errors.Is(err, ErrCapacity) {
		t.Fatalf("full arena: err = %v, want ErrCapacity", err)
	}

	_ = a.Deactivate(5)
	_ = a.Deactivate(2)
	if id, _ := a.ActivateNext(spec1x1(0, 0)); id != 5 {
		t.Errorf("first reuse = %d, want 5", id)
	}
	if id, _ := a.ActivateNext(spec1x1(0, 0)); id != 2 {
		t.Errorf("second reuse = %d, want 2", id)
	}
}

func TestFreedIDQueuesBehindNeverUsedIDs(t *testing.T) {
	a := NewSpriteArena()
	id, _ := a.ActivateNext(spec1x1(0, 0))
	_ = a.Deactivate(id)
	next, _ := a.ActivateNext(spec1x1(0, 0))
	if next != 1 {
		t.Errorf("next = %d, want 1", next)
	}
}

func TestActivateSpecificID(t *testing.T) {
	a := NewSpriteArena()
	if err := a.Activate(7, spec1x1(3, 4)); err != nil {
		t.Fatal(err)
	}
	if !a.IsActive(7) {
		t.Fatal("id 7 not active")
	}
	if a.FreeCount() != MaxSprites-1 || a.ActiveCount() != 1 {
		t.Errorf("free %d active %d", a.FreeCount(), a.ActiveCount())
	}
	// The reserved id must not be handed out again.
	for i := 0; i < MaxSprites-1; i++ {
		id, err := a.ActivateNext(spec1x1(0, 0))
		if err != nil {
			t.Fatal(err)
		}
		if id == 7 {
			t.Fatal("ActivateNext returned a reserved id")
		}
	}
}

func TestDoubleActivate(t *testing.T) {
	a := NewSpriteArena()
	_ = a.Activate(3, spec1x1(1, 1))
	err := a.Activate(3, spec1x1(9, 9))
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("err = %v, want ErrAlreadyActive", err)
	}
	o, _ := a.Sprite(3)
	if o.Position != (Vec2i16{X: 1, Y: 1}) {
		t.Errorf("position changed to %v", o.Position)
	}
	if a.ActiveCount() != 1 || a.FreeCount() != MaxSprites-1 {
		t.Errorf("free %d active %d", a.FreeCount(), a.ActiveCount())
	}
}

func TestDoubleDeactivate(t *testing.T) {
	a := NewSpriteArena()
	id, _ := a.ActivateNext(spec1x1(0, 0))
	if err := a.Deactivate(id); err != nil {
		t.Fatal(err)
	}
	err := a.Deactivate(id)
	if !errors.Is(err, ErrAlreadyInactive) {
		t.Fatalf("err = %v, want ErrAlreadyInactive", err)
	}
	if want := "retro: deactivate sprite 0: already inactive"; err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
	if a.FreeCount() != MaxSprites {
		t.Errorf("FreeCount = %d, want %d", a.FreeCount(), MaxSprites)
	}
}

func TestShapeMismatchLeavesIDInactive(t *testing.T) {
	a := NewSpriteArena()
	bad := SpriteSpec{Shape: Sprite2x2, Cells: []uint8{1, 2, 3}}

	if _, err := a.ActivateNext(bad); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("ActivateNext err = %v, want ErrShapeMismatch", err)
	}
	if a.IsActive(0) || a.FreeCount() != MaxSprites {
		t.Error("failed ActivateNext consumed an id")
	}

	if err := a.Activate(7, bad); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("Activate err = %v, want ErrShapeMismatch", err)
	}
	if a.IsActive(7) || a.FreeCount() != MaxSprites {
		t.Error("failed Activate consumed id 7")
	}
	if a.Pending() {
		t.Error("failed activation queued bucket maintenance")
	}

	if _, err := a.ActivateNext(SpriteSpec{Shape: 9, Cells: []uint8{1}}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("unknown shape: err = %v, want ErrShapeMismatch", err)
	}
	if _, err := a.ActivateNext(SpriteSpec{Shape: Sprite1x1, Cells: []uint8{1}, Palette: 16}); !errors.Is(err, ErrIndex) {
		t.Errorf("palette 16: err = %v, want ErrIndex", err)
	}
}

func TestIDOutOfRange(t *testing.T) {
	a := NewSpriteArena()
	if err := a.Activate(MaxSprites, spec1x1(0, 0)); !errors.Is(err, ErrIndex) {
		t.Errorf("Activate: err = %v, want ErrIndex", err)
	}
	if err := a.Deactivate(MaxSprites); !errors.Is(err, ErrIndex) {
		t.Errorf("Deactivate: err = %v, want ErrIndex", err)
	}
	if a.IsActive(MaxSprites) {
		t.Error("IsActive(40) = true")
	}
}

// --- State ---

func TestActivationOrder(t *testing.T) {
	a := NewSpriteArena()
	_ = a.Activate(9, spec1x1(0, 0))
	_ = a.Activate(2, spec1x1(0, 0))
	_ = a.Activate(30, spec1x1(0, 0))
	_ = a.Deactivate(2)

	got := a.Active()
	if len(got) != 2 || got[0] != 9 || got[1] != 30 {
		t.Errorf("Active = %v, want [9 30]", got)
	}
	var seen []SpriteID
	a.Each(func(o SpriteObject) { seen = append(seen, o.ID) })
	if len(seen) != 2 || seen[0] != 9 || seen[1] != 30 {
		t.Errorf("Each order = %v, want [9 30]", seen)
	}
}

func TestEachPassesSnapshots(t *testing.T) {
	a := NewSpriteArena()
	idx := NewSpriteBucketIndex(a)
	a.AttachIndex(idx)
	id, _ := a.ActivateNext(SpriteSpec{Shape: Sprite1x2, Cells: []uint8{4, 5}})
	a.Sync(idx)

	a.Each(func(o SpriteObject) {
		o.Position = Vec2i16{X: 100, Y: 100}
		o.Active = false
		o.Cells[0] = 99
	})

	o, err := a.Sprite(id)
	if err != nil {
		t.Fatal(err)
	}
	if o.Position != (Vec2i16{}) || o.Cells[0] != 4 {
		t.Errorf("Each mutated arena storage: %+v", o)
	}
	if a.Pending() {
		t.Error("Each queued bucket maintenance")
	}
	if a.ActiveCount() != 1 || a.FreeCount() != MaxSprites-1 {
		t.Errorf("active/free = %d/%d, want 1/%d", a.ActiveCount(), a.FreeCount(), MaxSprites-1)
	}
	if err := a.Deactivate(id); err != nil {
		t.Errorf("Deactivate after Each: %v", err)
	}
}

func TestBoundsUseWidthAndHeight(t *testing.T) {
	a := NewSpriteArena()
	id, _ := a.ActivateNext(SpriteSpec{
		Position: Vec2i16{X: 10, Y: 20},
		Shape:    Sprite2x3,
		Cells:    []uint8{1, 2, 3, 4, 5, 6},
	})
	r, err := a.Bounds(id)
	if err != nil {
		t.Fatal(err)
	}
	want := Rect{MinX: 10, MinY: 20, MaxX: 26, MaxY: 44}
	if r != want {
		t.Errorf("Bounds = %+v, want %+v", r, want)
	}
}

func TestInactiveSpriteAccess(t *testing.T) {
	a := NewSpriteArena()
	if _, err := a.Sprite(0); !errors.Is(err, ErrInactive) {
		t.Errorf("Sprite: err = %v, want ErrInactive", err)
	}
	if _, err := a.Bounds(0); !errors.Is(err, ErrInactive) {
		t.Errorf("Bounds: err = %v, want ErrInactive", err)
	}
	if err := a.Move(0, Vec2i16{}); !errors.Is(err, ErrInactive) {
		t.Errorf("Move: err = %v, want ErrInactive", err)
	}
	if err := a.SetSpritePalette(0, 1); !errors.Is(err, ErrInactive) {
		t.Errorf("SetSpritePalette: err = %v, want ErrInactive", err)
	}
}

func TestSpriteSnapshotIsCopy(t *testing.T) {
	a := NewSpriteArena()
	id, _ := a.ActivateNext(SpriteSpec{Shape: Sprite1x2, Cells: []uint8{4, 5}})
	snap, _ := a.Sprite(id)
	snap.Cells[0] = 99
	again, _ := a.Sprite(id)
	if again.Cells[0] != 4 {
		t.Errorf("snapshot aliases arena storage")
	}
}

func TestSetShape(t *testing.T) {
	a := NewSpriteArena()
	id, _ := a.ActivateNext(spec1x1(0, 0))
	_ = a.Sync(NewSpriteBucketIndex(a))

	if err := a.SetShape(id, Sprite2x1, []uint8{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
	if o, _ := a.Sprite(id); o.Shape != Sprite1x1 {
		t.Error("rejected SetShape changed the shape")
	}
	if a.Pending() {
		t.Error("rejected SetShape queued maintenance")
	}

	if err := a.SetShape(id, Sprite2x1, []uint8{7, 8}); err != nil {
		t.Fatal(err)
	}
	o, _ := a.Sprite(id)
	if o.Shape != Sprite2x1 || len(o.Cells) != 2 || o.Cells[1] != 8 {
		t.Errorf("sprite = %+v", o)
	}
	if !a.Pending() {
		t.Error("SetShape did not queue maintenance")
	}
}

func TestSetSpritePalette(t *testing.T) {
	a := NewSpriteArena()
	id, _ := a.ActivateNext(spec1x1(0, 0))
	if err := a.SetSpritePalette(id, 15); err != nil {
		t.Fatal(err)
	}
	if o, _ := a.Sprite(id); o.Palette != 15 {
		t.Errorf("Palette = %d, want 15", o.Palette)
	}
	if err := a.SetSpritePalette(id, 16); !errors.Is(err, ErrIndex) {
		t.Errorf("err = %v, want ErrIndex", err)
	}
}

func TestMoveQueuesMaintenanceOnlyOnChange(t *testing.T) {
	a := NewSpriteArena()
	idx := NewSpriteBucketIndex(a)
	id, _ := a.ActivateNext(spec1x1(4, 4))
	if n := a.Sync(idx); n != 1 {
		t.Fatalf("Sync = %d, want 1", n)
	}

	_ = a.Move(id, Vec2i16{X: 4, Y: 4})
	if a.Pending() {
		t.Error("no-op Move queued maintenance")
	}
	_ = a.Move(id, Vec2i16{X: 5, Y: 4})
	if !a.Pending() {
		t.Error("Move did not queue maintenance")
	}
	if n := a.Sync(idx); n != 1 {
		t.Errorf("Sync = %d, want 1", n)
	}
	if n := a.Sync(idx); n != 0 {
		t.Errorf("idle Sync = %d, want 0", n)
	}
}
