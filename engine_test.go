package retro

import (
	"errors"
	"testing"
)

// countingGame records every callback. load runs inside Load when set.
type countingGame struct {
	loads, updates, ticks int
	lastDT                float64
	load                  func(e *Engine) error
	tickErr               error
}

func (g *countingGame) Load(e *Engine) error {
	g.loads++
	if g.load != nil {
		return g.load(e)
	}
	return nil
}

func (g *countingGame) Update(e *Engine, dt float64) error {
	g.updates++
	g.lastDT = dt
	return nil
}

func (g *countingGame) Tick(e *Engine) error {
	g.ticks++
	return g.tickErr
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width != 1440 || cfg.Height != 810 {
		t.Errorf("window = %dx%d, want 1440x810", cfg.Width, cfg.Height)
	}
	if cfg.TickRate != 20 || cfg.RenderFrequency != 144 {
		t.Errorf("rates = %d/%d, want 20/144", cfg.TickRate, cfg.RenderFrequency)
	}
	if cfg.Debug {
		t.Error("debug on by default")
	}
}

func TestNewEngineAppliesDefaults(t *testing.T) {
	e := NewEngine(nil, Config{})
	if e.Config().TickRate != 20 {
		t.Errorf("TickRate = %d, want 20", e.Config().TickRate)
	}
	if e.Renderer.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q", e.Renderer.ScreenshotDir)
	}
}

func TestLayout(t *testing.T) {
	e := NewEngine(nil, DefaultConfig())
	w, h := e.Layout(1440, 810)
	if w != NativeWidth || h != NativeHeight {
		t.Errorf("Layout = %dx%d, want %dx%d", w, h, NativeWidth, NativeHeight)
	}
}

// --- Loop ---

func TestStepLoadsOnceAndTicksAtRate(t *testing.T) {
	g := &countingGame{}
	e := NewEngine(g, DefaultConfig())

	for i := 0; i < 3; i++ {
		if err := e.Step(0.05); err != nil {
			t.Fatal(err)
		}
	}
	if g.loads != 1 || g.updates != 3 || g.ticks != 3 {
		t.Errorf("loads %d updates %d ticks %d, want 1 3 3", g.loads, g.updates, g.ticks)
	}
	if g.lastDT != 0.05 {
		t.Errorf("dt = %v, want 0.05", g.lastDT)
	}

	_ = e.Step(0.025)
	if g.ticks != 3 {
		t.Errorf("ticked on a partial interval")
	}
	_ = e.Step(0.025)
	if g.ticks != 4 || e.Ticks() != 4 {
		t.Errorf("ticks = %d (engine %d), want 4", g.ticks, e.Ticks())
	}
}

func TestStepBoundsCatchUp(t *testing.T) {
	g := &countingGame{}
	e := NewEngine(g, DefaultConfig())
	_ = e.Step(1.0)
	if g.ticks != maxTicksPerStep {
		t.Errorf("ticks = %d, want %d", g.ticks, maxTicksPerStep)
	}
	_ = e.Step(0.01)
	if g.ticks != maxTicksPerStep {
		t.Error("dropped ticks were replayed")
	}
}

func TestStepErrors(t *testing.T) {
	boom := errors.New("boom")

	g := &countingGame{load: func(*Engine) error { return boom }}
	e := NewEngine(g, DefaultConfig())
	if err := e.Step(0.01); !errors.Is(err, boom) {
		t.Errorf("load: err = %v, want boom", err)
	}

	g = &countingGame{tickErr: boom}
	e = NewEngine(g, DefaultConfig())
	if err := e.Step(0.05); !errors.Is(err, boom) {
		t.Errorf("tick: err = %v, want boom", err)
	}
}

func TestEndUpdateFlushesTilesAndBuckets(t *testing.T) {
	e := NewEngine(nil, DefaultConfig())
	e.EndUpdate()

	_ = e.Tiles.SetTile(4, 0, 1, 9)
	id, _ := e.Sprites.ActivateNext(spec1x1(40, 40))
	layers, sprites := e.EndUpdate()
	if layers != 1 || sprites != 1 {
		t.Errorf("EndUpdate = %d layers, %d sprites; want 1, 1", layers, sprites)
	}
	if e.Renderer.layers[1][4] != 0x0900 {
		t.Errorf("renderer word = %#04x, want 0x0900", e.Renderer.layers[1][4])
	}
	if !e.Buckets.At(40, 40).Has(id) {
		t.Error("sprite not indexed after EndUpdate")
	}
	if e.Tiles.AnyDirty() || e.Sprites.Pending() {
		t.Error("changes still pending after EndUpdate")
	}
}

func TestEngineDeactivateLeavesBucketsAtOnce(t *testing.T) {
	e := NewEngine(nil, DefaultConfig())
	id, _ := e.Sprites.ActivateNext(spec1x1(40, 40))
	e.EndUpdate()

	_ = e.Sprites.Deactivate(id)
	if e.Buckets.At(40, 40).Has(id) {
		t.Error("deactivated sprite visible to queries before EndUpdate")
	}
}

// --- End to end ---

func TestEngineComposesLoadedScene(t *testing.T) {
	g := &countingGame{load: func(e *Engine) error {
		if err := e.Palettes.Bind(0, NewPalette(black, red, green, blue)); err != nil {
			return err
		}
		if err := e.Palettes.Bind(2, NewPalette(black, white, white, white)); err != nil {
			return err
		}
		if err := e.Textures.LoadCell(solidCell(1), 5); err != nil {
			return err
		}
		if err := e.Textures.LoadCell(leftColumnCell(), 7); err != nil {
			return err
		}
		if err := e.Tiles.Set(0, 0, 0, UnpackTile(0x0500)); err != nil {
			return err
		}
		return e.Tiles.Set(1, 0, 0, UnpackTile(0x0742))
	}}
	e := NewEngine(g, DefaultConfig())
	if err := e.Step(0.01); err != nil {
		t.Fatal(err)
	}
	e.Compose()

	check := func(x, y int, c Color565) {
		t.Helper()
		wr, wg, wb := c.RGB()
		r, gr, b := e.Renderer.Pixel(x, y)
		if r != wr || gr != wg || b != wb {
			t.Errorf("pixel (%d, %d) = (%d, %d, %d), want (%d, %d, %d)", x, y, r, gr, b, wr, wg, wb)
		}
	}
	check(0, 0, red)
	check(7, 7, red)
	// 0x0742: cell 7 flipped horizontally with palette 2.
	check(8, 0, black)
	check(15, 0, white)
	check(15, 7, white)
	check(16, 0, black)
}

func TestEngineSetDebugMode(t *testing.T) {
	e := NewEngine(nil, DefaultConfig())
	e.SetDebugMode(true)
	if !e.Renderer.debug || !e.Config().Debug {
		t.Error("debug mode not propagated")
	}
}
