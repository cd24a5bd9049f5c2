package retro

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// Config holds window and loop settings for Run.
type Config struct {
	// Title is the window title.
	Title string

	// Width and Height are the window size in screen pixels. The native
	// frame is scaled to fit.
	Width, Height int

	// TickRate is how many times per second Game.Tick runs.
	TickRate int

	// RenderFrequency is the update rate in frames per second.
	RenderFrequency int

	// Debug enables the renderer's debug mode.
	Debug bool

	// ScreenshotDir is where Renderer.Screenshot writes PNGs.
	ScreenshotDir string
}

// DefaultConfig returns the stock settings: a 1440x810 window (6x native),
// 20 ticks per second and 144 frames per second.
func DefaultConfig() Config {
	return Config{
		Title:           "Retro",
		Width:           1440,
		Height:          810,
		TickRate:        20,
		RenderFrequency: 144,
		ScreenshotDir:   "screenshots",
	}
}

// Game is implemented by applications driven by an Engine.
type Game interface {
	// Load runs once before the first Update, after every component is
	// wired to the renderer.
	Load(e *Engine) error

	// Update runs once per frame with the frame time in seconds.
	Update(e *Engine, dt float64) error

	// Tick runs at Config.TickRate, after Update.
	Tick(e *Engine) error
}

// maxTicksPerStep bounds tick catch-up after a long stall. Ticks beyond the
// bound are dropped.
const maxTicksPerStep = 4

// Engine owns the scene components and the renderer they feed. Each frame
// runs Game.Update, any due Game.Tick calls, then EndUpdate, then composes
// and draws.
type Engine struct {
	Palettes *PaletteTable
	Tiles    *TileGrid
	Textures *TextureBank
	Sprites  *SpriteArena
	Buckets  *SpriteBucketIndex
	Renderer *Renderer

	game   Game
	cfg    Config
	loaded bool

	tickDelay float64
	tickTime  float64
	ticks     uint64
}

// NewEngine creates every component and connects its sink to a new
// Renderer.
func NewEngine(game Game, cfg Config) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultConfig().TickRate
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = DefaultConfig().ScreenshotDir
	}

	r := NewRenderer()
	r.ScreenshotDir = cfg.ScreenshotDir
	r.SetDebugMode(cfg.Debug)

	sprites := NewSpriteArena()
	e := &Engine{
		Palettes:  NewPaletteTable(r),
		Tiles:     NewTileGrid(),
		Textures:  NewTextureBank(r),
		Sprites:   sprites,
		Buckets:   NewSpriteBucketIndex(sprites),
		Renderer:  r,
		game:      game,
		cfg:       cfg,
		tickDelay: 1 / float64(cfg.TickRate),
	}
	sprites.AttachIndex(e.Buckets)
	e.Tiles.SetInfoSink(r)
	e.Tiles.Refresh(r)
	return e
}

// Config returns the settings the engine was created with, after defaults
// were applied.
func (e *Engine) Config() Config {
	return e.cfg
}

// Ticks returns how many times Game.Tick has run.
func (e *Engine) Ticks() uint64 {
	return e.ticks
}

// SetDebugMode toggles the renderer's debug mode.
func (e *Engine) SetDebugMode(enabled bool) {
	e.cfg.Debug = enabled
	e.Renderer.SetDebugMode(enabled)
}

// EndUpdate pushes the frame's pending changes: dirty tile layers are
// uploaded to the renderer and sprites that moved, reshaped or changed
// activation state have their buckets rebuilt. It returns the number of
// layers uploaded and sprites processed.
func (e *Engine) EndUpdate() (layers, sprites int) {
	layers = e.Tiles.Resync(e.Renderer)
	sprites = e.Sprites.Sync(e.Buckets)
	return layers, sprites
}

// Step advances one frame of dt seconds without drawing: Load on the first
// call, then Update, due ticks, and EndUpdate.
func (e *Engine) Step(dt float64) error {
	if !e.loaded {
		e.loaded = true
		if e.game != nil {
			if err := e.game.Load(e); err != nil {
				return fmt.Errorf("retro: load: %w", err)
			}
		}
	}

	if e.game != nil {
		if err := e.game.Update(e, dt); err != nil {
			return err
		}
	}

	e.tickTime += dt
	for n := 0; e.tickTime >= e.tickDelay; n++ {
		if n == maxTicksPerStep {
			e.tickTime = 0
			break
		}
		e.tickTime -= e.tickDelay
		e.ticks++
		if e.game != nil {
			if err := e.game.Tick(e); err != nil {
				return err
			}
		}
	}

	e.EndUpdate()
	return nil
}

// Compose renders the current scene into the renderer's frame.
func (e *Engine) Compose() {
	e.Renderer.Compose(e.Sprites, e.Buckets, e.Textures)
}

// Update implements ebiten.Game.
func (e *Engine) Update() error {
	return e.Step(1 / float64(ebiten.TPS()))
}

// Draw implements ebiten.Game.
func (e *Engine) Draw(screen *ebiten.Image) {
	e.Compose()
	e.Renderer.Draw(screen)
}

// Layout implements ebiten.Game. The logical screen is always the native
// resolution.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	return NativeWidth, NativeHeight
}

// Run opens a window and drives game until the window closes or a Game
// method returns an error.
func Run(game Game, cfg Config) error {
	e := NewEngine(game, cfg)
	cfg = e.cfg

	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.RenderFrequency > 0 {
		ebiten.SetTPS(cfg.RenderFrequency)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(e)
}
