// Package retro is the scene model of a tile and sprite retro renderer for
// [Ebitengine].
//
// The native screen is 240x135 pixels. Everything on it is built from 8x8
// texture cells with four colors each, drawn through one of sixteen
// four-color palettes.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates the components, a
// window, and the game loop:
//
//	type game struct{}
//
//	func (game) Load(e *retro.Engine) error            { return nil }
//	func (game) Update(e *retro.Engine, dt float64) error { return nil }
//	func (game) Tick(e *retro.Engine) error               { return nil }
//
//	retro.Run(game{}, retro.DefaultConfig())
//
// # Components
//
// [PaletteTable] holds sixteen palette slots. A [Palette] is bound into a
// slot and from then on every color change re-uploads the whole table.
//
// [TileGrid] is four 60x36 layers of 16-bit tile words. Coordinates wrap on
// both axes, each layer has its own scroll offset, and only layers edited
// since the last [TileGrid.Resync] are uploaded.
//
//	grid.SetTile(3, 2, 0, 5)
//	grid.SetPalette(3, 2, 0, 1)
//	grid.SetOffset(0, 16, 0)
//
// [TextureBank] is a pool of 256 cells. Sheets are split into cells in
// row-major order and loaded either into the first free cells or at chosen
// indices:
//
//	f, _ := os.Open("tiles.png")
//	sheet, colors, _ := retro.DecodeImage(f)
//	cells, err := bank.LoadSheet(sheet)
//
// [SpriteArena] owns 40 sprite slots. Ids are handed out from a FIFO free
// queue; every move, reshape and (de)activation is queued for the
// [SpriteBucketIndex], which maps 16 pixel screen buckets to the sprites
// overlapping them.
//
// Components never talk to the GPU. They push changes to small sink
// interfaces ([PaletteSink], [TileSink], [LayerInfoSink], [CellSink]); the
// [Renderer] implements all of them and composes the frame.
//
// # Tweens
//
// [SpriteTween], [OffsetTween] and [PaletteFade] animate sprite positions,
// layer scrolling and palette colors using [gween] easing functions.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package retro
