package retro

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png" // PNG sheets
	"io"
	"os"

	"github.com/ericpauley/go-quantize/quantize"
	_ "golang.org/x/image/bmp" // BMP sheets
)

// ColorMode tags the pixel format of an IndexedImage.
type ColorMode uint8

const (
	ColorModePalette2 ColorMode = iota + 1 // 2 bits per pixel, 4 per byte
	ColorModePalette4                      // 4 bits per pixel, 2 per byte
	ColorModePalette8                      // 8 bits per pixel
)

// String returns the mode name.
func (m ColorMode) String() string {
	switch m {
	case ColorModePalette2:
		return "palette2"
	case ColorModePalette4:
		return "palette4"
	case ColorModePalette8:
		return "palette8"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint8(m))
	}
}

// bitsPerPixel returns 0 for unknown modes.
func (m ColorMode) bitsPerPixel() int {
	switch m {
	case ColorModePalette2:
		return 2
	case ColorModePalette4:
		return 4
	case ColorModePalette8:
		return 8
	default:
		return 0
	}
}

// Cell geometry in the engine's fixed mode.
const (
	PixelsPerByte = 4
	CellByteSize  = TilePixels / PixelsPerByte * TilePixels
	cellRowBytes  = TilePixels / PixelsPerByte
)

// IndexedImage is a decoded indexed-color bitmap: the shape every asset
// loader produces. Rows are padded to a whole byte; within a byte the
// leftmost pixel occupies the most significant bits.
type IndexedImage struct {
	Width, Height int
	Mode          ColorMode
	Pix           []byte
}

// NewIndexedImage allocates a zeroed 2bpp image.
func NewIndexedImage(width, height int) *IndexedImage {
	m := &IndexedImage{Width: width, Height: height, Mode: ColorModePalette2}
	m.Pix = make([]byte, m.stride()*height)
	return m
}

// stride returns the bytes per row; rows are padded to a whole byte.
func (m *IndexedImage) stride() int {
	return (m.Width*m.Mode.bitsPerPixel() + 7) / 8
}

// ColorIndexAt returns the 2-bit color index at (x, y). Only valid for
// ColorModePalette2 images.
func (m *IndexedImage) ColorIndexAt(x, y int) uint8 {
	i := y*m.stride() + x/PixelsPerByte
	shift := uint(6 - 2*(x%PixelsPerByte))
	return m.Pix[i] >> shift & 0b11
}

// SetColorIndex stores a 2-bit color index at (x, y).
func (m *IndexedImage) SetColorIndex(x, y int, idx uint8) {
	i := y*m.stride() + x/PixelsPerByte
	shift := uint(6 - 2*(x%PixelsPerByte))
	m.Pix[i] = m.Pix[i]&^(0b11<<shift) | (idx&0b11)<<shift
}

// CheckSheet verifies that m can be split into texture cells: 2bpp mode,
// dimensions that are positive multiples of the cell size, and a pixel
// buffer of the right length.
func (m *IndexedImage) CheckSheet() error {
	if m.Mode != ColorModePalette2 {
		return fmt.Errorf("retro: sheet color mode %v, want %v: %w", m.Mode, ColorModePalette2, ErrFormat)
	}
	if m.Width <= 0 || m.Height <= 0 || m.Width%TilePixels != 0 || m.Height%TilePixels != 0 {
		return fmt.Errorf("retro: sheet size %dx%d is not a multiple of %d: %w",
			m.Width, m.Height, TilePixels, ErrFormat)
	}
	if want := m.Width * m.Height / PixelsPerByte; len(m.Pix) != want {
		return fmt.Errorf("retro: sheet has %d pixel bytes, want %d: %w", len(m.Pix), want, ErrFormat)
	}
	return nil
}

// CellCount returns how many cells the sheet holds.
func (m *IndexedImage) CellCount() int {
	return (m.Width / TilePixels) * (m.Height / TilePixels)
}

// Cell extracts cell i (row-major across the sheet) as CellByteSize packed
// bytes. The sheet must pass CheckSheet.
func (m *IndexedImage) Cell(i int) []byte {
	cols := m.Width / TilePixels
	cx, cy := i%cols, i/cols
	stride := m.stride()
	out := make([]byte, CellByteSize)
	for row := 0; row < TilePixels; row++ {
		src := (cy*TilePixels+row)*stride + cx*cellRowBytes
		copy(out[row*cellRowBytes:(row+1)*cellRowBytes], m.Pix[src:src+cellRowBytes])
	}
	return out
}

// FromPaletted converts a paletted image with at most four colors. The
// palette order becomes the color index order.
func FromPaletted(p *image.Paletted) (*IndexedImage, error) {
	if len(p.Palette) > PaletteColors {
		return nil, fmt.Errorf("retro: image has %d colors, max %d: %w", len(p.Palette), PaletteColors, ErrFormat)
	}
	b := p.Bounds()
	out := NewIndexedImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetColorIndex(x, y, p.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out, nil
}

// QuantizeImage reduces any image to four colors with a median cut and
// returns the 2bpp sheet together with the chosen colors, darkest first, so
// the result can seed a Palette. Paletted images that already fit are
// converted without quantizing.
func QuantizeImage(m image.Image) (*IndexedImage, [PaletteColors]Color565) {
	var colors [PaletteColors]Color565

	pm, _ := m.(*image.Paletted)
	if pm == nil || len(pm.Palette) > PaletteColors {
		q := quantize.MedianCutQuantizer{}
		pal := q.Quantize(make(color.Palette, 0, PaletteColors), m)
		sortByLuma(pal)
		pm = image.NewPaletted(m.Bounds(), pal)
		draw.Draw(pm, pm.Rect, m, m.Bounds().Min, draw.Src)
	}

	for i, c := range pm.Palette {
		colors[i] = Color565Model.Convert(c).(Color565)
	}
	out, _ := FromPaletted(pm)
	return out, colors
}

func luma(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return 299*r + 587*g + 114*b
}

func sortByLuma(p color.Palette) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && luma(p[j]) < luma(p[j-1]); j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}

// DecodeImage decodes a PNG or BMP sheet. Paletted sources with at most four
// colors keep their indices; everything else is quantized.
func DecodeImage(r io.Reader) (*IndexedImage, [PaletteColors]Color565, error) {
	m, _, err := image.Decode(r)
	if err != nil {
		return nil, [PaletteColors]Color565{}, fmt.Errorf("retro: decode sheet: %w", err)
	}
	out, colors := QuantizeImage(m)
	return out, colors, nil
}

// Binary sheet format: magic, u16 width, u16 height, u8 mode, pixel bytes.
// Integers are little-endian.
var sheetMagic = [4]byte{'R', 'T', 'X', '2'}

type sheetHeader struct {
	Magic  [4]byte
	Width  uint16
	Height uint16
	Mode   ColorMode
}

// WriteTo encodes m in the binary sheet format.
func (m *IndexedImage) WriteTo(w io.Writer) (int64, error) {
	if m.Width > 0xFFFF || m.Height > 0xFFFF {
		return 0, fmt.Errorf("retro: sheet size %dx%d too large: %w", m.Width, m.Height, ErrFormat)
	}
	h := sheetHeader{Magic: sheetMagic, Width: uint16(m.Width), Height: uint16(m.Height), Mode: m.Mode}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return 0, err
	}
	n, err := w.Write(m.Pix)
	return int64(binary.Size(h) + n), err
}

// ReadIndexedImage decodes the binary sheet format.
func ReadIndexedImage(r io.Reader) (*IndexedImage, error) {
	var h sheetHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("retro: read sheet header: %w", err)
	}
	if h.Magic != sheetMagic {
		return nil, fmt.Errorf("retro: bad sheet magic %q: %w", h.Magic[:], ErrFormat)
	}
	if h.Mode.bitsPerPixel() == 0 {
		return nil, fmt.Errorf("retro: unknown sheet color mode %d: %w", uint8(h.Mode), ErrFormat)
	}
	m := &IndexedImage{Width: int(h.Width), Height: int(h.Height), Mode: h.Mode}
	m.Pix = make([]byte, m.stride()*m.Height)
	if _, err := io.ReadFull(r, m.Pix); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("retro: truncated sheet: %w", ErrFormat)
		}
		return nil, fmt.Errorf("retro: read sheet pixels: %w", err)
	}
	return m, nil
}

// LoadIndexedImageFile reads a binary sheet from disk.
func LoadIndexedImageFile(path string) (*IndexedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIndexedImage(bufio.NewReader(f))
}
