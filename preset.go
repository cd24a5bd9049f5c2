package retro

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LoadPalettes parses a palette preset file:
//
//	{"palettes": [["#000000", "#555555", "#aaaaaa", "#ffffff"], ...]}
//
// Colors are "#rrggbb" strings, reduced to Color565. The returned palettes
// are unbound.
func LoadPalettes(jsonData []byte) ([]*Palette, error) {
	var doc struct {
		Palettes [][]string `json:"palettes"`
	}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("retro: failed to parse palette JSON: %w", err)
	}
	if doc.Palettes == nil {
		return nil, fmt.Errorf("retro: palette JSON has no \"palettes\" key: %w", ErrFormat)
	}
	if len(doc.Palettes) > MaxPalettes {
		return nil, fmt.Errorf("retro: palette JSON has %d palettes, max %d: %w",
			len(doc.Palettes), MaxPalettes, ErrCapacity)
	}

	out := make([]*Palette, 0, len(doc.Palettes))
	for i, entry := range doc.Palettes {
		if len(entry) != PaletteColors {
			return nil, fmt.Errorf("retro: palette %d has %d colors, want %d: %w",
				i, len(entry), PaletteColors, ErrFormat)
		}
		var colors [PaletteColors]Color565
		for j, s := range entry {
			c, err := parseHexColor(s)
			if err != nil {
				return nil, fmt.Errorf("retro: palette %d color %d: %w", i, j, err)
			}
			colors[j] = c
		}
		out = append(out, NewPalette(colors[0], colors[1], colors[2], colors[3]))
	}
	return out, nil
}

func parseHexColor(s string) (Color565, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return 0, fmt.Errorf("%q is not #rrggbb: %w", s, ErrFormat)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not #rrggbb: %w", s, ErrFormat)
	}
	return NewColor565(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
