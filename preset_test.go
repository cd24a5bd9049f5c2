package retro

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const presetJSON = `{
  "palettes": [
    ["#000000", "#555555", "#aaaaaa", "#ffffff"],
    ["#000000", "#ff0000", "#00ff00", "#0000FF"]
  ]
}`

func TestLoadPalettes(t *testing.T) {
	pals, err := LoadPalettes([]byte(presetJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(pals) != 2 {
		t.Fatalf("len = %d, want 2", len(pals))
	}
	want := [PaletteColors]Color565{black, red, green, blue}
	if got := pals[1].Data(); got != want {
		t.Errorf("palette 1 = %v, want %v", got, want)
	}
	if c, _ := pals[0].Color(3); c != white {
		t.Errorf("palette 0 color 3 = %#04x, want white", c)
	}
	if pals[0].Bound() {
		t.Error("loaded palette is bound")
	}
}

func TestLoadPalettesErrors(t *testing.T) {
	tooMany := make([]string, MaxPalettes+1)
	for i := range tooMany {
		tooMany[i] = `["#000000","#000000","#000000","#000000"]`
	}

	tests := []struct {
		name string
		json string
		want error
	}{
		{"missing key", `{}`, ErrFormat},
		{"three colors", `{"palettes": [["#000000", "#111111", "#222222"]]}`, ErrFormat},
		{"no hash", `{"palettes": [["000000", "#111111", "#222222", "#333333"]]}`, ErrFormat},
		{"short hex", `{"palettes": [["#000", "#111111", "#222222", "#333333"]]}`, ErrFormat},
		{"bad digit", `{"palettes": [["#00000g", "#111111", "#222222", "#333333"]]}`, ErrFormat},
		{"too many", fmt.Sprintf(`{"palettes": [%s]}`, strings.Join(tooMany, ",")), ErrCapacity},
	}
	for _, tt := range tests {
		_, err := LoadPalettes([]byte(tt.json))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestLoadPalettesInvalidJSON(t *testing.T) {
	if _, err := LoadPalettes([]byte(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
