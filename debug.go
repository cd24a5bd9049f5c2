package retro

import (
	"fmt"
	"os"
	"time"
)

// frameStats holds per-frame timing and upload counters.
// Timings are only measured in debug mode.
type frameStats struct {
	composeTime time.Duration
	drawTime    time.Duration

	paletteUploads int
	cellUploads    int
	layerUploads   int
	spritePixels   int
	missingTexels  int
}

// debugLog prints frame stats to stderr.
func (r *Renderer) debugLog(stats frameStats) {
	if !r.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[retro] compose: %v | draw: %v | total: %v\n",
		stats.composeTime, stats.drawTime, stats.composeTime+stats.drawTime)
	_, _ = fmt.Fprintf(os.Stderr,
		"[retro] uploads: palettes %d, cells %d, layers %d | sprite px: %d | missing texels: %d\n",
		stats.paletteUploads, stats.cellUploads, stats.layerUploads, stats.spritePixels, stats.missingTexels)
}

// debugMaxUploadsPerFrame is the layer-upload count above which a frame is
// reported as resyncing more than tile edits should require.
const debugMaxUploadsPerFrame = GridLayers

// debugCheckUploads warns on stderr when the grid was fully resynced more
// than once in a single frame, which points at a caller marking layers
// dirty and resyncing in a loop.
func debugCheckUploads(stats frameStats) {
	if stats.layerUploads > debugMaxUploadsPerFrame {
		_, _ = fmt.Fprintf(os.Stderr, "[retro] warning: %d layer uploads this frame (threshold %d)\n",
			stats.layerUploads, debugMaxUploadsPerFrame)
	}
}
