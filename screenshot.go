package retro

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Screenshot queues a labeled screenshot of the next composed frame. The PNG
// is written to ScreenshotDir with a timestamped file name at the end of
// Compose.
func (r *Renderer) Screenshot(label string) {
	r.screenshotQueue = append(r.screenshotQueue, label)
}

// flushScreenshots writes every queued label from the composed frame.
func (r *Renderer) flushScreenshots() {
	if len(r.screenshotQueue) == 0 {
		return
	}

	if err := os.MkdirAll(r.ScreenshotDir, 0o755); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[retro] screenshot: mkdir %s: %v\n", r.ScreenshotDir, err)
		r.screenshotQueue = r.screenshotQueue[:0]
		return
	}

	// The frame is always opaque, so it can be wrapped as-is.
	img := &image.NRGBA{
		Pix:    r.frame,
		Stride: NativeWidth * 4,
		Rect:   image.Rect(0, 0, NativeWidth, NativeHeight),
	}

	stamp := time.Now().Format("20060102_150405")
	for _, label := range r.screenshotQueue {
		if err := writePNG(screenshotPath(r.ScreenshotDir, stamp, label), img); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[retro] screenshot: %v\n", err)
		}
	}
	r.screenshotQueue = r.screenshotQueue[:0]
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// screenshotPath names a screenshot "<stamp>_<label>.png" inside dir. Runs
// of anything but ASCII letters, digits and '-' in the label collapse to a
// single '-'. An empty label becomes "frame".
func screenshotPath(dir, stamp, label string) string {
	var b strings.Builder
	sep := false
	for _, c := range label {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(c)
			continue
		}
		sep = true
	}
	name := b.String()
	if name == "" {
		name = "frame"
	}
	return filepath.Join(dir, stamp+"_"+name+".png")
}
