package retro

import "testing"

func TestDebugLogSilentWhenDisabled(t *testing.T) {
	r := NewRenderer()
	// Must not panic or print in release mode.
	r.debugLog(frameStats{layerUploads: 99})
}

func TestDebugCheckUploadsThreshold(t *testing.T) {
	// Both calls must not panic; the second crosses the threshold.
	debugCheckUploads(frameStats{layerUploads: debugMaxUploadsPerFrame})
	debugCheckUploads(frameStats{layerUploads: debugMaxUploadsPerFrame + 1})
}

func TestComposeRecordsTimingInDebug(t *testing.T) {
	r := NewRenderer()
	r.SetDebugMode(true)
	r.Compose(nil, nil, nil)
	if r.stats.composeTime <= 0 {
		t.Error("compose time not recorded in debug mode")
	}

	r = NewRenderer()
	r.Compose(nil, nil, nil)
	if r.stats.composeTime != 0 {
		t.Error("compose time recorded in release mode")
	}
}
