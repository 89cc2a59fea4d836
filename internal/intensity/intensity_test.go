package intensity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rheedview/internal/frame"
	"rheedview/internal/roi"
)

func uniformGray(w, h int, v byte) *frame.Frame {
	f := frame.NewGray(w, h)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

func uniformRGB(w, h int, r, g, b byte) *frame.Frame {
	f := frame.NewRGB(w, h)
	for i := 0; i < len(f.Data); i += 3 {
		f.Data[i], f.Data[i+1], f.Data[i+2] = r, g, b
	}
	return f
}

func TestFrameIntensityUniformNormalized(t *testing.T) {
	t.Parallel()

	f := uniformGray(100, 100, 128)
	// Mean equals max, so the normalized value is 1.
	assert.InDelta(t, 1.0, FrameIntensity(f, true), 1e-9)
}

func TestFrameIntensityUniformRaw(t *testing.T) {
	t.Parallel()

	f := uniformGray(100, 100, 128)
	assert.InDelta(t, 128.0, FrameIntensity(f, false), 1e-9)
}

func TestFrameIntensityColor(t *testing.T) {
	t.Parallel()

	f := uniformRGB(100, 100, 100, 150, 200)
	// 0.299*100 + 0.587*150 + 0.114*200 = 140.75
	assert.InDelta(t, 140.75, FrameIntensity(f, false), 0.1)
}

func TestFrameIntensityVaryingNormalized(t *testing.T) {
	t.Parallel()

	f := frame.NewGray(16, 16)
	for i := range f.Data {
		f.Data[i] = byte(i)
	}

	// Mean of 0..255 is 127.5, max is 255.
	assert.InDelta(t, 127.5/255, FrameIntensity(f, true), 0.01)
}

func TestFrameIntensityZeroFrame(t *testing.T) {
	t.Parallel()

	f := frame.NewGray(100, 100)
	assert.Equal(t, 0.0, FrameIntensity(f, true))
}

func TestROIIntensityUniform(t *testing.T) {
	t.Parallel()

	f := uniformGray(100, 100, 128)
	r := &roi.ROI{X: 10, Y: 10, Width: 20, Height: 20}

	v, ok := ROIIntensity(f, r, true)
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)

	raw, ok := ROIIntensity(f, r, false)
	require.True(t, ok)
	assert.InDelta(t, 128.0, raw, 1e-9)
}

func TestROIIntensityOutsideFrame(t *testing.T) {
	t.Parallel()

	f := uniformGray(100, 100, 128)

	cases := []struct {
		name string
		roi  *roi.ROI
	}{
		{"right of frame", &roi.ROI{X: 100, Y: 0, Width: 20, Height: 20}},
		{"below frame", &roi.ROI{X: 0, Y: 100, Width: 20, Height: 20}},
		{"negative, no overlap", &roi.ROI{X: -50, Y: -50, Width: 20, Height: 20}},
		{"zero width", &roi.ROI{X: 10, Y: 10, Width: 0, Height: 20}},
		{"negative height", &roi.ROI{X: 10, Y: 10, Width: 20, Height: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ROIIntensity(f, tc.roi, true)
			assert.False(t, ok)
		})
	}
}

func TestROIIntensityClippedRegion(t *testing.T) {
	t.Parallel()

	// ROI overhangs the bottom-right corner; the clipped region is still
	// uniform, so the normalized intensity is 1.
	f := uniformGray(100, 100, 100)
	r := &roi.ROI{X: 90, Y: 90, Width: 20, Height: 20}

	v, ok := ROIIntensity(f, r, true)
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestROIIntensityPartialOverlapNegativeOrigin(t *testing.T) {
	t.Parallel()

	f := uniformGray(100, 100, 64)
	r := &roi.ROI{X: -10, Y: -10, Width: 20, Height: 20}

	v, ok := ROIIntensity(f, r, false)
	require.True(t, ok)
	assert.InDelta(t, 64.0, v, 1e-9)
}

func TestROIIntensityNormalizesAgainstWholeFrameMax(t *testing.T) {
	t.Parallel()

	// The region holds 50s but the frame's max is 200; all ROI readings
	// share the frame's dynamic range.
	f := uniformGray(100, 100, 50)
	f.Data[0] = 200
	r := &roi.ROI{X: 50, Y: 50, Width: 10, Height: 10}

	v, ok := ROIIntensity(f, r, true)
	require.True(t, ok)
	assert.InDelta(t, 0.25, v, 1e-9)
}

func TestROIIntensityZeroFrame(t *testing.T) {
	t.Parallel()

	f := frame.NewGray(100, 100)
	r := &roi.ROI{X: 10, Y: 10, Width: 20, Height: 20}

	v, ok := ROIIntensity(f, r, true)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestROIIntensityColorFrame(t *testing.T) {
	t.Parallel()

	f := uniformRGB(100, 100, 100, 150, 200)
	r := &roi.ROI{X: 10, Y: 10, Width: 20, Height: 20}

	v, ok := ROIIntensity(f, r, false)
	require.True(t, ok)
	assert.InDelta(t, 140.75, v, 0.1)
}
