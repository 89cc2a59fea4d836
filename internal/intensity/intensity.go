// Package intensity computes mean image intensities and tracks them over
// time, keyed by frame index, for ROI-based experiment monitoring.
package intensity

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rheedview/internal/frame"
	"rheedview/internal/roi"
)

// FrameIntensity returns the mean luminance of the entire frame. Color
// frames are converted with the luminosity method before averaging. When
// normalize is true the mean is divided by the frame's own maximum luminance
// and the result lies in [0, 1]; an all-zero frame yields 0.
func FrameIntensity(f *frame.Frame, normalize bool) float64 {
	luma := f.Luminance()
	if len(luma) == 0 {
		return 0
	}

	mean := stat.Mean(luma, nil)
	if !normalize {
		return mean
	}

	max := floats.Max(luma)
	if max > 0 {
		return mean / max
	}
	return 0
}

// ROIIntensity returns the mean luminance inside the ROI, clipped to the
// frame's pixel bounds. The second return value is false when the ROI and
// the frame do not intersect at all. Normalization divides by the WHOLE
// frame's maximum luminance, not the region's, so all ROI readings share the
// frame's dynamic range.
func ROIIntensity(f *frame.Frame, r *roi.ROI, normalize bool) (float64, bool) {
	luma := f.Luminance()
	if len(luma) == 0 {
		return 0, false
	}

	// Intersect the ROI with [0,W) x [0,H).
	x1 := max(0, r.X)
	y1 := max(0, r.Y)
	x2 := min(f.Width, r.X+r.Width)
	y2 := min(f.Height, r.Y+r.Height)
	if x1 >= x2 || y1 >= y2 {
		return 0, false
	}

	var sum float64
	for y := y1; y < y2; y++ {
		row := luma[y*f.Width+x1 : y*f.Width+x2]
		for _, v := range row {
			sum += v
		}
	}
	mean := sum / float64((x2-x1)*(y2-y1))

	if !normalize {
		return mean, true
	}

	frameMax := floats.Max(luma)
	if frameMax > 0 {
		return mean / frameMax, true
	}
	return 0, true
}
