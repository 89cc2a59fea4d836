package frame

import (
	"image"
)

// Luma weights for RGB to grayscale conversion (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Frame is a single image produced by a frame source.
// Data holds 8-bit samples in row-major order: one byte per pixel for
// grayscale frames, three interleaved bytes (R, G, B) for color frames.
type Frame struct {
	Data     []byte // Pixel samples
	Width    int    // Width in pixels
	Height   int    // Height in pixels
	Channels int    // 1 = grayscale, 3 = RGB
}

// NewGray allocates a zeroed single-channel frame.
func NewGray(width, height int) *Frame {
	return &Frame{
		Data:     make([]byte, width*height),
		Width:    width,
		Height:   height,
		Channels: 1,
	}
}

// NewRGB allocates a zeroed 3-channel frame.
func NewRGB(width, height int) *Frame {
	return &Frame{
		Data:     make([]byte, width*height*3),
		Width:    width,
		Height:   height,
		Channels: 3,
	}
}

// FromImage converts a decoded image to a Frame. When grayscale is true the
// result is single-channel, converted with the luminosity method; otherwise
// the result is 3-channel RGB.
func FromImage(img image.Image, grayscale bool) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if grayscale {
		f := NewGray(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				// RGBA returns 16-bit samples; scale down to 8-bit first.
				luma := lumaR*float64(r>>8) + lumaG*float64(g>>8) + lumaB*float64(b>>8)
				f.Data[y*w+x] = clampByte(luma)
			}
		}
		return f
	}

	f := NewRGB(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * 3
			f.Data[i] = byte(r >> 8)
			f.Data[i+1] = byte(g >> 8)
			f.Data[i+2] = byte(b >> 8)
		}
	}
	return f
}

// IsGray reports whether the frame is single-channel.
func (f *Frame) IsGray() bool {
	return f.Channels == 1
}

// Bounds returns the frame's pixel rectangle [0,Width) x [0,Height).
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// GrayAt returns the grayscale sample at (x, y). For color frames the value
// is the weighted luminance of the pixel.
func (f *Frame) GrayAt(x, y int) byte {
	if f.Channels == 1 {
		return f.Data[y*f.Width+x]
	}
	i := (y*f.Width + x) * 3
	luma := lumaR*float64(f.Data[i]) + lumaG*float64(f.Data[i+1]) + lumaB*float64(f.Data[i+2])
	return clampByte(luma)
}

// RGBAt returns the color components at (x, y). Grayscale frames return the
// sample replicated across all three channels.
func (f *Frame) RGBAt(x, y int) (r, g, b byte) {
	if f.Channels == 1 {
		v := f.Data[y*f.Width+x]
		return v, v, v
	}
	i := (y*f.Width + x) * 3
	return f.Data[i], f.Data[i+1], f.Data[i+2]
}

// Luminance returns the per-pixel luminance of the frame as float64 values
// in row-major order. Grayscale frames are returned as-is; color frames are
// converted with the luminosity method without rounding.
func (f *Frame) Luminance() []float64 {
	out := make([]float64, f.Width*f.Height)
	if f.Channels == 1 {
		for i, v := range f.Data {
			out[i] = float64(v)
		}
		return out
	}
	for p := range out {
		i := p * 3
		out[p] = lumaR*float64(f.Data[i]) + lumaG*float64(f.Data[i+1]) + lumaB*float64(f.Data[i+2])
	}
	return out
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}
