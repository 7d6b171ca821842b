package preprocess

import (
	"fmt"
	"math"
)

// YUVImage is a planar YUV camera frame with explicit row and pixel strides
// per plane.  Strides may exceed the logical frame width.
type YUVImage struct {
	// Width and Height are the logical frame dimensions in pixels
	Width  int
	Height int
	// Y, U and V are the plane buffers
	Y []byte
	U []byte
	V []byte
	// YRowStride is the row stride of the luma plane
	YRowStride int
	// UVRowStride is the row stride of the chroma planes
	UVRowStride int
	// UVPixelStride is the pixel stride of the chroma planes, 2 for
	// interleaved semi planar layouts
	UVPixelStride int
}

// validate checks the plane buffers cover the logical frame dimensions
func (f *YUVImage) validate() error {

	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}

	if f.YRowStride < f.Width {
		return fmt.Errorf("luma row stride %d below width %d", f.YRowStride, f.Width)
	}

	if len(f.Y) < (f.Height-1)*f.YRowStride+f.Width {
		return fmt.Errorf("luma plane too short: %d bytes", len(f.Y))
	}

	// chroma planes are subsampled 2x2
	chromaRows := (f.Height + 1) / 2
	chromaCols := (f.Width + 1) / 2
	need := (chromaRows-1)*f.UVRowStride + (chromaCols-1)*f.UVPixelStride + 1

	if f.UVPixelStride < 1 || f.UVRowStride < 1 {
		return fmt.Errorf("invalid chroma strides row=%d pixel=%d",
			f.UVRowStride, f.UVPixelStride)
	}

	if len(f.U) < need || len(f.V) < need {
		return fmt.Errorf("chroma planes too short: u=%d v=%d need=%d",
			len(f.U), len(f.V), need)
	}

	return nil
}

// ToRGB converts the frame to packed RGB bytes using the BT.601 coefficient
// set, clamped to [0,255], honoring the independent row and pixel strides of
// each plane
func (f *YUVImage) ToRGB() ([]byte, error) {

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("frame conversion: %w", err)
	}

	rgb := make([]byte, f.Width*f.Height*3)

	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {

			y := float64(f.Y[row*f.YRowStride+col]) - 16

			chromaIdx := (row/2)*f.UVRowStride + (col/2)*f.UVPixelStride
			u := float64(f.U[chromaIdx]) - 128
			v := float64(f.V[chromaIdx]) - 128

			idx := (row*f.Width + col) * 3
			rgb[idx] = clamp8(1.164*y + 1.596*v)
			rgb[idx+1] = clamp8(1.164*y - 0.392*u - 0.813*v)
			rgb[idx+2] = clamp8(1.164*y + 2.017*u)
		}
	}

	return rgb, nil
}

// clamp8 rounds and clamps a channel value to [0,255]
func clamp8(v float64) byte {

	r := math.Round(v)

	if r <= 0 {
		return 0
	}

	if r >= 255 {
		return 255
	}

	return byte(r)
}
