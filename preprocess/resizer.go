// Package preprocess prepares camera frames for detector inference and maps
// detector box coordinates back into source sensor pixel space.
package preprocess

import (
	"image"
	"image/color"

	"github.com/mapsmith/go-floormap/detect"
	"gocv.io/x/gocv"
)

// Resizer defines the struct used for handling the rotation and letterbox
// resize of camera frames into the square model input.  A landscape source
// frame is rotated 90 degrees clockwise then letterboxed with zero padding.
// Boxes emitted by the decoder are in this rotated and padded space and must
// be mapped back through MapBoxToSource before any downstream use.
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destSize is the square model input size to scale to
	destSize int
	// rotMat and tempMat are Mats used during the resize process
	rotMat  gocv.Mat
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float32
	// resize dimensions after rotation
	resizeW int
	resizeH int
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destSize int) *Resizer {
	r := &Resizer{
		srcWidth:  srcWidth,
		srcHeight: srcHeight,
		destSize:  destSize,
		rotMat:    gocv.NewMat(),
		tempMat:   gocv.NewMat(),
	}

	// precalculate scaling dimensions
	r.preCalc()

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {

	if err := r.rotMat.Close(); err != nil {
		return err
	}

	return r.tempMat.Close()
}

// preCalc the scaling factors for the rotated source and destination Mats
func (r *Resizer) preCalc() {

	// rotation swaps the frame dimensions
	rotW := r.srcHeight
	rotH := r.srcWidth

	r.resizeW = r.destSize
	r.resizeH = r.destSize

	scaleW := float32(r.destSize) / float32(rotW)
	scaleH := float32(r.destSize) / float32(rotH)
	r.scale = scaleH

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = int(float32(rotH) * r.scale)
	} else {
		r.resizeW = int(float32(rotW) * r.scale)
	}

	r.yPad = (r.destSize - r.resizeH) / 2 // padding height / 2
	r.xPad = (r.destSize - r.resizeW) / 2 // padding width / 2
}

// LetterBoxResize rotates and resizes the input image to the dimensions
// needed for the input tensor size whilst maintaining image aspect.  Color
// is that used for letter box padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Rotate(src, &r.rotMat, gocv.Rotate90Clockwise)

	gocv.Resize(r.rotMat, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destSize-r.resizeH-r.yPad,
		r.xPad, r.destSize-r.resizeW-r.xPad, gocv.BorderConstant, color)
}

// MapPointToSource maps a pixel coordinate in rotated and padded model input
// space back to source sensor pixel space
func (r *Resizer) MapPointToSource(x, y int) (int, int) {

	// remove the letterbox padding and scaling, landing in rotated space
	xr := (float32(x) - float32(r.xPad)) / r.scale
	yr := (float32(y) - float32(r.yPad)) / r.scale

	xr = clampF(xr, 0, float32(r.srcHeight-1))
	yr = clampF(yr, 0, float32(r.srcWidth-1))

	// invert the 90 degree clockwise rotation
	srcX := int(yr)
	srcY := r.srcHeight - 1 - int(xr)

	return srcX, srcY
}

// MapBoxToSource maps a bounding box in rotated and padded model input space
// back to source sensor pixel space.  This is the inverse of the
// preprocessing contract and the single conversion point between decoder
// output space and everything downstream.
func (r *Resizer) MapBoxToSource(box detect.BoxRect) detect.BoxRect {

	x1, y1 := r.MapPointToSource(box.Left, box.Top)
	x2, y2 := r.MapPointToSource(box.Right, box.Bottom)

	return detect.BoxRect{
		Left:   minInt(x1, x2),
		Top:    minInt(y1, y2),
		Right:  maxInt(x1, x2),
		Bottom: maxInt(y1, y2),
	}
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}

// DestSize returns the square model input size
func (r *Resizer) DestSize() int {
	return r.destSize
}

func clampF(v, min, max float32) float32 {

	if v < min {
		return min
	}

	if v > max {
		return max
	}

	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
