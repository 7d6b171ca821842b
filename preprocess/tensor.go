package preprocess

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"
)

// FrameToTensor converts a camera frame into the normalized RGB input tensor
// for the detector: BT.601 color conversion, 90 degree rotation, letterbox
// resize to the square model input, then channel values scaled to [0,1] in
// HWC order
func (r *Resizer) FrameToTensor(frame *YUVImage) ([]float32, error) {

	if frame.Width != r.srcWidth || frame.Height != r.srcHeight {
		return nil, fmt.Errorf("frame %dx%d does not match resizer source %dx%d",
			frame.Width, frame.Height, r.srcWidth, r.srcHeight)
	}

	rgb, err := frame.ToRGB()

	if err != nil {
		return nil, err
	}

	src, err := gocv.NewMatFromBytes(frame.Height, frame.Width,
		gocv.MatTypeCV8UC3, rgb)

	if err != nil {
		return nil, fmt.Errorf("creating frame mat: %w", err)
	}

	defer src.Close()

	dest := gocv.NewMat()
	defer dest.Close()

	// zero padding per the preprocessing contract
	r.LetterBoxResize(src, &dest, color.RGBA{})

	data := dest.ToBytes()

	tensor := make([]float32, len(data))

	for i, b := range data {
		tensor[i] = float32(b) / 255.0
	}

	return tensor, nil
}
