package detect

import "math"

// BoxRect represents the coordinates of a bounding box
type BoxRect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns the pixel width of the bounding box
func (b BoxRect) Width() int {
	return b.Right - b.Left
}

// Height returns the pixel height of the bounding box
func (b BoxRect) Height() int {
	return b.Bottom - b.Top
}

// CenterX returns the x coordinate of the bounding box center
func (b BoxRect) CenterX() int {
	return (b.Left + b.Right) / 2
}

// CenterY returns the y coordinate of the bounding box center
func (b BoxRect) CenterY() int {
	return (b.Top + b.Bottom) / 2
}

// DetectResult defines the attributes of a single object detected in a
// camera frame
type DetectResult struct {
	// Class is the line number in the model labels the detected object
	// belongs to
	Class int
	// Label is the class name from the active taxonomy
	Label string
	// Box are the bounding box coordinates of the detected object
	Box BoxRect
	// Probability is the confidence score of the detected object
	Probability float32
	// ID is a unique ID assigned to the detection result
	ID int64
}

// CalculateIoU works out the Intersection over Union (IoU) value of two
// bounding boxes using an inclusive pixel calculation
func CalculateIoU(a, b BoxRect) float32 {

	w := math.Max(0.0, math.Min(float64(a.Right), float64(b.Right))-math.Max(float64(a.Left), float64(b.Left))+1.0)
	h := math.Max(0.0, math.Min(float64(a.Bottom), float64(b.Bottom))-math.Max(float64(a.Top), float64(b.Top))+1.0)
	intersection := w * h

	// areas with added 1.0 for inclusive pixel calculation
	areaA := float64(a.Right-a.Left+1) * float64(a.Bottom-a.Top+1)
	areaB := float64(b.Right-b.Left+1) * float64(b.Bottom-b.Top+1)

	union := areaA + areaB - intersection

	if union <= 0 {
		return 0.0
	}

	return float32(intersection / union)
}
