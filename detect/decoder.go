package detect

// Decoder turns a single detector output tensor into a list of object
// detection candidates
type Decoder struct {
	// Params are the decoder configuration parameters
	Params Params
	// classNames are the taxonomy labels indexed by class number
	classNames []string
	// idGen is a counter that increments and provides the next number
	// for each detection result ID
	idGen *IDGenerator
}

// Params defines the struct containing the decoder parameters to use
// for post processing operations
type Params struct {
	// BoxThreshold is the minimum probability score required for a bounding
	// box region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with
	ObjectClassNum int
	// ModelInputSize is the pixel width/height of the square model input
	// tensor, box coordinates are normalized against this size
	ModelInputSize int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
	// MinBoxSize is the minimum pixel width or height a decoded box must
	// have, smaller boxes are anchor noise
	MinBoxSize int
	// MinAreaFraction and MaxAreaFraction bound the plausible box area as a
	// fraction of the model input area
	MinAreaFraction float32
	MaxAreaFraction float32
	// MinAspectRatio and MaxAspectRatio bound the plausible box width/height
	// ratio
	MinAspectRatio float32
	MaxAspectRatio float32
}

// DefaultParams returns an instance of Params configured with default values
// for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Box Threshold: 0.25
// - NMS Threshold: 0.45
// - Maximum Object Number: 64
func DefaultParams() Params {
	return Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		ObjectClassNum:  80,
		ModelInputSize:  640,
		MaxObjectNumber: 64,
		MinBoxSize:      8,
		MinAreaFraction: 0.0005,
		MaxAreaFraction: 0.90,
		MinAspectRatio:  0.05,
		MaxAspectRatio:  20.0,
	}
}

// NewDecoder returns an instance of the Decoder post processor.  classNames
// are the taxonomy labels indexed by class number and may be nil in which
// case result Labels are left empty.
func NewDecoder(p Params, classNames []string) *Decoder {
	return &Decoder{
		Params:     p,
		classNames: classNames,
		idGen:      NewIDGenerator(),
	}
}

// tensor layout of the detector output
type tensorLayout int

const (
	layoutUnknown tensorLayout = iota
	// channelsFirst is a [1, 4+C, N] tensor, box and class values are
	// indexed per anchor across the second axis
	channelsFirst
	// channelsLast is a [1, N, 4+C] tensor
	channelsLast
)

// detectLayout works out the tensor layout from its shape and returns the
// layout along with the anchor count
func (d *Decoder) detectLayout(shape []int) (tensorLayout, int) {

	if len(shape) != 3 || shape[0] != 1 {
		return layoutUnknown, 0
	}

	attrs := 4 + d.Params.ObjectClassNum

	if shape[1] == attrs {
		return channelsFirst, shape[2]
	}

	if shape[2] == attrs {
		return channelsLast, shape[1]
	}

	return layoutUnknown, 0
}

// Decode takes the detector output tensor and its shape then runs the object
// detection process and returns the results.  An unrecognized tensor shape
// yields an empty result.  Box coordinates are in padded model input space.
func (d *Decoder) Decode(tensor []float32, shape []int) []DetectResult {

	layout, anchorNum := d.detectLayout(shape)

	if layout == layoutUnknown {
		return nil
	}

	attrs := 4 + d.Params.ObjectClassNum

	if len(tensor) < anchorNum*attrs {
		return nil
	}

	// at reads the value of attribute channel ch for anchor i
	at := func(ch, i int) float32 {
		if layout == channelsFirst {
			return tensor[ch*anchorNum+i]
		}
		return tensor[i*attrs+ch]
	}

	size := float32(d.Params.ModelInputSize)
	inputArea := size * size

	var candidates []DetectResult

	for i := 0; i < anchorNum; i++ {

		// select the maximum scoring class for this anchor
		maxClassID := -1
		maxScore := float32(0)

		for c := 0; c < d.Params.ObjectClassNum; c++ {
			if score := at(4+c, i); score > maxScore {
				maxScore = score
				maxClassID = c
			}
		}

		if maxClassID == -1 || maxScore < d.Params.BoxThreshold {
			continue
		}

		// convert normalized center/size box to pixel coordinates in model
		// input space
		cx := at(0, i) * size
		cy := at(1, i) * size
		w := at(2, i) * size
		h := at(3, i) * size

		if w < float32(d.Params.MinBoxSize) || h < float32(d.Params.MinBoxSize) {
			continue
		}

		// guards against anchor noise
		areaFrac := (w * h) / inputArea

		if areaFrac < d.Params.MinAreaFraction || areaFrac > d.Params.MaxAreaFraction {
			continue
		}

		aspect := w / h

		if aspect < d.Params.MinAspectRatio || aspect > d.Params.MaxAspectRatio {
			continue
		}

		box := BoxRect{
			Left:   clampInt(cx-w/2, 0, size),
			Top:    clampInt(cy-h/2, 0, size),
			Right:  clampInt(cx+w/2, 0, size),
			Bottom: clampInt(cy+h/2, 0, size),
		}

		candidates = append(candidates, DetectResult{
			Class:       maxClassID,
			Box:         box,
			Probability: maxScore,
		})
	}

	keep := nms(candidates, d.Params.NMSThreshold)

	// collate objects into a result for returning
	group := make([]DetectResult, 0, len(keep))

	for _, res := range keep {

		if len(group) >= d.Params.MaxObjectNumber {
			break
		}

		if d.classNames != nil && res.Class < len(d.classNames) {
			res.Label = d.classNames[res.Class]
		}

		res.ID = d.idGen.GetNext()
		group = append(group, res)
	}

	return group
}

// DecodeFloat16 decodes an output tensor supplied as raw float16 bit
// patterns, as produced by models running with half precision outputs
func (d *Decoder) DecodeFloat16(tensor []uint16, shape []int) []DetectResult {
	return d.Decode(float16ToFloat32(tensor), shape)
}

// clampInt restricts the value to be within the range min and max and
// converts the result to int
func clampInt(val, min, max float32) int {

	if val <= min {
		return int(min)
	}

	if val >= max {
		return int(max)
	}

	return int(val)
}
