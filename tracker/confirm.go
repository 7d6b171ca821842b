// Package tracker provides the temporal confirmation gate that sits between
// raw per frame object detections and the landmark store.  A detection is
// only emitted once it has been corroborated across several frames at
// roughly the same image location, rejecting single frame false positives.
package tracker

import (
	"time"

	"github.com/mapsmith/go-floormap/detect"
)

// GateParams defines the struct containing the confirmation gate parameters
type GateParams struct {
	// RequiredHits is the number of corroborating sightings needed before a
	// candidate is confirmed
	RequiredHits int
	// MinIoU is the minimum Intersection over Union between a raw detection
	// and a candidate's smoothed box for the two to be matched
	MinIoU float32
	// BlendFactor is the linear interpolation factor used to smooth the
	// candidate box toward each new observation
	BlendFactor float32
	// Window is the sliding inactivity window, candidates not seen for
	// longer are purged
	Window time.Duration
}

// DefaultGateParams returns an instance of GateParams configured with
// default values:
// - Required Hits: 3
// - Minimum IoU: 0.35
// - Blend Factor: 0.3
// - Window: 2s
func DefaultGateParams() GateParams {
	return GateParams{
		RequiredHits: 3,
		MinIoU:       0.35,
		BlendFactor:  0.3,
		Window:       2 * time.Second,
	}
}

// floatBox is a bounding box held in float coordinates so repeated blending
// does not accumulate integer truncation
type floatBox struct {
	left   float32
	top    float32
	right  float32
	bottom float32
}

func toFloatBox(b detect.BoxRect) floatBox {
	return floatBox{
		left:   float32(b.Left),
		top:    float32(b.Top),
		right:  float32(b.Right),
		bottom: float32(b.Bottom),
	}
}

func (f floatBox) rect() detect.BoxRect {
	return detect.BoxRect{
		Left:   int(f.left),
		Top:    int(f.top),
		Right:  int(f.right),
		Bottom: int(f.bottom),
	}
}

// lerp blends the box toward target by factor
func (f *floatBox) lerp(target floatBox, factor float32) {
	f.left += factor * (target.left - f.left)
	f.top += factor * (target.top - f.top)
	f.right += factor * (target.right - f.right)
	f.bottom += factor * (target.bottom - f.bottom)
}

// candidate tracks one label/region across frames, it never leaves the gate
type candidate struct {
	label    string
	class    int
	box      floatBox
	hits     int
	bestProb float32
	lastSeen time.Time
}

// ConfirmationGate is the temporal filter between the detector and the
// landmark store.  It runs entirely inside the inference worker's single
// flight region so it needs no internal locking.
type ConfirmationGate struct {
	params     GateParams
	candidates []*candidate
}

// NewConfirmationGate returns a confirmation gate using the given parameters
func NewConfirmationGate(p GateParams) *ConfirmationGate {

	if p.RequiredHits < 1 {
		p.RequiredHits = 1
	}

	return &ConfirmationGate{
		params: p,
	}
}

// Reset clears all candidate state
func (g *ConfirmationGate) Reset() {
	g.candidates = nil
}

// Confirmed is a detection that has passed the confirmation gate
type Confirmed struct {
	// Label is the taxonomy label of the detection
	Label string
	// Class is the model class number
	Class int
	// Box is the smoothed bounding box in source image pixels
	Box detect.BoxRect
	// Probability is the best confidence seen across corroborating frames
	Probability float32
	// Hits is the number of corroborating sightings
	Hits int
}

// Feed processes one batch of raw detections taken at the given time and
// returns any confirmed detections.  A confirmed candidate re-emits on every
// subsequent matching frame, downstream landmark merging turns repeats into
// observation counts.
func (g *ConfirmationGate) Feed(detections []detect.DetectResult,
	now time.Time) []Confirmed {

	g.purge(now)

	var confirmed []Confirmed

	for _, det := range detections {

		cand := g.match(det)

		if cand == nil {
			// first sighting of this label/region
			g.candidates = append(g.candidates, &candidate{
				label:    det.Label,
				class:    det.Class,
				box:      toFloatBox(det.Box),
				hits:     1,
				bestProb: det.Probability,
				lastSeen: now,
			})
			continue
		}

		cand.box.lerp(toFloatBox(det.Box), g.params.BlendFactor)
		cand.hits++
		cand.lastSeen = now

		if det.Probability > cand.bestProb {
			cand.bestProb = det.Probability
		}

		if cand.hits >= g.params.RequiredHits {
			confirmed = append(confirmed, Confirmed{
				Label:       cand.label,
				Class:       cand.class,
				Box:         cand.box.rect(),
				Probability: cand.bestProb,
				Hits:        cand.hits,
			})
		}
	}

	return confirmed
}

// match finds an existing candidate with the same label whose smoothed box
// overlaps the detection by at least the minimum IoU
func (g *ConfirmationGate) match(det detect.DetectResult) *candidate {

	var best *candidate
	var bestIoU float32

	for _, cand := range g.candidates {

		if cand.label != det.Label {
			continue
		}

		iou := detect.CalculateIoU(cand.box.rect(), det.Box)

		if iou >= g.params.MinIoU && iou > bestIoU {
			best = cand
			bestIoU = iou
		}
	}

	return best
}

// purge drops candidates whose last sighting is older than the sliding
// window, run before each batch of new detections
func (g *ConfirmationGate) purge(now time.Time) {

	kept := g.candidates[:0]

	for _, cand := range g.candidates {
		if now.Sub(cand.lastSeen) <= g.params.Window {
			kept = append(kept, cand)
		}
	}

	g.candidates = kept
}

// CandidateCount returns the number of candidates currently tracked
func (g *ConfirmationGate) CandidateCount() int {
	return len(g.candidates)
}
