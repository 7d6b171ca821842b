// Package project estimates the world position of a confirmed detection
// from the current camera pose using monocular depth heuristics, with an
// optional hit test against tracked scene geometry.
package project

import (
	"errors"
	"math"

	"github.com/mapsmith/go-floormap/detect"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoPosition is returned when no world position could be estimated, the
// detection is dropped for the frame and never defaulted to the origin
var ErrNoPosition = errors.New("project: no world position")

// HitTester is the external scene geometry collaborator.  HitTest casts a
// ray through the viewport coordinate and reports the first intersection
// with a known planar or dense depth surface.
type HitTester interface {
	HitTest(u, v float64) (r3.Vec, bool)
}

// DepthStep maps a box area fraction of the image to a heuristic depth
type DepthStep struct {
	// MinAreaFraction is the exclusive lower bound on the box area fraction
	MinAreaFraction float64
	// Depth is the estimated depth in meters
	Depth float64
}

// Params defines the struct containing the projector configuration
type Params struct {
	// DepthSteps map the area fraction a box covers of the image to an
	// estimated depth in meters, scanned in order, first match wins
	DepthSteps []DepthStep
	// FallbackDepth is used when the box is smaller than every step
	FallbackDepth float64
}

// DefaultParams returns an instance of Params configured with default depth
// heuristics: boxes covering more than 30% of the image are assumed 1m away,
// more than 10% 2m, more than 3% 3.5m and anything smaller 5m
func DefaultParams() Params {
	return Params{
		DepthSteps: []DepthStep{
			{MinAreaFraction: 0.30, Depth: 1.0},
			{MinAreaFraction: 0.10, Depth: 2.0},
			{MinAreaFraction: 0.03, Depth: 3.5},
		},
		FallbackDepth: 5.0,
	}
}

// Projector maps confirmed 2D detections to 3D world positions
type Projector struct {
	// Params are the projector configuration parameters
	Params Params
	// hitTester is the optional scene geometry collaborator, nil when no
	// geometry source is available
	hitTester HitTester
}

// NewProjector returns a world projector.  hitTester may be nil in which
// case only the heuristic depth path is used.
func NewProjector(p Params, hitTester HitTester) *Projector {
	return &Projector{
		Params:    p,
		hitTester: hitTester,
	}
}

// Project estimates the world position for a confirmed detection box given
// the camera pose at capture time and the source image dimensions.  Box
// coordinates must already be in source image pixel space.
func (p *Projector) Project(box detect.BoxRect, position r3.Vec,
	orientation quat.Number, imgWidth, imgHeight int) (r3.Vec, error) {

	if imgWidth <= 0 || imgHeight <= 0 {
		return r3.Vec{}, ErrNoPosition
	}

	if box.Width() <= 0 || box.Height() <= 0 {
		return r3.Vec{}, ErrNoPosition
	}

	// preferred path: hit test against known scene geometry at the box
	// center viewport coordinate
	if p.hitTester != nil {

		u := float64(box.CenterX()) / float64(imgWidth)
		v := float64(box.CenterY()) / float64(imgHeight)

		if hit, ok := p.hitTester.HitTest(u, v); ok {
			return hit, nil
		}
	}

	// fallback: estimate depth from the box area fraction and walk the
	// camera forward axis
	depth := p.estimateDepth(box, imgWidth, imgHeight)

	forward := Rotate(r3.Vec{Z: -1}, orientation)

	length := math.Sqrt(forward.X*forward.X + forward.Y*forward.Y + forward.Z*forward.Z)

	if length < 1e-9 {
		return r3.Vec{}, ErrNoPosition
	}

	return r3.Vec{
		X: position.X + forward.X/length*depth,
		Y: position.Y + forward.Y/length*depth,
		Z: position.Z + forward.Z/length*depth,
	}, nil
}

// estimateDepth maps the box area fraction of the image to a depth in meters
func (p *Projector) estimateDepth(box detect.BoxRect, imgWidth, imgHeight int) float64 {

	frac := float64(box.Width()) * float64(box.Height()) /
		(float64(imgWidth) * float64(imgHeight))

	for _, step := range p.Params.DepthSteps {
		if frac > step.MinAreaFraction {
			return step.Depth
		}
	}

	return p.Params.FallbackDepth
}

// Rotate applies the unit quaternion rotation q to vector v
func Rotate(v r3.Vec, q quat.Number) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}
