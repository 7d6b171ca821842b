package floormap

import (
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is the position and orientation of the tracked camera at an instant.
// Samples are immutable and consumed as given, the pose is never refined.
type Pose struct {
	// Position is the camera position in world space
	Position r3.Vec
	// Orientation is the camera orientation as a unit quaternion
	Orientation quat.Number
	// Timestamp is the capture time of the sample
	Timestamp time.Time
}

// Forward returns the camera forward axis, the -z basis vector rotated by
// the pose orientation
func (p Pose) Forward() r3.Vec {
	return r3.Rotation(p.Orientation).Rotate(r3.Vec{Z: -1})
}
