package grid

import (
	clipper "github.com/ctessum/go.clipper"
)

// bresenham rasterizes a straight line between two cells calling visit for
// every cell traversed, endpoints included
func bresenham(a, b Cell, visit func(Cell)) {

	dx := abs(b.X - a.X)
	dz := abs(b.Z - a.Z)

	sx := 1
	if a.X > b.X {
		sx = -1
	}

	sz := 1
	if a.Z > b.Z {
		sz = -1
	}

	err := dx - dz
	x, z := a.X, a.Z

	for {
		visit(Cell{X: x, Z: z})

		if x == b.X && z == b.Z {
			return
		}

		e2 := 2 * err

		if e2 > -dz {
			err -= dz
			x += sx
		}

		if e2 < dx {
			err += dx
			z += sz
		}
	}
}

// windingNumber computes the winding number of point pt with respect to the
// polygon ring.  A non zero result means the point lies inside.
func windingNumber(pt [2]float64, ring [][2]float64) int {

	wn := 0

	for i := 0; i < len(ring); i++ {

		a := ring[i]
		b := ring[(i+1)%len(ring)]

		if a[1] <= pt[1] {
			if b[1] > pt[1] && isLeft(a, b, pt) > 0 {
				wn++
			}
		} else {
			if b[1] <= pt[1] && isLeft(a, b, pt) < 0 {
				wn--
			}
		}
	}

	return wn
}

// isLeft tests if point p is left (>0), on (=0) or right (<0) of the
// infinite line through a and b
func isLeft(a, b, p [2]float64) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (p[0]-a[0])*(b[1]-a[1])
}

// clipperScale converts meters to the integer units the clipper offsetter
// works in (millimeters)
const clipperScale = 1000.0

// insetPolygon shrinks the polygon ring inward by the given distance in
// meters using a closed polygon offset.  If the offset collapses the ring
// the original ring is returned so small but valid surfaces still rasterize.
func insetPolygon(ring [][2]float64, inset float64) [][2]float64 {

	if inset <= 0 || len(ring) < 3 {
		return ring
	}

	// the offsetter shrinks positively oriented rings for negative deltas,
	// normalize winding before offsetting
	if signedArea(ring) < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	var path clipper.Path

	for _, pt := range ring {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt[0] * clipperScale),
			Y: clipper.CInt(pt[1] * clipperScale),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtMiter, clipper.EtClosedPolygon)

	solution := co.Execute(-inset * clipperScale)

	if len(solution) == 0 || len(solution[0]) < 3 {
		return ring
	}

	out := make([][2]float64, 0, len(solution[0]))

	for _, pt := range solution[0] {
		out = append(out, [2]float64{
			float64(pt.X) / clipperScale,
			float64(pt.Y) / clipperScale,
		})
	}

	return out
}

// signedArea is the shoelace area of the ring, positive for counter
// clockwise winding
func signedArea(ring [][2]float64) float64 {

	area := 0.0

	for i := 0; i < len(ring); i++ {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		area += a[0]*b[1] - b[0]*a[1]
	}

	return area / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
