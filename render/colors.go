package render

import (
	"hash/fnv"
	"image/color"

	"github.com/mapsmith/go-floormap/grid"
)

var (
	// cell state palette
	unknownClr  = color.RGBA{R: 32, G: 32, B: 36, A: 255}
	freeClr     = color.RGBA{R: 225, G: 225, B: 220, A: 255}
	obstacleClr = color.RGBA{R: 208, G: 68, B: 54, A: 255}
	wallClr     = color.RGBA{R: 52, G: 58, B: 64, A: 255}
	visitedClr  = color.RGBA{R: 120, G: 180, B: 255, A: 255}

	// typeColors is a list of distinct colors used to paint landmark
	// markers per object type
	typeColors = []color.RGBA{
		{R: 255, G: 56, B: 56, A: 255},   // #FF3838
		{R: 255, G: 112, B: 31, A: 255},  // #FF701F
		{R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		{R: 207, G: 210, B: 49, A: 255},  // #CFD231
		{R: 72, G: 249, B: 10, A: 255},   // #48F90A
		{R: 26, G: 147, B: 52, A: 255},   // #1A9334
		{R: 0, G: 212, B: 187, A: 255},   // #00D4BB
		{R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		{R: 52, G: 69, B: 147, A: 255},   // #344593
		{R: 100, G: 115, B: 255, A: 255}, // #6473FF
		{R: 0, G: 24, B: 236, A: 255},    // #0018EC
		{R: 132, G: 56, B: 255, A: 255},  // #8438FF
		{R: 82, G: 0, B: 133, A: 255},    // #520085
		{R: 255, G: 149, B: 200, A: 255}, // #FF95C8
		{R: 255, G: 55, B: 199, A: 255},  // #FF37C7
	}
)

// stateColor returns the palette color for a cell state
func stateColor(s grid.State) color.RGBA {

	switch s {
	case grid.Free:
		return freeClr
	case grid.Obstacle:
		return obstacleClr
	case grid.Wall:
		return wallClr
	case grid.Visited:
		return visitedClr
	default:
		return unknownClr
	}
}

// typeColor picks a stable palette color for an object type tag
func typeColor(t string) color.RGBA {

	h := fnv.New32a()
	h.Write([]byte(t))

	return typeColors[h.Sum32()%uint32(len(typeColors))]
}
