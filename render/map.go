// Package render draws map snapshots as images for debugging and export.
package render

import (
	"image"

	floormap "github.com/mapsmith/go-floormap"
	"github.com/mapsmith/go-floormap/grid"
	xdraw "golang.org/x/image/draw"
)

// Map renders a snapshot into an RGBA image with one pixel per grid cell.
// Landmarks are drawn as 3x3 markers colored per type.
func Map(snap floormap.Snapshot) *image.RGBA {

	if snap.Width <= 0 || snap.Height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	img := image.NewRGBA(image.Rect(0, 0, snap.Width, snap.Height))

	for z := 0; z < snap.Height; z++ {
		for x := 0; x < snap.Width; x++ {

			state := grid.State(snap.Cells[z*snap.Width+x])
			img.SetRGBA(x, z, stateColor(state))
		}
	}

	for _, lm := range snap.Landmarks {

		clr := typeColor(lm.Type)
		cx := lm.CellX - snap.OriginX
		cz := lm.CellZ - snap.OriginZ

		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {

				x := cx + dx
				z := cz + dz

				if x < 0 || x >= snap.Width || z < 0 || z >= snap.Height {
					continue
				}

				img.SetRGBA(x, z, clr)
			}
		}
	}

	return img
}

// Scale returns the image scaled up by the given integer factor using
// nearest neighbor interpolation so cell boundaries stay crisp
func Scale(img image.Image, factor int) *image.RGBA {

	if factor < 1 {
		factor = 1
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))

	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)

	return dst
}
