package render

import (
	"testing"

	floormap "github.com/mapsmith/go-floormap"
	"github.com/mapsmith/go-floormap/grid"
)

func TestMapRendersStates(t *testing.T) {

	snap := floormap.Snapshot{
		Width:      2,
		Height:     2,
		Resolution: 0.25,
		Cells: []byte{
			byte(grid.Unknown), byte(grid.Free),
			byte(grid.Wall), byte(grid.Obstacle),
		},
	}

	img := Map(snap)

	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("expected 2x2 image, got %v", img.Bounds())
	}

	if img.RGBAAt(0, 0) != unknownClr {
		t.Errorf("expected unknown color at (0,0)")
	}

	if img.RGBAAt(1, 0) != freeClr {
		t.Errorf("expected free color at (1,0)")
	}

	if img.RGBAAt(0, 1) != wallClr {
		t.Errorf("expected wall color at (0,1)")
	}
}

func TestMapEmptySnapshot(t *testing.T) {

	img := Map(floormap.Snapshot{})

	if img.Bounds().Dx() != 1 || img.Bounds().Dy() != 1 {
		t.Errorf("expected placeholder image, got %v", img.Bounds())
	}
}

func TestScale(t *testing.T) {

	snap := floormap.Snapshot{
		Width:  2,
		Height: 2,
		Cells:  make([]byte, 4),
	}

	scaled := Scale(Map(snap), 8)

	if scaled.Bounds().Dx() != 16 || scaled.Bounds().Dy() != 16 {
		t.Errorf("expected 16x16 image, got %v", scaled.Bounds())
	}
}

func TestTypeColorStable(t *testing.T) {

	if typeColor("chair") != typeColor("chair") {
		t.Error("type color must be stable for a given type")
	}
}
