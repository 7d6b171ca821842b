package detect

import "testing"

func TestNMSSuppressesSameClass(t *testing.T) {

	// two door detections with heavy overlap, only the stronger survives
	candidates := []DetectResult{
		{Class: 1, Label: "door", Box: BoxRect{Left: 10, Top: 10, Right: 110, Bottom: 210}, Probability: 0.8},
		{Class: 1, Label: "door", Box: BoxRect{Left: 12, Top: 14, Right: 112, Bottom: 214}, Probability: 0.6},
	}

	iou := CalculateIoU(candidates[0].Box, candidates[1].Box)

	if iou < 0.85 {
		t.Fatalf("test boxes should overlap heavily, got IoU %f", iou)
	}

	keep := nms(candidates, 0.45)

	if len(keep) != 1 {
		t.Fatalf("expected 1 kept detection, got %d", len(keep))
	}

	if keep[0].Probability != 0.8 {
		t.Errorf("expected the 0.8 confidence box to be kept, got %f", keep[0].Probability)
	}
}

func TestNMSKeepsDifferentClasses(t *testing.T) {

	// identical coordinates but different classes, both must be kept
	box := BoxRect{Left: 50, Top: 50, Right: 150, Bottom: 150}

	candidates := []DetectResult{
		{Class: 0, Box: box, Probability: 0.9},
		{Class: 1, Box: box, Probability: 0.7},
	}

	keep := nms(candidates, 0.45)

	if len(keep) != 2 {
		t.Fatalf("expected both detections kept, got %d", len(keep))
	}
}

func TestNMSKeptPairsBelowThreshold(t *testing.T) {

	candidates := []DetectResult{
		{Class: 0, Box: BoxRect{Left: 0, Top: 0, Right: 100, Bottom: 100}, Probability: 0.9},
		{Class: 0, Box: BoxRect{Left: 90, Top: 90, Right: 190, Bottom: 190}, Probability: 0.8},
		{Class: 0, Box: BoxRect{Left: 5, Top: 5, Right: 105, Bottom: 105}, Probability: 0.7},
	}

	keep := nms(candidates, 0.45)

	for i := 0; i < len(keep); i++ {
		for j := i + 1; j < len(keep); j++ {

			if keep[i].Class != keep[j].Class {
				continue
			}

			if iou := CalculateIoU(keep[i].Box, keep[j].Box); iou > 0.45 {
				t.Errorf("kept pair %d,%d has IoU %f above threshold", i, j, iou)
			}
		}
	}
}

func TestCalculateIoUIdentical(t *testing.T) {

	box := BoxRect{Left: 0, Top: 0, Right: 10, Bottom: 10}

	if iou := CalculateIoU(box, box); iou != 1.0 {
		t.Errorf("identical boxes should have IoU 1.0, got %f", iou)
	}
}

func TestCalculateIoUDisjoint(t *testing.T) {

	a := BoxRect{Left: 0, Top: 0, Right: 10, Bottom: 10}
	b := BoxRect{Left: 100, Top: 100, Right: 110, Bottom: 110}

	if iou := CalculateIoU(a, b); iou != 0.0 {
		t.Errorf("disjoint boxes should have IoU 0.0, got %f", iou)
	}
}
