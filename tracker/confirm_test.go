package tracker

import (
	"testing"
	"time"

	"github.com/mapsmith/go-floormap/detect"
)

// chairAt builds a chair detection at a slightly shifted box position so
// consecutive frames overlap without being identical
func chairAt(offset int, prob float32) detect.DetectResult {
	return detect.DetectResult{
		Label:       "chair",
		Class:       0,
		Probability: prob,
		Box: detect.BoxRect{
			Left:   100 + offset,
			Top:    100 + offset,
			Right:  220 + offset,
			Bottom: 260 + offset,
		},
	}
}

func TestGateRequiresRepeatedSightings(t *testing.T) {

	gate := NewConfirmationGate(DefaultGateParams())
	now := time.Now()

	// two sightings are one short of the required three
	for i := 0; i < 2; i++ {
		out := gate.Feed([]detect.DetectResult{chairAt(i*10, 0.7)}, now)
		now = now.Add(100 * time.Millisecond)

		if len(out) != 0 {
			t.Fatalf("sighting %d must not confirm, got %d emissions", i+1, len(out))
		}
	}

	// the third corroborating sighting confirms
	out := gate.Feed([]detect.DetectResult{chairAt(20, 0.9)}, now)

	if len(out) != 1 {
		t.Fatalf("expected exactly one confirmed emission, got %d", len(out))
	}

	if out[0].Label != "chair" || out[0].Hits != 3 {
		t.Errorf("unexpected confirmation %+v", out[0])
	}

	// best confidence across the three sightings
	if out[0].Probability != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", out[0].Probability)
	}
}

func TestGateSeparatesLabels(t *testing.T) {

	gate := NewConfirmationGate(DefaultGateParams())
	now := time.Now()

	door := chairAt(0, 0.8)
	door.Label = "door"

	// same region, different labels, must track as separate candidates
	gate.Feed([]detect.DetectResult{chairAt(0, 0.7), door}, now)

	if gate.CandidateCount() != 2 {
		t.Errorf("expected 2 candidates, got %d", gate.CandidateCount())
	}
}

func TestGateSeparatesDistantRegions(t *testing.T) {

	gate := NewConfirmationGate(DefaultGateParams())
	now := time.Now()

	far := chairAt(0, 0.7)
	far.Box = detect.BoxRect{Left: 500, Top: 500, Right: 620, Bottom: 660}

	gate.Feed([]detect.DetectResult{chairAt(0, 0.7)}, now)
	gate.Feed([]detect.DetectResult{far}, now.Add(50*time.Millisecond))

	if gate.CandidateCount() != 2 {
		t.Errorf("expected non overlapping chairs to be separate candidates, got %d",
			gate.CandidateCount())
	}
}

func TestGatePurgesStaleCandidates(t *testing.T) {

	p := DefaultGateParams()
	p.Window = time.Second
	gate := NewConfirmationGate(p)

	now := time.Now()
	gate.Feed([]detect.DetectResult{chairAt(0, 0.7)}, now)

	if gate.CandidateCount() != 1 {
		t.Fatalf("expected 1 candidate, got %d", gate.CandidateCount())
	}

	// feeding after the window expires purges the old candidate and starts a
	// fresh one, so no confirmation can ride on stale state
	later := now.Add(5 * time.Second)
	out := gate.Feed([]detect.DetectResult{chairAt(0, 0.7)}, later)

	if len(out) != 0 {
		t.Errorf("stale candidate must not contribute to confirmation")
	}

	if gate.CandidateCount() != 1 {
		t.Errorf("expected purged then recreated candidate, got %d", gate.CandidateCount())
	}
}

func TestGateRepeatEmission(t *testing.T) {

	gate := NewConfirmationGate(DefaultGateParams())
	now := time.Now()

	for i := 0; i < 3; i++ {
		gate.Feed([]detect.DetectResult{chairAt(0, 0.7)}, now)
		now = now.Add(100 * time.Millisecond)
	}

	// once confirmed, every subsequent matching frame re-emits
	out := gate.Feed([]detect.DetectResult{chairAt(0, 0.7)}, now)

	if len(out) != 1 {
		t.Errorf("expected repeat emission after confirmation, got %d", len(out))
	}

	if out[0].Hits != 4 {
		t.Errorf("expected hit count 4, got %d", out[0].Hits)
	}
}

func TestGateSmoothsBoxTowardObservations(t *testing.T) {

	p := DefaultGateParams()
	p.RequiredHits = 2
	gate := NewConfirmationGate(p)

	now := time.Now()
	gate.Feed([]detect.DetectResult{chairAt(0, 0.7)}, now)

	out := gate.Feed([]detect.DetectResult{chairAt(40, 0.7)}, now.Add(100*time.Millisecond))

	if len(out) != 1 {
		t.Fatalf("expected confirmation, got %d", len(out))
	}

	// blended box sits between the first box (100) and the new one (140),
	// 0.3 of the way toward the observation
	if out[0].Box.Left != 112 {
		t.Errorf("expected smoothed left edge 112, got %d", out[0].Box.Left)
	}
}
