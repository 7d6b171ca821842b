package landmark

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

func doorAt(x, z float64, prob float32, seen time.Time) Observation {
	return Observation{
		Type:        "door",
		Label:       "Door",
		Position:    r3.Vec{X: x, Z: z},
		Probability: prob,
		Seen:        seen,
	}
}

func TestNearbyObservationsMerge(t *testing.T) {

	s := NewStore(DefaultParams())
	now := time.Now()

	// two doors 0.5m apart, below the 1.2m duplicate radius
	lm1, outcome := s.AddOrMerge(doorAt(0, 0, 0.7, now))

	if outcome != Created {
		t.Fatalf("first observation must create, got %v", outcome)
	}

	lm2, outcome := s.AddOrMerge(doorAt(0.5, 0, 0.9, now.Add(time.Second)))

	if outcome != Merged {
		t.Fatalf("second observation must merge, got %v", outcome)
	}

	if lm2.ID != lm1.ID {
		t.Errorf("merge must keep the landmark id, got %d and %d", lm1.ID, lm2.ID)
	}

	if s.Len() != 1 {
		t.Fatalf("expected exactly one door landmark, got %d", s.Len())
	}

	if lm2.Observations != 2 {
		t.Errorf("expected 2 observations, got %d", lm2.Observations)
	}

	// weighted running average lands midway between the two observations
	if math.Abs(lm2.Position.X-0.25) > 1e-9 {
		t.Errorf("expected merged x 0.25, got %f", lm2.Position.X)
	}

	// confidence is the max seen
	if lm2.Probability != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", lm2.Probability)
	}
}

func TestObservationCountMatchesMerges(t *testing.T) {

	s := NewStore(DefaultParams())
	now := time.Now()

	const n = 7

	for i := 0; i < n; i++ {
		s.AddOrMerge(doorAt(float64(i)*0.05, 0, 0.6, now.Add(time.Duration(i)*time.Second)))
	}

	landmarks := s.All()

	if len(landmarks) != 1 {
		t.Fatalf("expected 1 landmark from %d clustered observations, got %d", n, len(landmarks))
	}

	if landmarks[0].Observations != n {
		t.Errorf("expected observation count %d, got %d", n, landmarks[0].Observations)
	}
}

func TestDistantSameTypeStaysSeparate(t *testing.T) {

	s := NewStore(DefaultParams())
	now := time.Now()

	s.AddOrMerge(doorAt(0, 0, 0.7, now))
	s.AddOrMerge(doorAt(5, 0, 0.7, now))

	if s.Len() != 2 {
		t.Errorf("doors 5m apart must stay separate, got %d landmarks", s.Len())
	}
}

func TestDifferentTypesNeverMerge(t *testing.T) {

	s := NewStore(DefaultParams())
	now := time.Now()

	s.AddOrMerge(doorAt(0, 0, 0.7, now))

	chair := doorAt(0.1, 0, 0.7, now)
	chair.Type = "chair"
	chair.Label = "Chair"

	_, outcome := s.AddOrMerge(chair)

	if outcome != Created {
		t.Errorf("different types at the same spot must not merge")
	}

	if s.Len() != 2 {
		t.Errorf("expected 2 landmarks, got %d", s.Len())
	}
}

func TestRemoveStaleSparesEstablished(t *testing.T) {

	p := DefaultParams()
	p.StaleAfter = time.Minute
	p.MinObservations = 3
	s := NewStore(p)

	base := time.Now()

	// one under observed landmark
	s.AddOrMerge(doorAt(0, 0, 0.7, base))

	// one well established landmark, same age
	for i := 0; i < 4; i++ {
		s.AddOrMerge(doorAt(8, 0, 0.7, base))
	}

	removed := s.RemoveStale(base.Add(5 * time.Minute))

	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}

	landmarks := s.All()

	if len(landmarks) != 1 || landmarks[0].Observations != 4 {
		t.Errorf("the well observed landmark must survive, got %+v", landmarks)
	}

	// recently seen landmarks are never removed regardless of count
	s.AddOrMerge(doorAt(0, 0, 0.7, base.Add(5*time.Minute)))

	if removed := s.RemoveStale(base.Add(5*time.Minute + time.Second)); removed != 0 {
		t.Errorf("fresh landmark must not be removed, got %d removals", removed)
	}
}

func TestQueryRadius(t *testing.T) {

	s := NewStore(DefaultParams())
	now := time.Now()

	s.AddOrMerge(doorAt(0, 0, 0.7, now))
	s.AddOrMerge(doorAt(3, 0, 0.7, now))
	s.AddOrMerge(doorAt(0, 10, 0.7, now))

	found := s.QueryRadius(r3.Vec{}, 4)

	if len(found) != 2 {
		t.Fatalf("expected 2 landmarks within 4m, got %d", len(found))
	}

	for _, lm := range found {
		if planarDistance(lm.Position, r3.Vec{}) > 4 {
			t.Errorf("landmark %+v outside query radius", lm.Position)
		}
	}
}

func TestIndexFollowsMergedPosition(t *testing.T) {

	p := DefaultParams()
	p.DuplicateRadius = 1.2
	s := NewStore(p)
	now := time.Now()

	// observations straddling an index cell boundary drag the merged
	// position across it, the index entry must follow
	s.AddOrMerge(doorAt(0.95, 0, 0.7, now))
	s.AddOrMerge(doorAt(1.15, 0, 0.7, now))
	s.AddOrMerge(doorAt(1.15, 0, 0.7, now))

	if s.Len() != 1 {
		t.Fatalf("expected 1 landmark, got %d", s.Len())
	}

	// a query centered far on the other side of the boundary still finds it
	found := s.QueryRadius(r3.Vec{X: 1.5}, 1.0)

	if len(found) != 1 {
		t.Errorf("expected index to track merged position, found %d", len(found))
	}
}

func TestStats(t *testing.T) {

	s := NewStore(DefaultParams())
	now := time.Now()

	s.AddOrMerge(doorAt(0, 0, 0.8, now))
	s.AddOrMerge(doorAt(5, 0, 0.6, now))

	chair := doorAt(10, 0, 0.5, now)
	chair.Type = "chair"
	s.AddOrMerge(chair)

	stats := s.Stats()

	if stats["door"].Count != 2 {
		t.Errorf("expected 2 doors, got %d", stats["door"].Count)
	}

	if math.Abs(stats["door"].MeanConfidence-0.7) > 1e-6 {
		t.Errorf("expected mean door confidence 0.7, got %f", stats["door"].MeanConfidence)
	}

	if stats["chair"].Count != 1 {
		t.Errorf("expected 1 chair, got %d", stats["chair"].Count)
	}
}
