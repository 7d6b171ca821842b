// Package landmark maintains the spatially indexed set of persistent
// semantic objects built from confirmed detections.  Observations of the
// same physical object are merged and deduplicated so transient detector
// noise never becomes a permanent map artifact.
package landmark

import (
	"math"
	"sync"
	"time"

	"github.com/mapsmith/go-floormap/detect"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Params defines the struct containing the landmark store configuration
type Params struct {
	// IndexCellSize is the spatial index cell size in meters, distinct from
	// the occupancy grid resolution
	IndexCellSize float64
	// DuplicateRadius is the maximum distance in meters between two
	// observations of the same type for them to be merged
	DuplicateRadius float64
	// StaleAfter is the age beyond which an under observed landmark is
	// eligible for removal
	StaleAfter time.Duration
	// MinObservations is the observation count at which a landmark becomes
	// immune to stale removal
	MinObservations int
}

// DefaultParams returns an instance of Params configured with default
// values:
// - Index Cell: 1.0m
// - Duplicate Radius: 1.2m
// - Stale After: 5 minutes
// - Minimum Observations: 5
func DefaultParams() Params {
	return Params{
		IndexCellSize:   1.0,
		DuplicateRadius: 1.2,
		StaleAfter:      5 * time.Minute,
		MinObservations: 5,
	}
}

// Landmark is a persisted, deduplicated real world object.  Landmarks are
// owned exclusively by the store, callers receive copies.
type Landmark struct {
	// ID is the stable unique id of the landmark
	ID int64
	// Type is the taxonomy type tag, landmarks only merge within a type
	Type string
	// Label is the display category label
	Label string
	// Position is the merged world position
	Position r3.Vec
	// Box is the bounding box of the most recent observation
	Box detect.BoxRect
	// Probability is the best confidence seen across observations
	Probability float32
	// FirstSeen and LastSeen bound the observation history
	FirstSeen time.Time
	LastSeen  time.Time
	// Observations is the number of merged observations, it increases by
	// exactly one per merge and is never decremented
	Observations int
}

// Observation is one confirmed detection projected into the world
type Observation struct {
	Type        string
	Label       string
	Position    r3.Vec
	Box         detect.BoxRect
	Probability float32
	Seen        time.Time
}

// MergeOutcome reports whether an observation created a new landmark or
// merged into an existing one
type MergeOutcome int

const (
	Created MergeOutcome = iota
	Merged
)

// indexCell keys the auxiliary spatial index
type indexCell struct {
	X int
	Z int
}

// Store is the landmark store.  The id keyed table is the source of truth,
// the spatial index only bounds the neighborhood scanned during merge and
// query and every landmark appears in exactly one index cell.
type Store struct {
	params Params
	byID   map[int64]*Landmark
	index  map[indexCell][]int64
	nextID int64
	sync.Mutex
}

// NewStore returns a landmark store using the given parameters
func NewStore(p Params) *Store {

	if p.IndexCellSize <= 0 {
		p.IndexCellSize = DefaultParams().IndexCellSize
	}

	return &Store{
		params: p,
		byID:   make(map[int64]*Landmark),
		index:  make(map[indexCell][]int64),
	}
}

// cellOf quantizes a world position to its spatial index cell
func (s *Store) cellOf(pos r3.Vec) indexCell {
	return indexCell{
		X: int(math.Floor(pos.X / s.params.IndexCellSize)),
		Z: int(math.Floor(pos.Z / s.params.IndexCellSize)),
	}
}

// planarDistance is the distance between two positions on the floor plane
func planarDistance(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// AddOrMerge folds an observation into the store.  The scan then insert
// sequence is indivisible so two concurrent observations of the same
// physical object can never create duplicate landmarks.
func (s *Store) AddOrMerge(obs Observation) (Landmark, MergeOutcome) {

	s.Lock()
	defer s.Unlock()

	if match := s.findNearest(obs); match != nil {
		s.merge(match, obs)
		return *match, Merged
	}

	s.nextID++

	lm := &Landmark{
		ID:           s.nextID,
		Type:         obs.Type,
		Label:        obs.Label,
		Position:     obs.Position,
		Box:          obs.Box,
		Probability:  obs.Probability,
		FirstSeen:    obs.Seen,
		LastSeen:     obs.Seen,
		Observations: 1,
	}

	s.byID[lm.ID] = lm
	s.indexInsert(lm)

	return *lm, Created
}

// findNearest scans the 3x3 neighborhood of index cells around the
// observation for the closest landmark of the same type inside the
// duplicate radius
func (s *Store) findNearest(obs Observation) *Landmark {

	center := s.cellOf(obs.Position)

	var best *Landmark
	bestDist := s.params.DuplicateRadius

	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {

			cell := indexCell{X: center.X + dx, Z: center.Z + dz}

			for _, id := range s.index[cell] {

				lm := s.byID[id]

				if lm == nil || lm.Type != obs.Type {
					continue
				}

				if d := planarDistance(lm.Position, obs.Position); d <= bestDist {
					best = lm
					bestDist = d
				}
			}
		}
	}

	return best
}

// merge folds the observation into the landmark using a running weighted
// average for position, weight 1/observationCount, and max for confidence
func (s *Store) merge(lm *Landmark, obs Observation) {

	oldCell := s.cellOf(lm.Position)

	lm.Observations++
	w := 1.0 / float64(lm.Observations)

	lm.Position = r3.Vec{
		X: lm.Position.X + w*(obs.Position.X-lm.Position.X),
		Y: lm.Position.Y + w*(obs.Position.Y-lm.Position.Y),
		Z: lm.Position.Z + w*(obs.Position.Z-lm.Position.Z),
	}

	lm.Box = obs.Box

	if obs.Probability > lm.Probability {
		lm.Probability = obs.Probability
	}

	if obs.Seen.After(lm.LastSeen) {
		lm.LastSeen = obs.Seen
	}

	// keep the index entry in the cell matching the merged position
	if newCell := s.cellOf(lm.Position); newCell != oldCell {
		s.indexRemove(lm.ID, oldCell)
		s.index[newCell] = append(s.index[newCell], lm.ID)
	}
}

// indexInsert adds the landmark to the index cell of its position
func (s *Store) indexInsert(lm *Landmark) {
	cell := s.cellOf(lm.Position)
	s.index[cell] = append(s.index[cell], lm.ID)
}

// indexRemove drops an id from one index cell
func (s *Store) indexRemove(id int64, cell indexCell) {

	ids := s.index[cell]

	for i, candidate := range ids {
		if candidate == id {
			s.index[cell] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	if len(s.index[cell]) == 0 {
		delete(s.index, cell)
	}
}

// RemoveStale deletes landmarks not seen for longer than the staleness
// threshold that are also under observed.  Well established landmarks are
// never auto removed.  Returns the number of landmarks deleted.
func (s *Store) RemoveStale(now time.Time) int {

	s.Lock()
	defer s.Unlock()

	removed := 0

	for id, lm := range s.byID {

		if now.Sub(lm.LastSeen) <= s.params.StaleAfter {
			continue
		}

		if lm.Observations >= s.params.MinObservations {
			continue
		}

		s.indexRemove(id, s.cellOf(lm.Position))
		delete(s.byID, id)
		removed++
	}

	return removed
}

// QueryRadius returns copies of all landmarks within radius meters of
// center on the floor plane
func (s *Store) QueryRadius(center r3.Vec, radius float64) []Landmark {

	s.Lock()
	defer s.Unlock()

	if radius < 0 {
		return nil
	}

	span := int(math.Ceil(radius / s.params.IndexCellSize))
	origin := s.cellOf(center)

	var found []Landmark

	for dx := -span; dx <= span; dx++ {
		for dz := -span; dz <= span; dz++ {

			cell := indexCell{X: origin.X + dx, Z: origin.Z + dz}

			for _, id := range s.index[cell] {

				lm := s.byID[id]

				if lm == nil {
					continue
				}

				if planarDistance(lm.Position, center) <= radius {
					found = append(found, *lm)
				}
			}
		}
	}

	return found
}

// All returns copies of every landmark in the store
func (s *Store) All() []Landmark {

	s.Lock()
	defer s.Unlock()

	out := make([]Landmark, 0, len(s.byID))

	for _, lm := range s.byID {
		out = append(out, *lm)
	}

	return out
}

// Len returns the number of landmarks in the store
func (s *Store) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.byID)
}

// TypeStats summarises the landmarks of one type
type TypeStats struct {
	// Count is the number of landmarks of the type
	Count int
	// MeanConfidence is the mean best confidence across them
	MeanConfidence float64
}

// Stats returns per type landmark counts and mean confidence
func (s *Store) Stats() map[string]TypeStats {

	s.Lock()
	defer s.Unlock()

	probs := make(map[string][]float64)

	for _, lm := range s.byID {
		probs[lm.Type] = append(probs[lm.Type], float64(lm.Probability))
	}

	out := make(map[string]TypeStats, len(probs))

	for typ, values := range probs {
		out[typ] = TypeStats{
			Count:          len(values),
			MeanConfidence: stat.Mean(values, nil),
		}
	}

	return out
}
