package floormap

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mapsmith/go-floormap/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// LandmarkInfo is the landmark entry of a map snapshot
type LandmarkInfo struct {
	// ID is the stable landmark id
	ID int64
	// Type is the taxonomy type tag
	Type string
	// Label is the display category label
	Label string
	// Confidence is the best confidence seen across observations
	Confidence float32
	// Position is the merged world position
	Position r3.Vec
	// CellX and CellZ are the occupancy grid cell of the landmark
	CellX int
	CellZ int
	// Observations is the number of merged observations
	Observations int
}

// Snapshot is the payload produced for the map consuming collaborator.  Any
// serialization envelope beyond this structure is an external concern.
type Snapshot struct {
	// SessionID identifies the mapping session the snapshot belongs to
	SessionID uuid.UUID
	// Taken is the snapshot time
	Taken time.Time
	// Width and Height are the dense grid dimensions in cells
	Width  int
	Height int
	// Resolution is the grid cell size in meters
	Resolution float64
	// OriginX and OriginZ are the cell coordinates of array index 0
	OriginX int
	OriginZ int
	// Cells is the dense row-major state array, one state code per cell:
	// 0=Unknown 1=Free 2=Obstacle 3=Wall 4=Visited
	Cells []byte
	// Landmarks are the confirmed landmarks ordered by id
	Landmarks []LandmarkInfo
	// Stats are the trajectory statistics at snapshot time
	Stats grid.Stats
}

// CellAt returns the state code at a cell coordinate, Unknown for cells
// outside the snapshot bounds
func (s Snapshot) CellAt(cellX, cellZ int) byte {

	x := cellX - s.OriginX
	z := cellZ - s.OriginZ

	if x < 0 || x >= s.Width || z < 0 || z >= s.Height {
		return byte(grid.Unknown)
	}

	return s.Cells[z*s.Width+x]
}

// Snapshot assembles the current grid and landmark state into the
// externally consumed payload
func (m *Mapper) Snapshot() Snapshot {

	gs := m.grid.Snapshot()

	snap := Snapshot{
		SessionID:  m.sessionID,
		Taken:      time.Now(),
		Resolution: gs.Resolution,
		Stats:      gs.Stats,
	}

	if gs.HasBounds {

		snap.Width = gs.Bounds.Width()
		snap.Height = gs.Bounds.Height()
		snap.OriginX = gs.Bounds.MinX
		snap.OriginZ = gs.Bounds.MinZ
		snap.Cells = make([]byte, snap.Width*snap.Height)

		for cell, state := range gs.Cells {
			x := cell.X - snap.OriginX
			z := cell.Z - snap.OriginZ
			snap.Cells[z*snap.Width+x] = byte(state)
		}
	}

	for _, lm := range m.landmarks.All() {

		cell := grid.CellOf(lm.Position.X, lm.Position.Z, gs.Resolution)

		snap.Landmarks = append(snap.Landmarks, LandmarkInfo{
			ID:           lm.ID,
			Type:         lm.Type,
			Label:        lm.Label,
			Confidence:   lm.Probability,
			Position:     lm.Position,
			CellX:        cell.X,
			CellZ:        cell.Z,
			Observations: lm.Observations,
		})
	}

	sort.Slice(snap.Landmarks, func(i, j int) bool {
		return snap.Landmarks[i].ID < snap.Landmarks[j].ID
	})

	return snap
}
