// Package grid maintains a sparse 2D occupancy grid over the floor plane
// built incrementally from camera poses and tracked surface geometry.
package grid

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is the semantic occupancy state of a single grid cell
type State byte

const (
	Unknown State = iota
	Free
	Obstacle
	Wall
	Visited
)

// PlaneClass classifies tracked surface geometry
type PlaneClass int

const (
	// Horizontal planes are walkable surfaces such as floors
	Horizontal PlaneClass = iota
	// Vertical planes are wall like surfaces
	Vertical
)

// Cell is the integer key of one grid cell, world coordinates divided by the
// grid resolution and rounded to nearest
type Cell struct {
	X int
	Z int
}

// Bounds is the bounding box over all cell keys ever inserted
type Bounds struct {
	MinX int
	MaxX int
	MinZ int
	MaxZ int
}

// Width returns the number of cells spanned on the x axis
func (b Bounds) Width() int {
	return b.MaxX - b.MinX + 1
}

// Height returns the number of cells spanned on the z axis
func (b Bounds) Height() int {
	return b.MaxZ - b.MinZ + 1
}

// Params defines the struct containing the grid builder configuration
type Params struct {
	// Resolution is the cell size in meters
	Resolution float64
	// MinMovement is the minimum distance in meters a pose must travel from
	// the previous one to be integrated, closer samples are dropped to stop
	// the grid flooding while stationary
	MinMovement float64
	// HistorySize is the maximum number of trailing poses kept, the oldest
	// is evicted on overflow
	HistorySize int
	// FreeRadius is the radius in cells around the current pose marked free
	// if currently unknown
	FreeRadius int
	// RayLength is the maximum distance in meters the forward heading ray
	// is cast, zero disables ray casting
	RayLength float64
}

// DefaultParams returns an instance of Params configured with default values
// for indoor mapping:
// - Resolution: 0.25m per cell
// - Minimum Movement: 2cm
// - Pose History: 200 samples
// - Forward Ray: 3.5m
func DefaultParams() Params {
	return Params{
		Resolution:  0.25,
		MinMovement: 0.02,
		HistorySize: 200,
		FreeRadius:  1,
		RayLength:   3.5,
	}
}

// Stats holds the trajectory and rasterization counters maintained by the
// grid builder
type Stats struct {
	// PoseCount is the number of poses integrated into the grid
	PoseCount int
	// DroppedPoses is the number of poses rejected by the minimum movement
	// threshold
	DroppedPoses int
	// TotalDistance is the accumulated path distance in meters
	TotalDistance float64
	// PlaneCount is the number of plane polygons rasterized
	PlaneCount int
	// WallEdges is the number of polygon edges walked as walls
	WallEdges int
}

// Grid is the sparse occupancy grid builder.  All mutating operations are
// atomic with respect to concurrent callers as the grid is written by both
// the tracking producer and completed inference jobs.
type Grid struct {
	params    Params
	cells     map[Cell]State
	bounds    Bounds
	hasBounds bool
	history   []r3.Vec
	current   r3.Vec
	hasPose   bool
	stats     Stats
	sync.Mutex
}

// New returns an occupancy grid builder using the given parameters
func New(p Params) *Grid {

	if p.Resolution <= 0 {
		p.Resolution = DefaultParams().Resolution
	}

	return &Grid{
		params: p,
		cells:  make(map[Cell]State),
	}
}

// CellOf quantizes world coordinates to a cell key at the given resolution
// using round to nearest
func CellOf(x, z, resolution float64) Cell {
	return Cell{
		X: int(math.Round(x / resolution)),
		Z: int(math.Round(z / resolution)),
	}
}

// cellOf quantizes a world position to its cell key
func (g *Grid) cellOf(x, z float64) Cell {
	return CellOf(x, z, g.params.Resolution)
}

// touch inserts or updates a cell state and keeps the bounds in sync with
// the bounding box of all inserted keys
func (g *Grid) touch(c Cell, s State) {

	g.cells[c] = s

	if !g.hasBounds {
		g.bounds = Bounds{MinX: c.X, MaxX: c.X, MinZ: c.Z, MaxZ: c.Z}
		g.hasBounds = true
		return
	}

	if c.X < g.bounds.MinX {
		g.bounds.MinX = c.X
	}
	if c.X > g.bounds.MaxX {
		g.bounds.MaxX = c.X
	}
	if c.Z < g.bounds.MinZ {
		g.bounds.MinZ = c.Z
	}
	if c.Z > g.bounds.MaxZ {
		g.bounds.MaxZ = c.Z
	}
}

// markFreeIfUnknown marks a cell Free only when it has no state yet
func (g *Grid) markFreeIfUnknown(c Cell) {
	if g.cells[c] == Unknown {
		g.touch(c, Free)
	}
}

// markVisited marks the cell the camera physically occupies
func (g *Grid) markVisited(c Cell) {
	g.touch(c, Visited)
}

// markWall marks a cell Wall unless free space has already been established
// there
func (g *Grid) markWall(c Cell) {
	if s := g.cells[c]; s == Free || s == Visited {
		return
	}
	g.touch(c, Wall)
}

// markObstacle marks a cell Obstacle unless free space has already been
// established there
func (g *Grid) markObstacle(c Cell) {
	if s := g.cells[c]; s == Free || s == Visited {
		return
	}
	g.touch(c, Obstacle)
}

// AddPose integrates a camera pose sample.  forward is the camera heading
// used for optional forward ray casting and may be the zero vector.
func (g *Grid) AddPose(position, forward r3.Vec) {

	g.Lock()
	defer g.Unlock()

	if g.hasPose {

		dx := position.X - g.current.X
		dz := position.Z - g.current.Z
		dist := math.Hypot(dx, dz)

		if dist < g.params.MinMovement {
			g.stats.DroppedPoses++
			return
		}

		g.stats.TotalDistance += dist

		// free the cells crossed between the previous and current position
		bresenham(g.cellOf(g.current.X, g.current.Z),
			g.cellOf(position.X, position.Z), g.markFreeIfUnknown)
	}

	g.current = position
	g.hasPose = true
	g.stats.PoseCount++

	g.history = append(g.history, position)

	if g.params.HistorySize > 0 && len(g.history) > g.params.HistorySize {
		g.history = g.history[1:]
	}

	center := g.cellOf(position.X, position.Z)

	// free a small radius around the camera then trace the trajectory cell
	for dx := -g.params.FreeRadius; dx <= g.params.FreeRadius; dx++ {
		for dz := -g.params.FreeRadius; dz <= g.params.FreeRadius; dz++ {
			g.markFreeIfUnknown(Cell{X: center.X + dx, Z: center.Z + dz})
		}
	}

	g.markVisited(center)

	if g.params.RayLength > 0 {
		g.castRay(position, forward)
	}
}

// castRay walks the forward heading from the camera position marking cells
// free if unknown, stopping as soon as an Obstacle or Wall cell is hit
func (g *Grid) castRay(position, forward r3.Vec) {

	length := math.Hypot(forward.X, forward.Z)

	if length < 1e-9 {
		return
	}

	dirX := forward.X / length
	dirZ := forward.Z / length

	step := g.params.Resolution / 2

	for t := step; t <= g.params.RayLength; t += step {

		c := g.cellOf(position.X+dirX*t, position.Z+dirZ*t)

		if s := g.cells[c]; s == Obstacle || s == Wall {
			break
		}

		g.markFreeIfUnknown(c)
	}
}

// AddPlane rasterizes a tracked surface polygon into the grid.  Vertices are
// world space, only their x/z components are used.  Malformed polygons are
// silently ignored.
func (g *Grid) AddPlane(vertices []r3.Vec, class PlaneClass) {

	g.Lock()
	defer g.Unlock()

	switch class {

	case Horizontal:
		if len(vertices) < 3 {
			return
		}
		g.fillHorizontal(vertices)

	case Vertical:
		if len(vertices) < 2 {
			return
		}
		g.walkVertical(vertices)

	default:
		return
	}

	g.stats.PlaneCount++
}

// fillHorizontal scans the polygon bounding box at grid resolution marking
// interior cells free if unknown.  The polygon is first inset by half a cell
// so boundary cells stay conservative.
func (g *Grid) fillHorizontal(vertices []r3.Vec) {

	ring := make([][2]float64, len(vertices))

	for i, v := range vertices {
		ring[i] = [2]float64{v.X, v.Z}
	}

	ring = insetPolygon(ring, g.params.Resolution/2)

	if len(ring) < 3 {
		return
	}

	minX, maxX := ring[0][0], ring[0][0]
	minZ, maxZ := ring[0][1], ring[0][1]

	for _, p := range ring[1:] {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minZ = math.Min(minZ, p[1])
		maxZ = math.Max(maxZ, p[1])
	}

	lo := g.cellOf(minX, minZ)
	hi := g.cellOf(maxX, maxZ)

	for cx := lo.X; cx <= hi.X; cx++ {
		for cz := lo.Z; cz <= hi.Z; cz++ {

			// sample at the cell center in world space
			pt := [2]float64{float64(cx) * g.params.Resolution,
				float64(cz) * g.params.Resolution}

			if windingNumber(pt, ring) != 0 {
				g.markFreeIfUnknown(Cell{X: cx, Z: cz})
			}
		}
	}
}

// walkVertical rasterizes each polygon edge marking traversed cells Wall
func (g *Grid) walkVertical(vertices []r3.Vec) {

	for i := 0; i < len(vertices); i++ {

		a := vertices[i]
		b := vertices[(i+1)%len(vertices)]

		bresenham(g.cellOf(a.X, a.Z), g.cellOf(b.X, b.Z), g.markWall)
		g.stats.WallEdges++
	}
}

// MarkObstacleFootprint stamps a square footprint of Obstacle cells centered
// on a confirmed landmark position.  halfWidth is in meters and comes from
// the per type taxonomy configuration.
func (g *Grid) MarkObstacleFootprint(position r3.Vec, halfWidth float64) {

	g.Lock()
	defer g.Unlock()

	if halfWidth < 0 {
		return
	}

	radius := int(math.Ceil(halfWidth / g.params.Resolution))
	center := g.cellOf(position.X, position.Z)

	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			g.markObstacle(Cell{X: center.X + dx, Z: center.Z + dz})
		}
	}
}

// Snapshot is an immutable read of the grid state
type Snapshot struct {
	// Cells is a copy of the sparse cell map
	Cells map[Cell]State
	// Bounds is the bounding box of all inserted cell keys, only valid when
	// HasBounds is true
	Bounds    Bounds
	HasBounds bool
	// Resolution is the cell size in meters
	Resolution float64
	// Stats are the trajectory counters at snapshot time
	Stats Stats
	// History is a copy of the trailing pose history
	History []r3.Vec
}

// Snapshot returns an immutable copy of the grid cells, bounds and
// trajectory statistics
func (g *Grid) Snapshot() Snapshot {

	g.Lock()
	defer g.Unlock()

	cells := make(map[Cell]State, len(g.cells))

	for k, v := range g.cells {
		cells[k] = v
	}

	history := make([]r3.Vec, len(g.history))
	copy(history, g.history)

	return Snapshot{
		Cells:      cells,
		Bounds:     g.bounds,
		HasBounds:  g.hasBounds,
		Resolution: g.params.Resolution,
		Stats:      g.stats,
		History:    history,
	}
}

// StateCounts tallies the number of cells in each state
func (s Snapshot) StateCounts() map[State]int {

	counts := make(map[State]int)

	for _, state := range s.Cells {
		counts[state]++
	}

	return counts
}
