package floormap

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mapsmith/go-floormap/detect"
	"github.com/mapsmith/go-floormap/grid"
	"github.com/mapsmith/go-floormap/landmark"
	"github.com/mapsmith/go-floormap/preprocess"
	"github.com/mapsmith/go-floormap/project"
	"github.com/mapsmith/go-floormap/tracker"
	"gonum.org/v1/gonum/spatial/r3"
)

// Detector is the external inference collaborator.  Given the normalized
// RGB input tensor it returns one output tensor and its shape following the
// conventions the decoder understands.  Model loading, acceleration and
// lifecycle are entirely external.
type Detector interface {
	Infer(input []float32) (output []float32, shape []int, err error)
}

// Config defines the struct containing the mapper configuration
type Config struct {
	// FrameWidth and FrameHeight are the source sensor dimensions
	FrameWidth  int
	FrameHeight int
	// InferenceCooldown is the minimum interval between detection jobs,
	// frames arriving sooner are dropped
	InferenceCooldown time.Duration
	// Grid configures the occupancy grid builder
	Grid grid.Params
	// Decoder configures the detection decoder.  A zero ObjectClassNum is
	// filled in from the taxonomy size.
	Decoder detect.Params
	// Gate configures the temporal confirmation gate
	Gate tracker.GateParams
	// Projector configures the monocular world position estimator
	Projector project.Params
	// Landmarks configures the landmark store
	Landmarks landmark.Params
}

// DefaultConfig returns a mapper configuration with the default parameters
// of every pipeline stage and a 500ms inference cooldown.  The decoder
// class count is left unset so it follows the taxonomy size.
func DefaultConfig(frameWidth, frameHeight int) Config {

	decoder := detect.DefaultParams()
	decoder.ObjectClassNum = 0

	return Config{
		FrameWidth:        frameWidth,
		FrameHeight:       frameHeight,
		InferenceCooldown: 500 * time.Millisecond,
		Grid:              grid.DefaultParams(),
		Decoder:           decoder,
		Gate:              tracker.DefaultGateParams(),
		Projector:         project.DefaultParams(),
		Landmarks:         landmark.DefaultParams(),
	}
}

// Mapper is the fusion core.  It owns the occupancy grid, the landmark
// store and the detection pipeline and is the only writer to all of them.
// AddPose/AddPlane are fed by the high-frequency tracking producer while
// ProcessFrame is fed by the rate-limited inference worker, the two may run
// concurrently.
type Mapper struct {
	cfg       Config
	taxonomy  *Taxonomy
	detector  Detector
	grid      *grid.Grid
	landmarks *landmark.Store
	gate      *tracker.ConfirmationGate
	projector *project.Projector
	decoder   *detect.Decoder
	resizer   *preprocess.Resizer
	sessionID uuid.UUID

	// busy enforces the single flight policy, at most one detection job may
	// be in flight
	busy atomic.Bool
	// lastInference is the unix nanosecond stamp of the last detection job
	lastInference atomic.Int64
}

// NewMapper returns a mapper using the given configuration.  taxonomy may
// be nil in which case the default indoor taxonomy is used.  hitTester is
// the optional scene geometry collaborator for the world projector and may
// be nil.
func NewMapper(cfg Config, taxonomy *Taxonomy, detector Detector,
	hitTester project.HitTester) *Mapper {

	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}

	labels := taxonomy.Labels()

	if cfg.Decoder.ObjectClassNum == 0 {
		cfg.Decoder.ObjectClassNum = len(labels)
	}

	return &Mapper{
		cfg:       cfg,
		taxonomy:  taxonomy,
		detector:  detector,
		grid:      grid.New(cfg.Grid),
		landmarks: landmark.NewStore(cfg.Landmarks),
		gate:      tracker.NewConfirmationGate(cfg.Gate),
		projector: project.NewProjector(cfg.Projector, hitTester),
		decoder:   detect.NewDecoder(cfg.Decoder, labels),
		resizer:   preprocess.NewResizer(cfg.FrameWidth, cfg.FrameHeight, cfg.Decoder.ModelInputSize),
		sessionID: uuid.New(),
	}
}

// Close releases preprocessing resources.  The mapper must not be used
// after closing.
func (m *Mapper) Close() error {
	return m.resizer.Close()
}

// SessionID returns the unique id of this mapping session
func (m *Mapper) SessionID() uuid.UUID {
	return m.sessionID
}

// AddPose integrates one camera pose sample into the occupancy grid.  Called
// once per tracking frame.
func (m *Mapper) AddPose(p Pose) {
	m.grid.AddPose(p.Position, p.Forward())
}

// AddPlane rasterizes one tracked surface polygon into the occupancy grid.
// Vertices are world space, malformed polygons are silently ignored.
func (m *Mapper) AddPlane(vertices []r3.Vec, class grid.PlaneClass) {
	m.grid.AddPlane(vertices, class)
}

// Landmarks returns the landmark store for direct queries
func (m *Mapper) Landmarks() *landmark.Store {
	return m.landmarks
}

// Grid returns the occupancy grid builder for direct reads
func (m *Mapper) Grid() *grid.Grid {
	return m.grid
}

// RemoveStale evicts stale under observed landmarks, see landmark.Store
func (m *Mapper) RemoveStale(now time.Time) int {
	return m.landmarks.RemoveStale(now)
}

// ProcessFrame runs one detection job for a camera frame and the pose it
// was captured at.  At most one job runs at a time and jobs are separated
// by the configured cooldown, frames arriving while busy or cooling down
// are dropped, never queued.  Returns true when the frame was processed.
func (m *Mapper) ProcessFrame(frame *preprocess.YUVImage, pose Pose) bool {

	if m.detector == nil {
		return false
	}

	now := pose.Timestamp

	if now.IsZero() {
		now = time.Now()
	}

	last := m.lastInference.Load()

	if last != 0 && now.Sub(time.Unix(0, last)) < m.cfg.InferenceCooldown {
		return false
	}

	if !m.busy.CompareAndSwap(false, true) {
		return false
	}

	defer m.busy.Store(false)

	m.lastInference.Store(now.UnixNano())

	// a single bad frame must never halt the pipeline
	defer func() {
		if r := recover(); r != nil {
			log.Printf("floormap: frame processing panic recovered: %v", r)
		}
	}()

	if err := m.runDetection(frame, pose, now); err != nil {
		log.Printf("floormap: frame dropped: %v", err)
	}

	return true
}

// runDetection is the single flight detection path: preprocess, infer,
// decode, confirm, project and merge
func (m *Mapper) runDetection(frame *preprocess.YUVImage, pose Pose,
	now time.Time) error {

	tensor, err := m.resizer.FrameToTensor(frame)

	if err != nil {
		return fmt.Errorf("preprocessing frame: %w", err)
	}

	output, shape, err := m.detector.Infer(tensor)

	if err != nil {
		return fmt.Errorf("running inference: %w", err)
	}

	results := m.decoder.Decode(output, shape)

	// map decoder boxes out of padded model space into source sensor space,
	// everything downstream works in source pixels
	for i := range results {
		results[i].Box = m.resizer.MapBoxToSource(results[i].Box)
	}

	confirmed := m.gate.Feed(results, now)

	for _, c := range confirmed {

		class := m.taxonomy.ByLabel(c.Label)

		position, err := m.projector.Project(c.Box, pose.Position,
			pose.Orientation, m.cfg.FrameWidth, m.cfg.FrameHeight)

		if err != nil {
			// no position could be estimated, drop for this frame
			continue
		}

		m.landmarks.AddOrMerge(landmark.Observation{
			Type:        class.Type,
			Label:       class.Display,
			Position:    position,
			Box:         c.Box,
			Probability: c.Probability,
			Seen:        now,
		})

		m.grid.MarkObstacleFootprint(position, class.FootprintHalfWidth)
	}

	return nil
}
