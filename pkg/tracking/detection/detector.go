// Package detection provides object detection for the approach controller:
// a black-box detector interface, coordinate mapping between detection
// space and source-frame space, and per-cycle target selection.
package detection

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 {
	return (b.X1 + b.X2) / 2
}

// Width returns the box width.
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the box height.
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the box area.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Detection is one detector hit: a box in detection-space pixels, a
// confidence score in [0,1], and a COCO class.
type Detection struct {
	Box
	Confidence float64
	ClassID    int
	ClassName  string
}

// Result is the output of one detector invocation. Width and Height are
// the detection-space dimensions actually used; SrcWidth and SrcHeight are
// the dimensions of the frame the detector was handed. Lifetime is one
// detection cycle.
type Result struct {
	Detections []Detection
	Width      int
	Height     int
	SrcWidth   int
	SrcHeight  int
}

// Mapper returns the coordinate mapper for this result's scale factors.
func (r Result) Mapper() Mapper {
	return NewMapper(r.SrcWidth, r.SrcHeight, r.Width, r.Height)
}

// Detector is the black-box detection backend: frame in, detections out.
type Detector interface {
	// Detect finds objects in the JPEG frame. Boxes are reported in the
	// detector's own downscaled coordinate space (see Result).
	Detect(jpeg []byte) (Result, error)

	// Close releases resources.
	Close() error
}

// Mapper rescales boxes between detection space and source-frame space
// with independent horizontal and vertical scale factors. Pure scaling:
// no rotation or distortion correction is modeled.
type Mapper struct {
	FX, FY float64
}

// NewMapper computes fx = srcW/detW and fy = srcH/detH.
func NewMapper(srcW, srcH, detW, detH int) Mapper {
	return Mapper{
		FX: float64(srcW) / float64(detW),
		FY: float64(srcH) / float64(detH),
	}
}

// ToSource maps a detection-space box into source-frame coordinates.
func (m Mapper) ToSource(b Box) Box {
	return Box{
		X1: b.X1 * m.FX,
		Y1: b.Y1 * m.FY,
		X2: b.X2 * m.FX,
		Y2: b.Y2 * m.FY,
	}
}

// ToDetection maps a source-frame box back into detection space.
// Exact inverse of ToSource up to floating point.
func (m Mapper) ToDetection(b Box) Box {
	return Box{
		X1: b.X1 / m.FX,
		Y1: b.Y1 / m.FY,
		X2: b.X2 / m.FX,
		Y2: b.Y2 / m.FY,
	}
}

// Filter keeps detections whose class is in the allow-list and whose
// confidence is strictly greater than minConf. A nil allow-list accepts
// every class.
func Filter(dets []Detection, classes []int, minConf float64) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Confidence <= minConf {
			continue
		}
		if classes != nil && !containsClass(classes, d.ClassID) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func containsClass(classes []int, id int) bool {
	for _, c := range classes {
		if c == id {
			return true
		}
	}
	return false
}

// SelectionPolicy picks the target when a cycle yields several candidates.
// Max confidence and max area can disagree; the policy is fixed per
// deployment, never guessed.
type SelectionPolicy int

const (
	// SelectMaxConfidence picks the highest-scoring candidate (default).
	SelectMaxConfidence SelectionPolicy = iota
	// SelectMaxArea picks the largest candidate.
	SelectMaxArea
)

// String implements fmt.Stringer.
func (p SelectionPolicy) String() string {
	switch p {
	case SelectMaxArea:
		return "max_area"
	default:
		return "max_confidence"
	}
}

// Select applies the policy to the cycle's candidates.
// Returns nil when there are none.
func Select(policy SelectionPolicy, dets []Detection) *Detection {
	if policy == SelectMaxArea {
		return SelectByArea(dets)
	}
	return SelectByConfidence(dets)
}

// SelectByConfidence returns the candidate with the highest confidence.
func SelectByConfidence(dets []Detection) *Detection {
	var best *Detection
	for i := range dets {
		if best == nil || dets[i].Confidence > best.Confidence {
			best = &dets[i]
		}
	}
	return best
}

// SelectByArea returns the candidate with the largest bounding box.
func SelectByArea(dets []Detection) *Detection {
	var best *Detection
	for i := range dets {
		if best == nil || dets[i].Area() > best.Area() {
			best = &dets[i]
		}
	}
	return best
}
