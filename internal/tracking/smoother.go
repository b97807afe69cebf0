// Package tracking converts noisy per-frame subject detections into a
// stable crop/scale transform for vertical reframing.
package tracking

// BoundingBox is a detected subject region with normalized [0,1]
// coordinates. X and Y locate the box center.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a normalized subject center position.
type Point struct {
	X float64
	Y float64
}

// DefaultSmoothWindow is the moving-average window applied to the
// filled trajectory.
const DefaultSmoothWindow = 5

// HasDetection reports whether any frame carries a detection.
func HasDetection(positions []*BoundingBox) bool {
	for _, p := range positions {
		if p != nil {
			return true
		}
	}
	return false
}

// SmoothPositions turns a sparse detection sequence into one smoothed
// center point per frame. Absent frames hold the last observed value,
// seeded with the frame center before any detection occurs, then a
// centered moving average of the given window removes jitter. Holding
// first keeps empty frames from dragging the average toward the
// center; averaging keeps the crop from jumping between detections.
func SmoothPositions(positions []*BoundingBox, window int) []Point {
	if len(positions) == 0 {
		return nil
	}
	if window <= 0 {
		window = DefaultSmoothWindow
	}

	filled := make([]Point, len(positions))
	last := Point{X: 0.5, Y: 0.5}
	for i, pos := range positions {
		if pos != nil {
			last = Point{X: pos.X, Y: pos.Y}
		}
		filled[i] = last
	}

	half := window / 2
	smoothed := make([]Point, len(filled))
	for i := range filled {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(filled) {
			hi = len(filled)
		}
		var sumX, sumY float64
		for _, p := range filled[lo:hi] {
			sumX += p.X
			sumY += p.Y
		}
		n := float64(hi - lo)
		smoothed[i] = Point{X: sumX / n, Y: sumY / n}
	}
	return smoothed
}

// MeanPosition averages a trajectory. An empty trajectory yields the
// frame center, which degrades Smart cropping to a center crop.
func MeanPosition(trajectory []Point) Point {
	if len(trajectory) == 0 {
		return Point{X: 0.5, Y: 0.5}
	}
	var sumX, sumY float64
	for _, p := range trajectory {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(trajectory))
	return Point{X: sumX / n, Y: sumY / n}
}
