package tracking

import (
	"math"
	"testing"
)

func TestSmoothPositions_AllAbsentYieldsCenter(t *testing.T) {
	t.Parallel()

	positions := make([]*BoundingBox, 8)
	trajectory := SmoothPositions(positions, 5)
	if len(trajectory) != 8 {
		t.Fatalf("expected 8 points, got %d", len(trajectory))
	}
	for i, p := range trajectory {
		if p.X != 0.5 || p.Y != 0.5 {
			t.Fatalf("frame %d: expected constant center, got (%v,%v)", i, p.X, p.Y)
		}
	}
}

func TestSmoothPositions_SingleDetectionHoldsForward(t *testing.T) {
	t.Parallel()

	positions := make([]*BoundingBox, 10)
	positions[4] = &BoundingBox{X: 0.9, Y: 0.3}

	trajectory := SmoothPositions(positions, 5)

	// Frames before the detection minus the window radius stay at center.
	if trajectory[0].X != 0.5 || trajectory[1].X != 0.5 {
		t.Fatalf("early frames moved: %+v", trajectory[:2])
	}
	// The averaging window pulls frames within the radius toward the
	// detection before it occurs.
	if trajectory[3].X <= 0.5 {
		t.Fatalf("expected backward smoothing at frame 3, got %v", trajectory[3].X)
	}
	// Once the hold dominates the whole window, the value is exact.
	for i := 6; i < 10; i++ {
		if math.Abs(trajectory[i].X-0.9) > 1e-9 || math.Abs(trajectory[i].Y-0.3) > 1e-9 {
			t.Fatalf("frame %d: expected held detection (0.9,0.3), got (%v,%v)", i, trajectory[i].X, trajectory[i].Y)
		}
	}
}

func TestSmoothPositions_AveragesJitter(t *testing.T) {
	t.Parallel()

	positions := []*BoundingBox{
		{X: 0.4, Y: 0.5},
		{X: 0.6, Y: 0.5},
		{X: 0.4, Y: 0.5},
		{X: 0.6, Y: 0.5},
		{X: 0.4, Y: 0.5},
	}
	trajectory := SmoothPositions(positions, 5)
	// Full window at the middle frame: mean of all five samples.
	want := (0.4 + 0.6 + 0.4 + 0.6 + 0.4) / 5
	if math.Abs(trajectory[2].X-want) > 1e-9 {
		t.Fatalf("expected smoothed x %v, got %v", want, trajectory[2].X)
	}
}

func TestMeanPosition_EmptyIsCenter(t *testing.T) {
	t.Parallel()

	p := MeanPosition(nil)
	if p.X != 0.5 || p.Y != 0.5 {
		t.Fatalf("expected center fallback, got (%v,%v)", p.X, p.Y)
	}
}
