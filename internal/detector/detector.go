// Package detector locates the primary subject in sampled frames.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/funcoding7/clipgen-ai/internal/tracking"
)

// Detector returns one box per input frame, aligned by position. A nil
// entry means no subject was found in that frame.
type Detector interface {
	Detect(ctx context.Context, framePaths []string) ([]*tracking.BoundingBox, error)
}

// ExecDetector shells out to a detection CLI that reads frame paths as
// arguments and prints one JSON line per frame.
type ExecDetector struct {
	bin  string
	args []string
}

func NewExecDetector(binPath string, extraArgs ...string) *ExecDetector {
	return &ExecDetector{bin: binPath, args: extraArgs}
}

// frameResult is one line of detector output. Box is null when the
// frame has no subject.
type frameResult struct {
	Box *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	} `json:"box"`
}

// Detect runs the CLI over framePaths. The output line count must
// match the input frame count.
func (d *ExecDetector) Detect(ctx context.Context, framePaths []string) ([]*tracking.BoundingBox, error) {
	if len(framePaths) == 0 {
		return nil, nil
	}

	args := append(append([]string{}, d.args...), framePaths...)
	cmd := exec.CommandContext(ctx, d.bin, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("detector failed: %w", err)
	}

	boxes := make([]*tracking.BoundingBox, 0, len(framePaths))
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var r frameResult
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("parse detector output: %w", err)
		}
		if r.Box == nil {
			boxes = append(boxes, nil)
			continue
		}
		boxes = append(boxes, &tracking.BoundingBox{X: r.Box.X, Y: r.Box.Y, W: r.Box.W, H: r.Box.H})
	}
	if len(boxes) != len(framePaths) {
		return nil, fmt.Errorf("detector returned %d results for %d frames", len(boxes), len(framePaths))
	}
	return boxes, nil
}

// NopDetector reports no subject in any frame, which drives the crop
// synthesizer to its centered fallback.
type NopDetector struct{}

func (NopDetector) Detect(_ context.Context, framePaths []string) ([]*tracking.BoundingBox, error) {
	return make([]*tracking.BoundingBox, len(framePaths)), nil
}
