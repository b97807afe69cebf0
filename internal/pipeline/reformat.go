package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/captions"
	"github.com/funcoding7/clipgen-ai/internal/models"
	"github.com/funcoding7/clipgen-ai/internal/tracking"
)

// ReformatRequest describes one vertical rendition.
type ReformatRequest struct {
	ClipID       uuid.UUID
	UserID       string
	Layout       models.Layout
	Captions     bool
	CaptionStyle string
}

// ReformatResult reports where the rendition landed and whether a
// cached one was reused.
type ReformatResult struct {
	ShortsKey        string `json:"shorts_storage_key"`
	AlreadyConverted bool   `json:"already_converted"`
}

// Reformat renders a 9:16 rendition of a clip. It is idempotent per
// (clip, layout): a second request for the same pair returns the
// stored rendition without re-rendering. Compute and commit for one
// pair are serialized.
func (o *Orchestrator) Reformat(ctx context.Context, req ReformatRequest) (ReformatResult, error) {
	key := req.ClipID.String() + "|" + string(req.Layout)
	o.locks.Lock(key)
	defer o.locks.Unlock(key)

	clip, err := o.repo.GetClip(req.ClipID, req.UserID)
	if err != nil {
		return ReformatResult{}, err
	}

	if clip.ShortsStorageKey != nil && clip.Layout != nil && *clip.Layout == string(req.Layout) {
		return ReformatResult{ShortsKey: *clip.ShortsStorageKey, AlreadyConverted: true}, nil
	}

	workspace, err := os.MkdirTemp(o.cfg.TempRoot, "reformat-"+req.ClipID.String()+"-")
	if err != nil {
		return ReformatResult{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	localClip := filepath.Join(workspace, "clip.mp4")
	if !o.objects.Get(clip.StorageKey, localClip) {
		return ReformatResult{}, fmt.Errorf("download clip %s", clip.StorageKey)
	}

	rendered := filepath.Join(workspace, "shorts.mp4")
	if err := o.render(ctx, localClip, rendered, req.Layout, workspace); err != nil {
		return ReformatResult{}, err
	}

	final := rendered
	if req.Captions {
		withCaptions, err := o.burnCaptions(ctx, clip, rendered, workspace, req.CaptionStyle)
		if err != nil {
			return ReformatResult{}, err
		}
		final = withCaptions
	}

	shortsKey := fmt.Sprintf("%s/%s/shorts/%s_%s.mp4", req.UserID, clip.VideoID, req.ClipID, req.Layout)
	if !o.objects.Put(final, shortsKey) {
		return ReformatResult{}, fmt.Errorf("upload shorts %s", shortsKey)
	}

	// The cache key only becomes visible after the object exists.
	if err := o.repo.CommitShorts(req.ClipID, shortsKey, string(req.Layout)); err != nil {
		return ReformatResult{}, err
	}
	return ReformatResult{ShortsKey: shortsKey}, nil
}

// render applies the layout's crop or composition to produce the
// vertical frame.
func (o *Orchestrator) render(ctx context.Context, inputPath, outputPath string, layout models.Layout, workspace string) error {
	srcW, srcH, err := o.encoder.Dimensions(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("probe clip: %w", err)
	}

	switch layout {
	case models.LayoutBlurred:
		graph := tracking.BlurredFilterSpec(tracking.DefaultOutputWidth, tracking.DefaultOutputHeight)
		if err := o.encoder.ApplyFilterComplex(ctx, inputPath, outputPath, graph); err != nil {
			return fmt.Errorf("blurred layout: %w", err)
		}
		return nil
	case models.LayoutSmart:
		transform, err := o.smartTransform(ctx, inputPath, workspace, srcW, srcH)
		if err != nil {
			return err
		}
		if err := o.encoder.ApplyFilter(ctx, inputPath, outputPath, transform.FilterSpec()); err != nil {
			return fmt.Errorf("smart layout: %w", err)
		}
		return nil
	default:
		transform := tracking.CenterCrop(srcW, srcH, tracking.DefaultOutputWidth, tracking.DefaultOutputHeight)
		if err := o.encoder.ApplyFilter(ctx, inputPath, outputPath, transform.FilterSpec()); err != nil {
			return fmt.Errorf("center crop layout: %w", err)
		}
		return nil
	}
}

// smartTransform samples frames, tracks the subject, and derives the
// crop window. Detection trouble falls back to a center crop rather
// than failing the rendition.
func (o *Orchestrator) smartTransform(ctx context.Context, inputPath, workspace string, srcW, srcH int) (tracking.CropTransform, error) {
	framesDir := filepath.Join(workspace, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return tracking.CropTransform{}, fmt.Errorf("create frames dir: %w", err)
	}

	center := tracking.CenterCrop(srcW, srcH, tracking.DefaultOutputWidth, tracking.DefaultOutputHeight)

	frames, err := o.encoder.ExtractFrames(ctx, inputPath, framesDir, o.cfg.FrameFPS)
	if err != nil {
		o.log.WithError(err).Warn("Frame extraction failed, falling back to center crop")
		return center, nil
	}
	boxes, err := o.detector.Detect(ctx, frames)
	if err != nil {
		o.log.WithError(err).Warn("Subject detection failed, falling back to center crop")
		return center, nil
	}
	if !tracking.HasDetection(boxes) {
		o.log.WithFields(logrus.Fields{"frames": len(frames)}).Info("No subject detected, using center crop")
		return center, nil
	}

	trajectory := tracking.SmoothPositions(boxes, tracking.DefaultSmoothWindow)
	return tracking.SmartCrop(srcW, srcH, tracking.DefaultOutputWidth, tracking.DefaultOutputHeight, trajectory), nil
}

// burnCaptions renders the clip's stored cues as SRT and burns them in
// with the requested style.
func (o *Orchestrator) burnCaptions(ctx context.Context, clip models.Clip, inputPath, workspace, style string) (string, error) {
	cues, err := captions.UnmarshalCues(clip.CaptionCues)
	if err != nil {
		return "", fmt.Errorf("decode stored captions: %w", err)
	}
	if len(cues) == 0 {
		// Nothing to burn.
		return inputPath, nil
	}

	srtPath := filepath.Join(workspace, "captions.srt")
	if err := os.WriteFile(srtPath, []byte(captions.RenderSRT(cues)), 0o644); err != nil {
		return "", fmt.Errorf("write captions: %w", err)
	}

	outputPath := filepath.Join(workspace, "shorts_captioned.mp4")
	if err := o.encoder.BurnSubtitles(ctx, inputPath, outputPath, srtPath, captions.StyleOverride(style)); err != nil {
		return "", fmt.Errorf("burn captions: %w", err)
	}
	return outputPath, nil
}
