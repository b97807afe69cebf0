// Package pipeline orchestrates a video's journey from upload to
// ranked, reformatted short clips.
//
// Stage failures are asymmetric on purpose. Acquisition,
// transcription, and ranking failures fail the whole video; indexing
// and individual clip materialization failures are logged and skipped
// so one bad candidate never throws away the rest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/captions"
	"github.com/funcoding7/clipgen-ai/internal/models"
	"github.com/funcoding7/clipgen-ai/internal/ranking"
	"github.com/funcoding7/clipgen-ai/internal/search"
	"github.com/funcoding7/clipgen-ai/internal/storage"
	"github.com/funcoding7/clipgen-ai/internal/tracking"
	"github.com/funcoding7/clipgen-ai/internal/worker"
)

// Fatal stage sentinels. Each one takes the video to FAILED.
var (
	ErrAcquisition   = errors.New("source acquisition failed")
	ErrTranscription = errors.New("transcription failed")
	ErrRanking       = errors.New("ranking failed")
)

// Repository is the slice of the persistence layer the orchestrator
// writes through.
type Repository interface {
	UpdateVideoStatus(videoID uuid.UUID, status models.VideoStatus, errorMessage string) error
	SetVideoStorageKey(videoID uuid.UUID, key string) error
	CreateClip(clip models.Clip) (models.Clip, error)
	GetClip(clipID uuid.UUID, userID string) (models.Clip, error)
	CommitShorts(clipID uuid.UUID, shortsKey, layout string) error
}

// Ranker turns a transcript, optionally accompanied by sampled
// frames, into candidate windows.
type Ranker interface {
	RankWithFrames(ctx context.Context, segments []models.TranscriptSegment, framePaths []string) ([]ranking.CandidateWindow, error)
}

// Transcriber converts extracted audio into transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}

// Encoder is the slice of the ffmpeg toolchain the pipeline drives.
type Encoder interface {
	Duration(ctx context.Context, inputPath string) (float64, error)
	Dimensions(ctx context.Context, inputPath string) (int, int, error)
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
	ExtractClip(ctx context.Context, inputPath, outputPath string, start, duration float64) error
	ExtractFrames(ctx context.Context, inputPath, outputDir string, fps float64) ([]string, error)
	ApplyFilter(ctx context.Context, inputPath, outputPath, filterSpec string) error
	ApplyFilterComplex(ctx context.Context, inputPath, outputPath, filterGraph string) error
	BurnSubtitles(ctx context.Context, inputPath, outputPath, srtPath, style string) error
}

// Detector locates the subject per sampled frame.
type Detector interface {
	Detect(ctx context.Context, framePaths []string) ([]*tracking.BoundingBox, error)
}

// Fetcher acquires a remote source video.
type Fetcher interface {
	Fetch(ctx context.Context, url, outputDir string) (string, error)
}

// Indexer stores transcript segments for later search.
type Indexer interface {
	Index(videoID uuid.UUID, segments []models.TranscriptSegment) error
	Query(text string, videoID uuid.UUID) ([]search.Moment, error)
}

// Config tunes the orchestrator.
type Config struct {
	// TempRoot hosts per-job workspaces. Empty means os.TempDir.
	TempRoot string
	// FrameFPS is the sampling rate for subject detection and
	// multimodal ranking.
	FrameFPS float64
}

func (c *Config) applyDefaults() {
	if c.TempRoot == "" {
		c.TempRoot = os.TempDir()
	}
	if c.FrameFPS <= 0 {
		c.FrameFPS = 1
	}
}

// Orchestrator wires the collaborators into the processing and
// reformatting flows.
type Orchestrator struct {
	repo     Repository
	objects  storage.ObjectStore
	asr      Transcriber
	ranker   Ranker
	encoder  Encoder
	detector Detector
	fetcher  Fetcher
	index    Indexer
	locks    *worker.KeyedMutex
	cfg      Config
	log      *logrus.Logger
}

func New(
	repo Repository,
	objects storage.ObjectStore,
	asr Transcriber,
	ranker Ranker,
	encoder Encoder,
	detector Detector,
	fetcher Fetcher,
	index Indexer,
	cfg Config,
	log *logrus.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		repo:     repo,
		objects:  objects,
		asr:      asr,
		ranker:   ranker,
		encoder:  encoder,
		detector: detector,
		fetcher:  fetcher,
		index:    index,
		locks:    worker.NewKeyedMutex(),
		cfg:      cfg,
		log:      log,
	}
}

// Process runs the full pipeline for an uploaded video: acquire,
// transcribe, index, rank, materialize. Completing with zero clips is
// a success.
func (o *Orchestrator) Process(ctx context.Context, video models.Video) error {
	workspace, err := os.MkdirTemp(o.cfg.TempRoot, "clipgen-"+video.ID.String()+"-")
	if err != nil {
		return o.fail(video.ID, fmt.Errorf("%w: create workspace: %v", ErrAcquisition, err))
	}
	defer os.RemoveAll(workspace)

	if err := o.repo.UpdateVideoStatus(video.ID, models.StatusProcessing, ""); err != nil {
		return o.fail(video.ID, fmt.Errorf("mark processing: %w", err))
	}

	if video.StorageKey == nil {
		return o.fail(video.ID, fmt.Errorf("%w: video has no storage key", ErrAcquisition))
	}
	sourcePath := filepath.Join(workspace, "source.mp4")
	if !o.objects.Get(*video.StorageKey, sourcePath) {
		return o.fail(video.ID, fmt.Errorf("%w: download %s", ErrAcquisition, *video.StorageKey))
	}

	return o.process(ctx, video, sourcePath, workspace)
}

// ProcessRemote fetches the video from its source URL, uploads the
// original for later reformatting, then runs the same pipeline.
func (o *Orchestrator) ProcessRemote(ctx context.Context, video models.Video) error {
	workspace, err := os.MkdirTemp(o.cfg.TempRoot, "clipgen-"+video.ID.String()+"-")
	if err != nil {
		return o.fail(video.ID, fmt.Errorf("%w: create workspace: %v", ErrAcquisition, err))
	}
	defer os.RemoveAll(workspace)

	if err := o.repo.UpdateVideoStatus(video.ID, models.StatusProcessing, ""); err != nil {
		return o.fail(video.ID, fmt.Errorf("mark processing: %w", err))
	}

	if video.SourceURL == nil {
		return o.fail(video.ID, fmt.Errorf("%w: video has no source url", ErrAcquisition))
	}
	sourcePath, err := o.fetcher.Fetch(ctx, *video.SourceURL, workspace)
	if err != nil {
		return o.fail(video.ID, fmt.Errorf("%w: %v", ErrAcquisition, err))
	}

	sourceKey := fmt.Sprintf("%s/%s/source.mp4", video.UserID, video.ID)
	if !o.objects.Put(sourcePath, sourceKey) {
		return o.fail(video.ID, fmt.Errorf("%w: upload fetched source", ErrAcquisition))
	}
	// Record the locator so retries and reformats read from storage
	// instead of fetching the URL again.
	if err := o.repo.SetVideoStorageKey(video.ID, sourceKey); err != nil {
		o.log.WithError(err).WithField("video_id", video.ID).Warn("Could not persist source storage key")
	}
	video.StorageKey = &sourceKey

	return o.process(ctx, video, sourcePath, workspace)
}

// process runs the stages shared by local and remote ingestion. The
// source is already on disk.
func (o *Orchestrator) process(ctx context.Context, video models.Video, sourcePath, workspace string) error {
	log := o.log.WithField("video_id", video.ID)

	audioPath := filepath.Join(workspace, "audio.wav")
	if err := o.encoder.ExtractAudio(ctx, sourcePath, audioPath); err != nil {
		return o.fail(video.ID, fmt.Errorf("%w: extract audio: %v", ErrTranscription, err))
	}

	segments, err := o.asr.Transcribe(ctx, audioPath)
	if err != nil {
		return o.fail(video.ID, fmt.Errorf("%w: %v", ErrTranscription, err))
	}
	log.Infof("Transcribed %d segments", len(segments))

	// Search indexing is best effort.
	if err := o.index.Index(video.ID, segments); err != nil {
		log.WithError(err).Warn("Transcript indexing failed, continuing")
	}

	// Frame sampling feeds the multimodal ranker. Losing it degrades
	// ranking to transcript-only, it never fails the video.
	frames := o.rankFrames(ctx, sourcePath, workspace, log)

	windows, err := o.ranker.RankWithFrames(ctx, segments, frames)
	if err != nil {
		return o.fail(video.ID, fmt.Errorf("%w: %v", ErrRanking, err))
	}
	log.Infof("Ranker proposed %d candidate windows", len(windows))

	if dur, err := o.encoder.Duration(ctx, sourcePath); err != nil {
		log.WithError(err).Warn("Could not probe source duration")
	} else {
		windows = dropPastEnd(windows, dur, log)
	}

	materialized := 0
	for i, w := range windows {
		if err := o.materialize(ctx, video, segments, w, i, sourcePath, workspace); err != nil {
			log.WithError(err).Warnf("Skipping candidate %d [%0.2f,%0.2f]", i, w.Start, w.End)
			continue
		}
		materialized++
	}
	log.Infof("Materialized %d of %d candidates", materialized, len(windows))

	return o.repo.UpdateVideoStatus(video.ID, models.StatusCompleted, "")
}

// rankFrames samples frames across the whole source for the
// multimodal ranker. Returns nil on any failure.
func (o *Orchestrator) rankFrames(ctx context.Context, sourcePath, workspace string, log *logrus.Entry) []string {
	frameDir := filepath.Join(workspace, "rank_frames")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		log.WithError(err).Warn("Frame sampling failed, ranking on transcript only")
		return nil
	}
	frames, err := o.encoder.ExtractFrames(ctx, sourcePath, frameDir, o.cfg.FrameFPS)
	if err != nil {
		log.WithError(err).Warn("Frame sampling failed, ranking on transcript only")
		return nil
	}
	return frames
}

// dropPastEnd removes candidates that run past the end of the source.
// The oracle sees only transcript timestamps, so it can propose
// windows the encoder could never cut.
func dropPastEnd(windows []ranking.CandidateWindow, duration float64, log *logrus.Entry) []ranking.CandidateWindow {
	kept := windows[:0]
	for _, w := range windows {
		if w.End > duration {
			log.Warnf("Skipping candidate [%0.2f,%0.2f] past end of %.2fs source", w.Start, w.End, duration)
			continue
		}
		kept = append(kept, w)
	}
	return kept
}

// materialize cuts, uploads, and records one candidate clip together
// with its clip-local caption cues.
func (o *Orchestrator) materialize(
	ctx context.Context,
	video models.Video,
	segments []models.TranscriptSegment,
	w ranking.CandidateWindow,
	ordinal int,
	sourcePath, workspace string,
) error {
	clipID := uuid.New()
	filename := fmt.Sprintf("clip_%02d.mp4", ordinal+1)
	clipPath := filepath.Join(workspace, filename)

	if err := o.encoder.ExtractClip(ctx, sourcePath, clipPath, w.Start, w.End-w.Start); err != nil {
		return fmt.Errorf("extract clip: %w", err)
	}

	clipKey := fmt.Sprintf("%s/%s/clips/%s", video.UserID, video.ID, filename)
	if !o.objects.Put(clipPath, clipKey) {
		return fmt.Errorf("upload clip %s", clipKey)
	}

	cues := captions.Reanchor(segments, w.Start, w.End)
	cuesJSON, err := captions.MarshalCues(cues)
	if err != nil {
		return fmt.Errorf("encode captions: %w", err)
	}

	score := w.Score
	clip := models.Clip{
		ID:            clipID,
		VideoID:       video.ID,
		Filename:      filename,
		StorageKey:    clipKey,
		StartTime:     w.Start,
		EndTime:       w.End,
		ViralityScore: &score,
		HookType:      w.Category,
		Reason:        w.Rationale,
		CaptionCues:   cuesJSON,
	}
	if _, err := o.repo.CreateClip(clip); err != nil {
		return fmt.Errorf("record clip: %w", err)
	}
	return nil
}

// fail drives the video to FAILED and returns the stage error.
func (o *Orchestrator) fail(videoID uuid.UUID, stageErr error) error {
	if err := o.repo.UpdateVideoStatus(videoID, models.StatusFailed, stageErr.Error()); err != nil {
		o.log.WithError(err).WithField("video_id", videoID).Error("Could not record failure status")
	}
	return stageErr
}
