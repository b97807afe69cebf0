package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

// VideoReconciler is the slice of the persistence layer the sweeper
// needs: find abandoned PROCESSING videos and fail them.
type VideoReconciler interface {
	StuckVideos(cutoff time.Time) ([]models.Video, error)
	UpdateVideoStatus(videoID uuid.UUID, status models.VideoStatus, errorMessage string) error
}

// Sweeper fails videos stuck in PROCESSING past a timeout. A crashed
// worker leaves its video in PROCESSING forever otherwise. The cutoff
// is measured from the video's last status transition, so a retry
// restarts the clock.
type Sweeper struct {
	store    VideoReconciler
	timeout  time.Duration
	interval time.Duration
	log      *logrus.Logger
}

// NewSweeper builds a sweeper that checks every interval for videos
// processing longer than timeout.
func NewSweeper(st VideoReconciler, timeout, interval time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{store: st, timeout: timeout, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.timeout)
	stuck, err := s.store.StuckVideos(cutoff)
	if err != nil {
		s.log.WithError(err).Error("Stuck-job sweep query failed")
		return
	}
	for _, v := range stuck {
		err := s.store.UpdateVideoStatus(v.ID, models.StatusFailed, "processing timed out")
		if err != nil {
			s.log.WithError(err).WithField("video_id", v.ID).Error("Failed to fail stuck video")
			continue
		}
		s.log.WithField("video_id", v.ID).Warn("Marked stuck video FAILED")
	}
}
