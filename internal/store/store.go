// Package store persists videos and clips through PostgREST.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

const (
	videosTable = "videos"
	clipsTable  = "clips"
)

// ErrRecordNotFound is returned when a lookup matches no row.
var ErrRecordNotFound = errors.New("record not found")

// Store wraps the PostgREST client with the queries the pipeline and
// handlers need.
type Store struct {
	client *supa.Client
	log    *logrus.Logger
}

func New(client *supa.Client, log *logrus.Logger) *Store {
	return &Store{client: client, log: log}
}

// CreateVideo inserts a new video row and returns the stored record.
func (s *Store) CreateVideo(video models.Video) (models.Video, error) {
	var results []models.Video
	_, err := s.client.From(videosTable).Insert(video, false, "", "representation", "").ExecuteTo(&results)
	if err != nil {
		return models.Video{}, fmt.Errorf("insert video: %w", err)
	}
	if len(results) == 0 {
		return models.Video{}, fmt.Errorf("insert video %s: no row returned", video.ID)
	}
	return results[0], nil
}

// GetVideo fetches one video owned by userID.
func (s *Store) GetVideo(videoID uuid.UUID, userID string) (models.Video, error) {
	var results []models.Video
	_, err := s.client.From(videosTable).
		Select("*", "", false).
		Eq("id", videoID.String()).
		Eq("user_id", userID).
		ExecuteTo(&results)
	if err != nil {
		return models.Video{}, fmt.Errorf("fetch video %s: %w", videoID, err)
	}
	if len(results) == 0 {
		return models.Video{}, ErrRecordNotFound
	}
	return results[0], nil
}

// ListVideos returns all videos owned by userID, newest first.
func (s *Store) ListVideos(userID string) ([]models.Video, error) {
	var results []models.Video
	_, err := s.client.From(videosTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return results, nil
}

// UpdateVideoStatus transitions a video's status, recording the error
// message on failure and clearing it otherwise.
func (s *Store) UpdateVideoStatus(videoID uuid.UUID, status models.VideoStatus, errorMessage string) error {
	update := map[string]interface{}{
		"status":            status,
		"status_updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if errorMessage != "" {
		update["error_message"] = errorMessage
	} else {
		update["error_message"] = nil
	}
	var results []models.Video
	_, err := s.client.From(videosTable).
		Update(update, "representation", "").
		Eq("id", videoID.String()).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("update video %s status: %w", videoID, err)
	}
	return nil
}

// SetVideoJobID records the worker handle processing this video.
func (s *Store) SetVideoJobID(videoID uuid.UUID, jobID string) error {
	var results []models.Video
	_, err := s.client.From(videosTable).
		Update(map[string]interface{}{"job_id": jobID}, "", "").
		Eq("id", videoID.String()).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("set video %s job id: %w", videoID, err)
	}
	return nil
}

// SetVideoStorageKey records where the source object lives in the
// bucket. The remote path calls this after uploading a fetched video
// so later reformats and retries read from storage instead of
// re-downloading.
func (s *Store) SetVideoStorageKey(videoID uuid.UUID, key string) error {
	var results []models.Video
	_, err := s.client.From(videosTable).
		Update(map[string]interface{}{"storage_key": key}, "", "").
		Eq("id", videoID.String()).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("set video %s storage key: %w", videoID, err)
	}
	return nil
}

// StuckVideos returns videos that entered PROCESSING before cutoff.
// Filtering on status_updated_at rather than created_at means a
// retried video is measured from its latest transition, not from
// first upload.
func (s *Store) StuckVideos(cutoff time.Time) ([]models.Video, error) {
	var results []models.Video
	_, err := s.client.From(videosTable).
		Select("*", "", false).
		Eq("status", string(models.StatusProcessing)).
		Lt("status_updated_at", cutoff.UTC().Format(time.RFC3339)).
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("list stuck videos: %w", err)
	}
	return results, nil
}

// CreateClip inserts a materialized clip row.
func (s *Store) CreateClip(clip models.Clip) (models.Clip, error) {
	var results []models.Clip
	_, err := s.client.From(clipsTable).Insert(clip, false, "", "representation", "").ExecuteTo(&results)
	if err != nil {
		return models.Clip{}, fmt.Errorf("insert clip: %w", err)
	}
	if len(results) == 0 {
		return models.Clip{}, fmt.Errorf("insert clip %s: no row returned", clip.ID)
	}
	return results[0], nil
}

// GetClip fetches one clip, verifying through the parent video that it
// belongs to userID.
func (s *Store) GetClip(clipID uuid.UUID, userID string) (models.Clip, error) {
	var results []models.Clip
	_, err := s.client.From(clipsTable).
		Select("*", "", false).
		Eq("id", clipID.String()).
		ExecuteTo(&results)
	if err != nil {
		return models.Clip{}, fmt.Errorf("fetch clip %s: %w", clipID, err)
	}
	if len(results) == 0 {
		return models.Clip{}, ErrRecordNotFound
	}
	clip := results[0]
	if _, err := s.GetVideo(clip.VideoID, userID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return models.Clip{}, ErrRecordNotFound
		}
		return models.Clip{}, err
	}
	return clip, nil
}

// ListClips returns the clips of one video, highest virality first.
func (s *Store) ListClips(videoID uuid.UUID) ([]models.Clip, error) {
	var results []models.Clip
	_, err := s.client.From(clipsTable).
		Select("*", "", false).
		Eq("video_id", videoID.String()).
		Order("virality_score", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("list clips for video %s: %w", videoID, err)
	}
	return results, nil
}

// CommitShorts records a finished vertical rendition. Writing the
// shorts key and layout together is what makes the reformat cache key
// observable, so both go in one update.
func (s *Store) CommitShorts(clipID uuid.UUID, shortsKey, layout string) error {
	var results []models.Clip
	_, err := s.client.From(clipsTable).
		Update(map[string]interface{}{
			"shorts_storage_key": shortsKey,
			"layout_type":        layout,
		}, "", "").
		Eq("id", clipID.String()).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("commit shorts for clip %s: %w", clipID, err)
	}
	return nil
}
