package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the lifecycle state of a source video. Transitions are
// monotonic except for an explicit retry, which re-enters PENDING.
type VideoStatus string

const (
	StatusPending    VideoStatus = "PENDING"
	StatusProcessing VideoStatus = "PROCESSING"
	StatusCompleted  VideoStatus = "COMPLETED"
	StatusFailed     VideoStatus = "FAILED"
)

// Layout is the spatial reframing strategy applied when producing a
// 9:16 short from a clip.
type Layout string

const (
	LayoutCenterCrop Layout = "center_crop"
	LayoutBlurred    Layout = "blurred"
	LayoutSmart      Layout = "smart"
)

// ValidLayout reports whether s names a known layout.
func ValidLayout(s string) bool {
	switch Layout(s) {
	case LayoutCenterCrop, LayoutBlurred, LayoutSmart:
		return true
	}
	return false
}

// Video represents the structure of a source video in the database.
type Video struct {
	ID           uuid.UUID   `json:"id"`
	UserID       string      `json:"user_id"`
	Filename     string      `json:"filename"`
	StorageKey   *string     `json:"storage_key,omitempty"` // Nullable TEXT
	SourceURL    *string     `json:"source_url,omitempty"`  // For remote URLs
	Status       VideoStatus `json:"status"`
	JobID        *string     `json:"job_id,omitempty"` // Opaque processing job handle
	ErrorMessage *string     `json:"error_message,omitempty"`

	// StatusUpdatedAt marks the last transition. Stuck-job detection
	// keys on this, not CreatedAt, so a retried video gets a fresh
	// timeout window.
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Clip represents the structure of a generated clip in the database.
// The video owns its clips; deleting a video cascades in the schema.
type Clip struct {
	ID               uuid.UUID       `json:"id"`
	VideoID          uuid.UUID       `json:"video_id"`
	Filename         string          `json:"filename"`
	StorageKey       string          `json:"storage_key"`
	ShortsStorageKey *string         `json:"shorts_storage_key,omitempty"` // 9:16 variant, stale when layout changes
	StartTime        float64         `json:"start_time"`
	EndTime          float64         `json:"end_time"`
	ViralityScore    *int            `json:"virality_score,omitempty"` // 0..100, absent for manual clips
	HookType         string          `json:"hook_type,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	Layout           *string         `json:"layout_type,omitempty"` // Null until first reformat
	CaptionCues      json.RawMessage `json:"transcript_json,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TranscriptSegment is a single timestamped segment of a transcription.
// Segments are ordered by start time; small gaps and rare overlaps are
// tolerated downstream.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full ASR output for a video.
type Transcript struct {
	Segments []TranscriptSegment `json:"segments"`
}
