// Package search indexes transcript segments for full-text moment
// lookup.
package search

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

const (
	segmentsTable = "transcript_segments"

	// MaxResults bounds a single query's answer.
	MaxResults = 5
)

// Moment is a matched span of the source video.
type Moment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Index stores transcript segments and answers text queries over them.
type Index interface {
	Index(videoID uuid.UUID, segments []models.TranscriptSegment) error
	Query(text string, videoID uuid.UUID) ([]Moment, error)
}

// segmentRow maps to the transcript_segments table.
type segmentRow struct {
	VideoID   string  `json:"video_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// PostgrestIndex backs Index with a PostgREST table using websearch
// text matching.
type PostgrestIndex struct {
	client *supa.Client
	log    *logrus.Logger
}

func NewPostgrestIndex(client *supa.Client, log *logrus.Logger) *PostgrestIndex {
	return &PostgrestIndex{client: client, log: log}
}

// Index replaces any previously indexed segments for the video.
func (p *PostgrestIndex) Index(videoID uuid.UUID, segments []models.TranscriptSegment) error {
	var deleted []segmentRow
	_, err := p.client.From(segmentsTable).
		Delete("", "").
		Eq("video_id", videoID.String()).
		ExecuteTo(&deleted)
	if err != nil {
		return fmt.Errorf("clear index for video %s: %w", videoID, err)
	}

	if len(segments) == 0 {
		return nil
	}

	rows := make([]segmentRow, 0, len(segments))
	for _, s := range segments {
		rows = append(rows, segmentRow{
			VideoID:   videoID.String(),
			StartTime: s.Start,
			EndTime:   s.End,
			Text:      s.Text,
		})
	}

	var inserted []segmentRow
	_, err = p.client.From(segmentsTable).Insert(rows, false, "", "", "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("index %d segments for video %s: %w", len(rows), videoID, err)
	}
	p.log.WithFields(logrus.Fields{"video_id": videoID, "segments": len(rows)}).Info("Indexed transcript")
	return nil
}

// Query returns up to MaxResults matching moments, in transcript
// order.
func (p *PostgrestIndex) Query(text string, videoID uuid.UUID) ([]Moment, error) {
	var rows []segmentRow
	_, err := p.client.From(segmentsTable).
		Select("*", "", false).
		Eq("video_id", videoID.String()).
		TextSearch("text", text, "english", "websearch").
		Order("start_time", &postgrest.OrderOpts{Ascending: true}).
		Limit(MaxResults, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("query index for video %s: %w", videoID, err)
	}

	moments := make([]Moment, 0, len(rows))
	for _, r := range rows {
		moments = append(moments, Moment{Start: r.StartTime, End: r.EndTime, Text: r.Text})
	}
	return moments, nil
}
