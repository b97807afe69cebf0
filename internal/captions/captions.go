// Package captions re-anchors full-video transcript segments to
// clip-local time and serializes them as SRT cues for subtitle burning.
package captions

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/funcoding7/clipgen-ai/internal/models"
	"github.com/funcoding7/clipgen-ai/internal/timewin"
)

// Cue is a single caption line with clip-local start/end time.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Reanchor slices the full transcript into clip-local cues. Segments
// fully outside [clipStart,clipEnd) are dropped; segments partially
// outside are clamped to the clip bounds, never discarded.
func Reanchor(segments []models.TranscriptSegment, clipStart, clipEnd float64) []Cue {
	var cues []Cue
	for _, seg := range segments {
		start, end, ok := timewin.Rebase(seg.Start, seg.End, clipStart, clipEnd)
		if !ok {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Start: start, End: end, Text: text})
	}
	return cues
}

// MarshalCues encodes cues for column storage. nil encodes as an
// empty list, not null.
func MarshalCues(cues []Cue) (json.RawMessage, error) {
	if cues == nil {
		cues = []Cue{}
	}
	return json.Marshal(cues)
}

// UnmarshalCues decodes a stored cue column.
func UnmarshalCues(raw json.RawMessage) ([]Cue, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var cues []Cue
	if err := json.Unmarshal(raw, &cues); err != nil {
		return nil, err
	}
	return cues, nil
}

// RenderSRT serializes cues into SubRip format: sequence number,
// "HH:MM:SS,mmm --> HH:MM:SS,mmm", text, blank line.
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		b.WriteString(fmt.Sprintf("%d\n", i+1))
		b.WriteString(srtTime(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(srtTime(cue.End))
		b.WriteString("\n")
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func srtTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	d := time.Duration(sec * float64(time.Second))
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
