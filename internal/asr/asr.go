// Package asr transcribes audio through a whisper.cpp binary.
package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

// Engine converts an audio file into timestamped transcript segments.
// Transcribe blocks until the whole file is processed.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}

// WhisperCpp shells out to a whisper.cpp binary with JSON output.
type WhisperCpp struct {
	bin   string
	model string
}

func NewWhisperCpp(binPath, modelPath string) *WhisperCpp {
	return &WhisperCpp{bin: binPath, model: modelPath}
}

// whisperOutput matches whisper.cpp's -oj file. Offsets are
// milliseconds from the start of the audio.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe runs whisper.cpp on audioPath and returns the segments in
// order. Empty segments are dropped.
func (w *WhisperCpp) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	outPrefix := filepath.Join(filepath.Dir(audioPath), "whisper")
	args := []string{
		"-m", w.model,
		"-f", audioPath,
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, w.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(jb, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  text,
		})
	}
	return segments, nil
}
