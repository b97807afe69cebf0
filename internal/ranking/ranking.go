// Package ranking turns a timestamped transcript into a small set of
// scored, non-overlapping candidate windows. Scoring judgment is
// delegated to an external oracle; validation and ordering live here.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

// CandidateWindow is a validated viral-moment proposal. Score is
// clamped into [0,100] at the oracle boundary; Category is one of the
// known hook types or the oracle's verbatim label when unrecognized.
type CandidateWindow struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Score     int     `json:"score"`
	Category  string  `json:"category"`
	Rationale string  `json:"reason"`
}

// Known hook-type categories. Unrecognized labels pass through
// untouched so the taxonomy can evolve oracle-side.
var knownCategories = map[string]struct{}{
	"question":    {},
	"hot_take":    {},
	"story":       {},
	"emotional":   {},
	"educational": {},
	"surprise":    {},
}

// Oracle is the external scoring service. Complete returns the raw
// structured-JSON response for a prompt constrained by schema.
// imagePaths, when non-empty, are local frame files attached to the
// request for multimodal scoring.
type Oracle interface {
	Complete(ctx context.Context, prompt string, imagePaths []string, schema map[string]any) ([]byte, error)
}

// Config bounds the ranker's output.
type Config struct {
	MaxClips    int
	MinDuration float64
	MaxDuration float64
	MaxFrames   int
}

// DefaultConfig mirrors the product defaults: at most five clips of
// 20-30 seconds, at most ten frames per multimodal request.
func DefaultConfig() Config {
	return Config{MaxClips: 5, MinDuration: 20, MaxDuration: 30, MaxFrames: 10}
}

// Ranker validates and orders oracle output.
type Ranker struct {
	oracle Oracle
	cfg    Config
	log    *logrus.Logger
}

// New creates a Ranker. Zero config fields fall back to defaults.
func New(oracle Oracle, cfg Config, log *logrus.Logger) *Ranker {
	def := DefaultConfig()
	if cfg.MaxClips <= 0 {
		cfg.MaxClips = def.MaxClips
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = def.MinDuration
	}
	if cfg.MaxDuration <= cfg.MinDuration {
		cfg.MaxDuration = cfg.MinDuration + (def.MaxDuration - def.MinDuration)
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = def.MaxFrames
	}
	return &Ranker{oracle: oracle, cfg: cfg, log: log}
}

// oracleResponse is the strict schema the oracle must satisfy.
type oracleResponse struct {
	Clips []oracleClip `json:"clips"`
}

type oracleClip struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Score    int     `json:"score"`
	Category string  `json:"category"`
	Reason   string  `json:"reason"`
}

// Rank asks the oracle for viral moments in the transcript and returns
// at most MaxClips validated, non-overlapping windows sorted by score
// descending (ties by earlier start). A response that cannot be decoded
// into the schema is a hard failure.
func (r *Ranker) Rank(ctx context.Context, segments []models.TranscriptSegment) ([]CandidateWindow, error) {
	return r.rank(ctx, segments, nil)
}

// RankWithFrames is the multimodal variant: a bounded, stride-sampled
// subset of the provided frames accompanies the transcript.
func (r *Ranker) RankWithFrames(ctx context.Context, segments []models.TranscriptSegment, framePaths []string) ([]CandidateWindow, error) {
	return r.rank(ctx, segments, SampleFrames(framePaths, r.cfg.MaxFrames))
}

func (r *Ranker) rank(ctx context.Context, segments []models.TranscriptSegment, frames []string) ([]CandidateWindow, error) {
	prompt := r.buildPrompt(segments, frames)

	raw, err := r.oracle.Complete(ctx, prompt, frames, r.responseSchema())
	if err != nil {
		return nil, fmt.Errorf("ranking oracle: %w", err)
	}

	var resp oracleResponse
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}

	windows := r.validate(resp.Clips)
	r.log.Infof("Ranker validated %d of %d oracle windows", len(windows), len(resp.Clips))
	return windows, nil
}

// validate applies the candidate contract: start<end, duration within
// the configured band, score clamped into [0,100], no overlaps, output
// sorted by score descending with ties broken by earlier start.
func (r *Ranker) validate(clips []oracleClip) []CandidateWindow {
	var windows []CandidateWindow
	for _, c := range clips {
		if c.End <= c.Start {
			r.log.Warnf("Ranker dropped window with non-positive duration: [%v,%v]", c.Start, c.End)
			continue
		}
		duration := c.End - c.Start
		if duration < r.cfg.MinDuration || duration > r.cfg.MaxDuration {
			r.log.Warnf("Ranker dropped out-of-band window: [%v,%v] (%.1fs)", c.Start, c.End, duration)
			continue
		}
		score := c.Score
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		category := strings.TrimSpace(c.Category)
		if _, known := knownCategories[category]; !known && category != "" {
			r.log.Infof("Ranker keeping unrecognized hook category %q", category)
		}
		windows = append(windows, CandidateWindow{
			Start:     c.Start,
			End:       c.End,
			Score:     score,
			Category:  category,
			Rationale: strings.TrimSpace(c.Reason),
		})
	}

	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].Score != windows[j].Score {
			return windows[i].Score > windows[j].Score
		}
		return windows[i].Start < windows[j].Start
	})

	// Drop lower-ranked windows that overlap an already-kept one.
	var kept []CandidateWindow
	for _, w := range windows {
		overlaps := false
		for _, k := range kept {
			if w.End > k.Start && w.Start < k.End {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		kept = append(kept, w)
		if len(kept) >= r.cfg.MaxClips {
			break
		}
	}
	return kept
}

func (r *Ranker) buildPrompt(segments []models.TranscriptSegment, frames []string) string {
	var b strings.Builder
	b.WriteString("You are a professional social media editor. Analyze the following transcript from a video. ")
	fmt.Fprintf(&b, "Identify the %d most engaging, self-contained hooks or highlights suitable for a short vertical clip. ", r.cfg.MaxClips)
	fmt.Fprintf(&b, "Each clip must be between %.0f and %.0f seconds long and clips must not overlap. ", r.cfg.MinDuration, r.cfg.MaxDuration)
	b.WriteString("Score each clip 0-100 for virality and label its hook category. ")
	b.WriteString("Ensure the entire hook is captured in the start and end times.\n\nTranscript:\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "%.2f - %.2f: %s\n", s.Start, s.End, s.Text)
	}
	if len(frames) > 0 {
		fmt.Fprintf(&b, "\n%d representative frames accompany this request; use them to judge visual energy.\n", len(frames))
	}
	return b.String()
}

func (r *Ranker) responseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"clips": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"start":    map[string]any{"type": "number"},
						"end":      map[string]any{"type": "number"},
						"score":    map[string]any{"type": "integer"},
						"category": map[string]any{"type": "string"},
						"reason":   map[string]any{"type": "string"},
					},
					"required":             []string{"start", "end", "score", "category", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"clips"},
		"additionalProperties": false,
	}
}

// SampleFrames reduces a frame list to at most max entries using a
// fixed stride, bounding oracle request size regardless of video
// length: stride = max(1, total/max).
func SampleFrames(paths []string, max int) []string {
	if max <= 0 || len(paths) == 0 {
		return nil
	}
	stride := len(paths) / max
	if stride < 1 {
		stride = 1
	}
	var out []string
	for i := 0; i < len(paths); i += stride {
		out = append(out, paths[i])
		if len(out) >= max {
			break
		}
	}
	return out
}
