package captions

import (
	"strings"
	"testing"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

func TestReanchor_ClampsPartialSegments(t *testing.T) {
	t.Parallel()

	segments := []models.TranscriptSegment{
		{Start: 0, End: 5, Text: "hi"},
		{Start: 5, End: 35, Text: "long monologue"},
		{Start: 35, End: 40, Text: "bye"},
	}

	cues := Reanchor(segments, 10, 32)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d: %+v", len(cues), cues)
	}
	if cues[0].Start != 0 || cues[0].End != 22 {
		t.Fatalf("expected cue [0,22], got [%v,%v]", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "long monologue" {
		t.Fatalf("unexpected cue text %q", cues[0].Text)
	}
}

func TestReanchor_CueBounds(t *testing.T) {
	t.Parallel()

	segments := []models.TranscriptSegment{
		{Start: 8, End: 12, Text: "a"},
		{Start: 12, End: 18, Text: "b"},
		{Start: 17.5, End: 25, Text: "c"}, // slight overlap with previous
		{Start: 28, End: 40, Text: "d"},
	}
	clipStart, clipEnd := 10.0, 32.0
	length := clipEnd - clipStart

	cues := Reanchor(segments, clipStart, clipEnd)
	if len(cues) != 4 {
		t.Fatalf("expected 4 cues, got %d", len(cues))
	}
	prevStart := -1.0
	for _, cue := range cues {
		if cue.Start < 0 || cue.End > length || cue.Start >= cue.End {
			t.Fatalf("cue out of bounds: [%v,%v] with clip length %v", cue.Start, cue.End, length)
		}
		if cue.Start < prevStart {
			t.Fatalf("cues not monotonically ordered: %v after %v", cue.Start, prevStart)
		}
		prevStart = cue.Start
	}
}

func TestReanchor_DropsEmptyText(t *testing.T) {
	t.Parallel()

	cues := Reanchor([]models.TranscriptSegment{{Start: 1, End: 2, Text: "   "}}, 0, 10)
	if len(cues) != 0 {
		t.Fatalf("expected no cues for whitespace-only text, got %d", len(cues))
	}
}

func TestRenderSRT(t *testing.T) {
	t.Parallel()

	got := RenderSRT([]Cue{
		{Start: 0, End: 22, Text: "long monologue"},
		{Start: 61.234, End: 65, Text: "next"},
	})

	want := "1\n00:00:00,000 --> 00:00:22,000\nlong monologue\n\n" +
		"2\n00:01:01,234 --> 00:01:05,000\nnext\n\n"
	if got != want {
		t.Fatalf("unexpected SRT output:\n%s\nwant:\n%s", got, want)
	}
}

func TestStyleOverride_UnknownFallsBackToDefault(t *testing.T) {
	t.Parallel()

	if got := StyleOverride("nonsense"); got != "" {
		t.Fatalf("expected empty override for unknown style, got %q", got)
	}
	if got := StyleOverride("HORMOZI"); !strings.Contains(got, "Bold=1") {
		t.Fatalf("expected hormozi override, got %q", got)
	}
}
