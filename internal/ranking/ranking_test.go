package ranking

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/models"
)

type fakeOracle struct {
	response []byte
	err      error
	prompts  []string
	images   [][]string
}

func (f *fakeOracle) Complete(_ context.Context, prompt string, imagePaths []string, _ map[string]any) ([]byte, error) {
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, imagePaths)
	return f.response, f.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testSegments() []models.TranscriptSegment {
	return []models.TranscriptSegment{
		{Start: 0, End: 30, Text: "intro"},
		{Start: 30, End: 90, Text: "the good part"},
	}
}

func TestRank_SortsByScoreThenStart(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[
		{"start":100,"end":125,"score":80,"category":"story","reason":"b"},
		{"start":10,"end":35,"score":95,"category":"question","reason":"a"},
		{"start":40,"end":65,"score":80,"category":"hot_take","reason":"c"}
	]}`)}
	r := New(oracle, Config{}, testLogger())

	got, err := r.Rank(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(got))
	}
	if got[0].Score != 95 {
		t.Fatalf("expected highest score first, got %+v", got[0])
	}
	// Tie on 80: earlier start wins.
	if got[1].Start != 40 || got[2].Start != 100 {
		t.Fatalf("expected tie broken by earlier start, got %v then %v", got[1].Start, got[2].Start)
	}
}

func TestRank_ClampsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[
		{"start":0,"end":25,"score":170,"category":"story","reason":""},
		{"start":30,"end":55,"score":-5,"category":"story","reason":""}
	]}`)}
	r := New(oracle, Config{}, testLogger())

	got, err := r.Rank(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected clamped windows kept, got %d", len(got))
	}
	if got[0].Score != 100 || got[1].Score != 0 {
		t.Fatalf("expected scores clamped to [0,100], got %d and %d", got[0].Score, got[1].Score)
	}
}

func TestRank_RejectsOutOfBandDurations(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[
		{"start":10,"end":50,"score":90,"category":"story","reason":"too long"},
		{"start":60,"end":70,"score":90,"category":"story","reason":"too short"},
		{"start":100,"end":125,"score":50,"category":"story","reason":"in band"}
	]}`)}
	r := New(oracle, Config{MinDuration: 20, MaxDuration: 30}, testLogger())

	got, err := r.Rank(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 1 || got[0].Start != 100 {
		t.Fatalf("expected only the in-band window, got %+v", got)
	}
}

func TestRank_DropsOverlapsKeepingHigherScore(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[
		{"start":10,"end":35,"score":90,"category":"story","reason":""},
		{"start":30,"end":55,"score":80,"category":"story","reason":""},
		{"start":60,"end":85,"score":70,"category":"story","reason":""}
	]}`)}
	r := New(oracle, Config{}, testLogger())

	got, err := r.Rank(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the overlapping lower-scored window dropped, got %+v", got)
	}
	if got[0].Start != 10 || got[1].Start != 60 {
		t.Fatalf("unexpected kept windows %+v", got)
	}
}

func TestRank_MalformedResponseIsError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "I think the best clips are..."},
		{name: "wrong shape", response: `{"highlights":[]}`},
		{name: "wrong types", response: `{"clips":[{"start":"ten"}]}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := New(&fakeOracle{response: []byte(tc.response)}, Config{}, testLogger())
			if _, err := r.Rank(context.Background(), testSegments()); err == nil {
				t.Fatalf("expected decode error for %q", tc.response)
			}
		})
	}
}

func TestRank_OracleErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("oracle down")
	r := New(&fakeOracle{err: wantErr}, Config{}, testLogger())
	if _, err := r.Rank(context.Background(), testSegments()); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped oracle error, got %v", err)
	}
}

func TestRank_EmptyClipListIsNotAnError(t *testing.T) {
	t.Parallel()

	r := New(&fakeOracle{response: []byte(`{"clips":[]}`)}, Config{}, testLogger())
	got, err := r.Rank(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no windows, got %+v", got)
	}
}

func TestRank_KeepsUnrecognizedCategoryVerbatim(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[
		{"start":0,"end":25,"score":50,"category":"brand_new_taxonomy","reason":""}
	]}`)}
	r := New(oracle, Config{}, testLogger())

	got, err := r.Rank(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 1 || got[0].Category != "brand_new_taxonomy" {
		t.Fatalf("expected verbatim category, got %+v", got)
	}
}

// RankWithFrames must hand the stride-sampled frames to the oracle,
// not just mention them in the prompt.
func TestRankWithFrames_ConveysSampledFramesToOracle(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[]}`)}
	r := New(oracle, Config{MaxFrames: 2}, testLogger())

	frames := []string{"f1.jpg", "f2.jpg", "f3.jpg", "f4.jpg"}
	if _, err := r.RankWithFrames(context.Background(), testSegments(), frames); err != nil {
		t.Fatalf("rank with frames: %v", err)
	}

	if len(oracle.images) != 1 {
		t.Fatalf("expected one oracle call, got %d", len(oracle.images))
	}
	// stride = 4/2 = 2.
	want := []string{"f1.jpg", "f3.jpg"}
	if !reflect.DeepEqual(oracle.images[0], want) {
		t.Fatalf("expected sampled frames %v attached, got %v", want, oracle.images[0])
	}
}

func TestRank_PassesNoFramesToOracle(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: []byte(`{"clips":[]}`)}
	r := New(oracle, Config{}, testLogger())

	if _, err := r.Rank(context.Background(), testSegments()); err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(oracle.images) != 1 || oracle.images[0] != nil {
		t.Fatalf("expected transcript-only call, got %v", oracle.images)
	}
}

func TestSampleFrames(t *testing.T) {
	t.Parallel()

	paths := make([]string, 25)
	for i := range paths {
		paths[i] = string(rune('a' + i))
	}

	got := SampleFrames(paths, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 sampled frames, got %d", len(got))
	}
	// stride = 25/10 = 2: every other frame from the start.
	want := []string{"a", "c", "e", "g", "i", "k", "m", "o", "q", "s"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected sample %v, want %v", got, want)
	}

	if got := SampleFrames(paths[:3], 10); len(got) != 3 {
		t.Fatalf("expected all frames when under the cap, got %d", len(got))
	}
	if got := SampleFrames(nil, 10); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
