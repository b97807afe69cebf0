// Package ffmpeg wraps the ffmpeg/ffprobe binaries behind the encode,
// cut, and filter operations the pipeline needs.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Toolchain locates the binaries. Zero value uses PATH lookup.
type Toolchain struct {
	FFmpegPath  string
	FFprobePath string
}

func (t Toolchain) ffmpeg() string {
	if t.FFmpegPath != "" {
		return t.FFmpegPath
	}
	return "ffmpeg"
}

func (t Toolchain) ffprobe() string {
	if t.FFprobePath != "" {
		return t.FFprobePath
	}
	return "ffprobe"
}

func (t Toolchain) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %v\nStderr: %s", filepath.Base(name), args[0], err, stderr.String())
	}
	return nil
}

// probeOutput holds the ffprobe fields the pipeline reads.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (t Toolchain) probe(ctx context.Context, inputPath string) (probeOutput, error) {
	cmd := exec.CommandContext(ctx, t.ffprobe(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return probeOutput{}, fmt.Errorf("ffprobe failed: %v\nStderr: %s", err, stderr.String())
	}
	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return probeOutput{}, fmt.Errorf("unmarshal ffprobe output: %v\nOutput: %s", err, stdout.String())
	}
	return out, nil
}

// Duration returns the container duration in seconds.
func (t Toolchain) Duration(ctx context.Context, inputPath string) (float64, error) {
	out, err := t.probe(ctx, inputPath)
	if err != nil {
		return 0, err
	}
	if out.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output for %s", inputPath)
	}
	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %v", out.Format.Duration, err)
	}
	return seconds, nil
}

// Dimensions returns the width and height of the first video stream.
func (t Toolchain) Dimensions(ctx context.Context, inputPath string) (int, int, error) {
	out, err := t.probe(ctx, inputPath)
	if err != nil {
		return 0, 0, err
	}
	for _, s := range out.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no video stream in %s", inputPath)
}

// ExtractAudio writes a 16 kHz mono WAV suitable for speech
// recognition.
func (t Toolchain) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	return t.run(ctx, t.ffmpeg(),
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	)
}

// ExtractClip re-encodes the [start, start+duration) window into
// outputPath. Seeking after -i trades speed for frame accuracy.
func (t Toolchain) ExtractClip(ctx context.Context, inputPath, outputPath string, start, duration float64) error {
	return t.run(ctx, t.ffmpeg(),
		"-y",
		"-i", inputPath,
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		outputPath,
	)
}

// ExtractFrames samples the input at fps frames per second into
// outputDir as numbered JPEGs and returns their paths in order.
func (t Toolchain) ExtractFrames(ctx context.Context, inputPath, outputDir string, fps float64) ([]string, error) {
	pattern := filepath.Join(outputDir, "frame_%05d.jpg")
	err := t.run(ctx, t.ffmpeg(),
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-q:v", "3",
		pattern,
	)
	if err != nil {
		return nil, err
	}
	frames, err := filepath.Glob(filepath.Join(outputDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("list extracted frames: %v", err)
	}
	sort.Strings(frames)
	return frames, nil
}

// ApplyFilter re-encodes inputPath through a -vf filter chain.
func (t Toolchain) ApplyFilter(ctx context.Context, inputPath, outputPath, filterSpec string) error {
	return t.run(ctx, t.ffmpeg(),
		"-y",
		"-i", inputPath,
		"-vf", filterSpec,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		outputPath,
	)
}

// ApplyFilterComplex is ApplyFilter for graphs with multiple chains,
// such as the blurred-background layout.
func (t Toolchain) ApplyFilterComplex(ctx context.Context, inputPath, outputPath, filterGraph string) error {
	return t.run(ctx, t.ffmpeg(),
		"-y",
		"-i", inputPath,
		"-filter_complex", filterGraph,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		outputPath,
	)
}

// BurnSubtitles renders the SRT file onto the video. style is an ASS
// force_style override; empty keeps the renderer defaults.
func (t Toolchain) BurnSubtitles(ctx context.Context, inputPath, outputPath, srtPath, style string) error {
	filter := fmt.Sprintf("subtitles='%s'", escapeFilterPath(srtPath))
	if style != "" {
		filter = fmt.Sprintf("subtitles='%s':force_style='%s'", escapeFilterPath(srtPath), style)
	}
	return t.run(ctx, t.ffmpeg(),
		"-y",
		"-i", inputPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		outputPath,
	)
}

// escapeFilterPath quotes the characters the filter parser treats as
// syntax.
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	return r.Replace(p)
}
