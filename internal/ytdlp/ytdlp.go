// Package ytdlp fetches remote videos through the yt-dlp binary.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Fetcher downloads a remote video into a local MP4.
type Fetcher interface {
	Fetch(ctx context.Context, url, outputDir string) (string, error)
}

// ExecFetcher shells out to yt-dlp.
type ExecFetcher struct {
	bin string
}

func NewExecFetcher(binPath string) *ExecFetcher {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &ExecFetcher{bin: binPath}
}

// Fetch downloads url as MP4 into outputDir and returns the local
// path.
func (f *ExecFetcher) Fetch(ctx context.Context, url, outputDir string) (string, error) {
	outputPath := filepath.Join(outputDir, "source.mp4")
	cmd := exec.CommandContext(ctx, f.bin,
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"-o", outputPath,
		url,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w\n%s", err, string(b))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("yt-dlp produced no output file: %w", err)
	}
	return outputPath, nil
}
