// Package media shells out to ffmpeg to standardize audio encodings.
// Everything downstream (transcription jobs, the embedding model) expects
// 16 kHz mono 16-bit PCM WAV.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// AcceptableTypes are the media extensions the pipeline accepts.
var AcceptableTypes = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".avi":  true,
	".webm": true,
}

// Converter converts media files to the standard WAV encoding.
type Converter interface {
	// ToWAV converts inputPath to 16 kHz mono 16-bit PCM WAV in outDir
	// and returns the output path.
	ToWAV(ctx context.Context, inputPath, outDir string) (string, error)
}

// FFmpeg implements Converter using the ffmpeg binary.
type FFmpeg struct {
	// Binary is the ffmpeg executable; defaults to "ffmpeg" on PATH.
	Binary string
}

var _ Converter = (*FFmpeg)(nil)

// NewFFmpeg creates an FFmpeg converter.
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{Binary: binary}
}

// CheckExtension returns an error when the file's extension is not an
// acceptable media type.
func CheckExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !AcceptableTypes[ext] {
		return fmt.Errorf("unsupported file type %q", ext)
	}
	return nil
}

// IsWAV reports whether the file already carries the standard extension.
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// ToWAV converts inputPath to the standard encoding. The output file is
// named after the input with a "_converted.wav" suffix.
func (f *FFmpeg) ToWAV(ctx context.Context, inputPath, outDir string) (string, error) {
	if outDir == "" {
		outDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outDir, base+"_converted.wav")

	// ffmpeg -y -i input -ac 1 -ar 16000 -acodec pcm_s16le output
	cmd := exec.CommandContext(ctx, f.Binary,
		"-y", "-i", inputPath,
		"-ac", "1", "-ar", "16000",
		"-acodec", "pcm_s16le",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg conversion of %s failed: %w: %s",
			inputPath, err, lastLine(stderr.String()))
	}
	return out, nil
}

// lastLine trims ffmpeg's noisy stderr down to its final line, which is
// where the actual error message lives.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
