// Package transcode converts audio the playback adapter cannot seek in.
// AMR-WB chapters are rewritten to MP3 once at import; everything else
// passes through untouched.
package transcode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	"github.com/shelfplayapp/shelfplay-player/internal/engine"
)

// Config controls the transcoder.
type Config struct {
	// Enabled turns transcoding on. When off, non-seekable sources are
	// imported as-is and seeking in them stays unavailable.
	Enabled bool
	// FFmpegPath overrides PATH lookup of the ffmpeg binary.
	FFmpegPath string
	// CachePath is where converted files live, keyed by source content
	// hash.
	CachePath string
}

// Transcoder rewrites non-seekable sources to MP3 via ffmpeg. Converted
// output is cached by source hash, so re-importing the same file never
// transcodes twice.
type Transcoder struct {
	logger     *slog.Logger
	config     Config
	ffmpegPath string
}

// New creates a transcoder. When transcoding is enabled a missing ffmpeg
// binary is an error; when disabled it is only logged.
func New(cfg Config, logger *slog.Logger) (*Transcoder, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			if cfg.Enabled {
				return nil, fmt.Errorf("ffmpeg not found and transcoding is enabled: %w", err)
			}
			logger.Warn("ffmpeg not found, transcoding disabled")
		}
		ffmpegPath = path
	}

	if err := os.MkdirAll(cfg.CachePath, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	return &Transcoder{
		logger:     logger.With("component", "transcode"),
		config:     cfg,
		ffmpegPath: ffmpegPath,
	}, nil
}

// Available reports whether conversion can actually run.
func (t *Transcoder) Available() bool {
	return t.config.Enabled && t.ffmpegPath != ""
}

// NeedsTranscode reports whether a source would benefit from conversion.
func (t *Transcoder) NeedsTranscode(source string) bool {
	return !engine.SeekableSource(source)
}

// Convert rewrites source to MP3 and returns the cached output path. A
// previous conversion of identical content is reused.
func (t *Transcoder) Convert(ctx context.Context, source string) (string, error) {
	if !t.Available() {
		return "", fmt.Errorf("transcoding is not available")
	}

	hash, err := hashFile(source)
	if err != nil {
		return "", fmt.Errorf("hash source: %w", err)
	}

	outputPath := filepath.Join(t.config.CachePath, hash+".mp3")
	if _, err := os.Stat(outputPath); err == nil {
		t.logger.Debug("transcode cache hit", "source", source, "output", outputPath)
		return outputPath, nil
	}

	partPath := outputPath + ".part"
	args := []string{
		"-i", source,
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "2",
		"-f", "mp3",
		"-y", partPath,
	}

	t.logger.Info("transcoding", "source", source, "output", outputPath)
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, tail(out))
	}

	info, err := os.Stat(partPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("ffmpeg produced no output")
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("finalize output: %w", err)
	}
	return outputPath, nil
}

// ConvertChapters rewrites every non-seekable chapter of book in place,
// reporting progress after each chapter. A failed conversion keeps the
// original source and carries on; the chapter just stays unseekable.
func (t *Transcoder) ConvertChapters(ctx context.Context, book *domain.Book, progress func(done, total int)) {
	var targets []int
	for i := range book.Chapters {
		if t.NeedsTranscode(book.Chapters[i].Source) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return
	}
	if !t.Available() {
		t.logger.Warn("non-seekable chapters imported without conversion",
			"book_id", book.ID, "chapters", len(targets))
		return
	}

	for done, i := range targets {
		ch := &book.Chapters[i]
		output, err := t.Convert(ctx, ch.Source)
		if err != nil {
			t.logger.Warn("chapter conversion failed, keeping original",
				"book_id", book.ID, "source", ch.Source, "error", err)
		} else {
			ch.Source = output
		}
		if progress != nil {
			progress(done+1, len(targets))
		}
	}
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// tail trims ffmpeg output to the last few hundred bytes, which is where
// the actual error lands.
func tail(out []byte) string {
	const keep = 400
	if len(out) <= keep {
		return string(out)
	}
	return "..." + string(out[len(out)-keep:])
}
