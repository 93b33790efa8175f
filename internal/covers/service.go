package covers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simonhull/audiometa"
)

// Service resolves a cover for each imported book: embedded artwork when
// the audio carries one, a generated placeholder otherwise.
type Service struct {
	storage *Storage
	logger  *slog.Logger
}

// NewService creates a cover service.
func NewService(storage *Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With("component", "covers"),
	}
}

// Storage exposes the underlying cover storage.
func (s *Service) Storage() *Storage { return s.storage }

// Ensure stores a cover for the book and returns its path and BlurHash.
// audioPath is probed for embedded artwork; when none is found (or the
// probe fails) a deterministic cover is generated from the title. An
// already stored cover is reused as-is.
func (s *Service) Ensure(ctx context.Context, bookID, title, audioPath string) (string, string, error) {
	if s.storage.Exists(bookID) {
		data, err := s.storage.Get(bookID)
		if err != nil {
			return "", "", err
		}
		hash, err := ComputeBlurHash(data)
		if err != nil {
			return "", "", err
		}
		return s.storage.Path(bookID), hash, nil
	}

	data := s.extract(ctx, audioPath)
	if data == nil {
		generated, err := Generate(title)
		if err != nil {
			return "", "", fmt.Errorf("generate cover: %w", err)
		}
		data = generated
		s.logger.Debug("generated placeholder cover", "book_id", bookID, "title", title)
	}

	if err := s.storage.Save(bookID, data); err != nil {
		return "", "", err
	}

	hash, err := ComputeBlurHash(data)
	if err != nil {
		return "", "", err
	}
	return s.storage.Path(bookID), hash, nil
}

// extract returns embedded artwork bytes, or nil when the file has none or
// cannot be probed.
func (s *Service) extract(ctx context.Context, audioPath string) []byte {
	if audioPath == "" {
		return nil
	}

	file, err := audiometa.OpenContext(ctx, audioPath)
	if err != nil {
		s.logger.Debug("cover probe failed", "path", audioPath, "error", err)
		return nil
	}
	defer file.Close()

	artworks, err := file.ExtractArtwork()
	if err != nil {
		s.logger.Warn("failed to extract artwork", "path", audioPath, "error", err)
		return nil
	}
	if len(artworks) == 0 {
		return nil
	}

	s.logger.Debug("extracted embedded cover", "path", audioPath, "size", len(artworks[0].Data))
	return artworks[0].Data
}
