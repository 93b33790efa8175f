// Package covers produces and stores book cover images: embedded artwork
// extracted from the audio when present, a deterministic generated cover
// otherwise, plus a BlurHash placeholder for either.
package covers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages cover files on disk. Thread-safe.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates cover storage at path, creating the directory if
// needed.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("covers path cannot be empty")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}

	return &Storage{basePath: path}, nil
}

// Path returns the on-disk path for a book's cover.
func (s *Storage) Path(bookID string) string {
	return filepath.Join(s.basePath, bookID+".jpg")
}

// Save stores cover data for a book.
func (s *Storage) Save(bookID string, data []byte) error {
	if bookID == "" {
		return fmt.Errorf("book ID cannot be empty")
	}
	if len(data) == 0 {
		return fmt.Errorf("cover data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(bookID), data, 0644); err != nil {
		return fmt.Errorf("failed to write cover file: %w", err)
	}
	return nil
}

// Get retrieves cover data for a book.
func (s *Storage) Get(bookID string) ([]byte, error) {
	if bookID == "" {
		return nil, fmt.Errorf("book ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(bookID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cover not found for %s: %w", bookID, err)
		}
		return nil, fmt.Errorf("failed to read cover file: %w", err)
	}
	return data, nil
}

// Exists checks whether a cover is stored for a book.
func (s *Storage) Exists(bookID string) bool {
	if bookID == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(bookID))
	return err == nil
}

// Delete removes a book's cover. Absence is not an error.
func (s *Storage) Delete(bookID string) error {
	if bookID == "" {
		return fmt.Errorf("book ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(bookID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cover file: %w", err)
	}
	return nil
}

// Hash computes the SHA256 of a stored cover, hex-encoded, for cache
// validation.
func (s *Storage) Hash(bookID string) (string, error) {
	if bookID == "" {
		return "", fmt.Errorf("book ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.Path(bookID))
	if err != nil {
		return "", fmt.Errorf("failed to open cover file: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to hash cover file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
