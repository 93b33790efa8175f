package store

import (
	"context"
	"encoding/json/v2"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
)

// Sentinel errors for catalog operations.
var (
	ErrBookNotFound = domainerrors.NotFound("book not found")
)

// CreateBook stores a new book in the catalog.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	return s.set([]byte(bookPrefix+book.ID), book)
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var book domain.Book
	err := s.get([]byte(bookPrefix+bookID), &book)
	if domainerrors.Is(err, domainerrors.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns all books in the catalog.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var books []*domain.Book

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(bookPrefix)); it.ValidForPrefix([]byte(bookPrefix)); it.Next() {
			var book domain.Book
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			})
			if err != nil {
				continue // Skip corrupt entries
			}
			books = append(books, &book)
		}
		return nil
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "list books")
	}

	return books, nil
}

// UpdateBook overwrites an existing book.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Verify it exists so updates don't silently create phantom entries.
	if _, err := s.GetBook(ctx, book.ID); err != nil {
		return err
	}

	book.UpdatedAt = time.Now()
	return s.set([]byte(bookPrefix+book.ID), book)
}

// DeleteBook removes a book from the catalog along with its checkpoint.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.delete([]byte(bookPrefix + bookID)); err != nil {
		return err
	}
	// Orphaned checkpoints would resurrect stale resume positions if the
	// same book is ever re-imported under the same ID.
	return s.DeleteCheckpoint(ctx, bookID)
}
