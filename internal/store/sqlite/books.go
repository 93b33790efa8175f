package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
	"github.com/shelfplayapp/shelfplay-player/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, title, author, description, cover_path, cover_hash,
	total_duration, created_at, updated_at`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Chapters are loaded separately.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book
	var createdAt, updatedAt string

	err := scanner.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.CoverPath,
		&b.CoverHash,
		&b.TotalDuration,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// CreateBook stores a new book and its chapter rows in one transaction.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, title, author, description, cover_path, cover_hash, total_duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author, book.Description, book.CoverPath, book.CoverHash,
		book.TotalDuration, formatTime(book.CreatedAt), formatTime(book.UpdatedAt))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "insert book")
	}

	if err := insertChapters(ctx, tx, book); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "commit book")
	}
	return nil
}

// GetBook retrieves a book and its ordered chapters.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, bookID)

	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "get book")
	}

	book.Chapters, err = s.chaptersForBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// ListBooks returns all books with their chapters.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY updated_at DESC`)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "list books")
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "scan book")
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "iterate books")
	}

	for _, book := range books {
		book.Chapters, err = s.chaptersForBook(ctx, book.ID)
		if err != nil {
			return nil, err
		}
	}
	return books, nil
}

// UpdateBook overwrites an existing book, replacing its chapter rows.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	book.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE books SET title = ?, author = ?, description = ?, cover_path = ?,
			cover_hash = ?, total_duration = ?, updated_at = ?
		WHERE id = ?`,
		book.Title, book.Author, book.Description, book.CoverPath, book.CoverHash,
		book.TotalDuration, formatTime(book.UpdatedAt), book.ID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "update book")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "rows affected")
	}
	if affected == 0 {
		return store.ErrBookNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE book_id = ?`, book.ID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "clear chapters")
	}
	if err := insertChapters(ctx, tx, book); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "commit book")
	}
	return nil
}

// DeleteBook removes a book, its chapters (via cascade), and its checkpoint.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, bookID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "delete book")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE book_id = ?`, bookID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "delete checkpoint")
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "commit delete")
	}
	return nil
}

// chaptersForBook loads the ordered chapter sequence for a book.
func (s *Store) chaptersForBook(ctx context.Context, bookID string) ([]domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, source, filename, duration_hint
		FROM chapters WHERE book_id = ? ORDER BY idx`, bookID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "query chapters")
	}
	defer rows.Close()

	var chapters []domain.Chapter
	for rows.Next() {
		var ch domain.Chapter
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Source, &ch.Filename, &ch.DurationHint); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "scan chapter")
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "iterate chapters")
	}
	return chapters, nil
}

// insertChapters writes the chapter rows for a book inside tx, preserving order.
func insertChapters(ctx context.Context, tx *sql.Tx, book *domain.Book) error {
	for i, ch := range book.Chapters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chapters (book_id, idx, id, title, source, filename, duration_hint)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			book.ID, i, ch.ID, ch.Title, ch.Source, ch.Filename, ch.DurationHint)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodePersistence,
				fmt.Sprintf("insert chapter %d", i))
		}
	}
	return nil
}
