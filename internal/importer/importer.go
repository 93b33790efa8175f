// Package importer brings audio files into the library: it copies them into
// place, fixes the chapter order, probes metadata, resolves a cover, and
// registers the book in the catalog.
package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonhull/audiometa"

	"github.com/shelfplayapp/shelfplay-player/internal/covers"
	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
	"github.com/shelfplayapp/shelfplay-player/internal/id"
	"github.com/shelfplayapp/shelfplay-player/internal/store"
	"github.com/shelfplayapp/shelfplay-player/internal/transcode"
)

// supportedExtensions are the audio formats the importer accepts.
var supportedExtensions = map[string]bool{
	".mp3": true,
	".awb": true,
	".m4a": true,
	".m4b": true,
	".aac": true,
	".wav": true,
	".ogg": true,
}

// Supported reports whether a path has an importable audio extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Importer builds library books from loose audio files.
type Importer struct {
	catalog     store.Catalog
	covers      *covers.Service
	transcoder  *transcode.Transcoder
	logger      *slog.Logger
	libraryPath string
}

// New creates an importer that stores book audio under libraryPath.
func New(catalog store.Catalog, coverSvc *covers.Service, transcoder *transcode.Transcoder, libraryPath string, logger *slog.Logger) (*Importer, error) {
	if libraryPath == "" {
		return nil, domainerrors.Validation("library path cannot be empty")
	}
	if err := os.MkdirAll(libraryPath, 0755); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}
	return &Importer{
		catalog:     catalog,
		covers:      coverSvc,
		transcoder:  transcoder,
		logger:      logger.With("component", "importer"),
		libraryPath: libraryPath,
	}, nil
}

// ImportFile imports a single audio file as a one-chapter book.
func (im *Importer) ImportFile(ctx context.Context, path string) (*domain.Book, error) {
	if !Supported(path) {
		return nil, domainerrors.Validationf("unsupported audio format: %s", filepath.Ext(path))
	}
	title := TitleFromFilename(filepath.Base(path))
	return im.importFiles(ctx, title, []string{path})
}

// ImportDir imports every supported audio file under dir as one book, in
// numeric-aware filename order. The directory name becomes the title.
func (im *Importer) ImportDir(ctx context.Context, dir string) (*domain.Book, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if Supported(path) && !strings.HasPrefix(d.Name(), ".") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}
	if len(files) == 0 {
		return nil, domainerrors.Validationf("no supported audio files in %s", dir)
	}

	title := TitleFromFilename(filepath.Base(dir))
	return im.importFiles(ctx, title, files)
}

func (im *Importer) importFiles(ctx context.Context, title string, files []string) (*domain.Book, error) {
	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book id: %w", err)
	}

	destDir := filepath.Join(im.libraryPath, bookID)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create book directory: %w", err)
	}

	book := &domain.Book{ID: bookID, Title: title}
	for _, src := range files {
		name := filepath.Base(src)
		dest := filepath.Join(destDir, name)
		if err := copyFile(src, dest); err != nil {
			return nil, fmt.Errorf("copy %s: %w", name, err)
		}

		chapterID, err := id.Generate("ch")
		if err != nil {
			return nil, fmt.Errorf("generate chapter id: %w", err)
		}
		chapter := domain.Chapter{
			ID:       chapterID,
			Title:    TitleFromFilename(name),
			Source:   dest,
			Filename: name,
		}
		im.probe(ctx, dest, &chapter, book, len(files) == 1)
		book.Chapters = append(book.Chapters, chapter)
	}

	// The playback order is fixed here, once, and survives any later
	// re-listing of the directory.
	domain.SortChapters(book.Chapters)

	if im.transcoder != nil {
		im.transcoder.ConvertChapters(ctx, book, func(done, total int) {
			im.logger.Info("converting chapters", "book_id", bookID, "done", done, "total", total)
		})
	}
	book.RecalculateTotals()

	if im.covers != nil {
		coverPath, coverHash, err := im.covers.Ensure(ctx, bookID, book.Title, book.Chapters[0].Source)
		if err != nil {
			im.logger.Warn("cover resolution failed, importing without one", "book_id", bookID, "error", err)
		} else {
			book.CoverPath = coverPath
			book.CoverHash = coverHash
		}
	}

	if err := im.catalog.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	im.logger.Info("imported book",
		"book_id", bookID, "title", book.Title, "chapters", book.ChapterCount())
	return book, nil
}

// RemoveBook takes a book out of the library entirely: the catalog entry,
// its checkpoint, the copied audio directory, and the stored cover. The
// catalog entry goes first so a partial failure leaves orphaned files
// rather than a listed book whose audio is gone.
func (im *Importer) RemoveBook(ctx context.Context, bookID string) error {
	book, err := im.catalog.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if err := im.catalog.DeleteBook(ctx, bookID); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(im.libraryPath, bookID)); err != nil {
		return fmt.Errorf("remove book audio: %w", err)
	}
	if im.covers != nil {
		if err := im.covers.Storage().Delete(bookID); err != nil {
			im.logger.Warn("cover removal failed", "book_id", bookID, "error", err)
		}
	}

	im.logger.Info("removed book", "book_id", bookID, "title", book.Title)
	return nil
}

// probe fills the chapter's duration hint and, for the first tagged file,
// book-level metadata. An unparseable file imports with no hint.
func (im *Importer) probe(ctx context.Context, path string, chapter *domain.Chapter, book *domain.Book, singleFile bool) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		im.logger.Debug("metadata probe failed", "path", path, "error", err)
		return
	}
	defer file.Close()

	chapter.DurationHint = file.Audio.Duration.Milliseconds()
	if t := strings.TrimSpace(file.Tags.Title); t != "" {
		chapter.Title = t
	}
	if book.Author == "" {
		book.Author = strings.TrimSpace(file.Tags.Artist)
	}
	// A single-file book takes its title from the album tag when present;
	// the filename is usually track-oriented.
	if singleFile {
		if album := strings.TrimSpace(file.Tags.Album); album != "" {
			book.Title = album
		}
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
