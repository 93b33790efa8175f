package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors an inbox directory and imports whatever lands in it.
// Loose audio files become single-chapter books; subdirectories become
// multi-chapter books once their contents settle.
//
// Events are debounced per target so a file still being copied in is not
// imported half-written.
type Watcher struct {
	importer  *Importer
	logger    *slog.Logger
	inboxPath string
	debounce  time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates an inbox watcher. Start must be called before events
// flow.
func NewWatcher(importer *Importer, inboxPath string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(inboxPath, 0755); err != nil {
		return nil, fmt.Errorf("create inbox directory: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		importer:  importer,
		logger:    logger.With("component", "inbox"),
		inboxPath: filepath.Clean(inboxPath),
		debounce:  debounce,
		fsw:       fsw,
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the inbox.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.inboxPath); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("watching inbox", "path", w.inboxPath)
	return nil
}

// Stop shuts the watcher down and cancels pending imports.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
	w.logger.Info("inbox watcher stopped")
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("inbox watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		// Watch new subdirectories so writes inside them keep resetting
		// the debounce.
		if err := w.fsw.Add(event.Name); err != nil {
			w.logger.Warn("failed to watch inbox subdirectory", "path", event.Name, "error", err)
		}
		w.schedule(event.Name)
		return
	}

	// A file inside a subdirectory belongs to that directory's book.
	dir := filepath.Dir(event.Name)
	if dir != w.inboxPath {
		w.schedule(dir)
		return
	}
	if Supported(event.Name) {
		w.schedule(event.Name)
	}
}

// schedule arms (or re-arms) the debounce timer for an import target.
func (w *Watcher) schedule(target string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[target]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[target] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, target)
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}
		w.runImport(target)
	})
}

func (w *Watcher) runImport(target string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	info, err := os.Stat(target)
	if err != nil {
		// Removed before the debounce elapsed.
		return
	}

	var importErr error
	if info.IsDir() {
		_, importErr = w.importer.ImportDir(ctx, target)
	} else {
		_, importErr = w.importer.ImportFile(ctx, target)
	}
	if importErr != nil {
		w.logger.Error("inbox import failed", "target", target, "error", importErr)
		return
	}

	// The inbox is a staging area; imported content was copied into the
	// library, so the original can go.
	if err := os.RemoveAll(target); err != nil {
		w.logger.Warn("failed to clean imported inbox entry", "target", target, "error", err)
	}
}
