// Package main provides the entry point for the Shelfplay player shell.
//
// With no arguments it runs as a library service: the inbox is watched and
// new audio is imported as it lands. Subcommands:
//
//	player list           list the library
//	player play <book>    play a book, resuming saved progress
//	player play! <book>   play a book from the beginning
//	player remove <book>  remove a book, its audio, and its cover
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	"github.com/shelfplayapp/shelfplay-player/internal/di"
	"github.com/shelfplayapp/shelfplay-player/internal/di/providers"
	"github.com/shelfplayapp/shelfplay-player/internal/importer"
	"github.com/shelfplayapp/shelfplay-player/internal/logger"
	"github.com/shelfplayapp/shelfplay-player/internal/player"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap player: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// config.LoadConfig already ran flag.Parse; what's left is ours.
	args := flag.Args()

	var runErr error
	switch {
	case len(args) == 0:
		runErr = runService(injector, log)
	case args[0] == "list":
		runErr = runList(injector)
	case args[0] == "play" && len(args) > 1:
		runErr = runPlay(injector, log, args[1], true)
	case args[0] == "play!" && len(args) > 1:
		runErr = runPlay(injector, log, args[1], false)
	case args[0] == "remove" && len(args) > 1:
		runErr = runRemove(injector, args[1])
	default:
		fmt.Fprintf(os.Stderr, "Usage: player [list | play <book-id> | play! <book-id> | remove <book-id>]\n")
		os.Exit(2)
	}

	log.Info("Shutting down gracefully...")
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	if runErr != nil {
		log.Error("Exiting with error", "error", runErr)
		os.Exit(1)
	}
}

// runService keeps the importer and inbox watcher alive until a signal.
func runService(injector *do.RootScope, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}

func runList(injector *do.RootScope) error {
	lib := do.MustInvoke[*providers.LibraryHandle](injector)

	books, err := lib.ListBooks(context.Background())
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("Library is empty. Drop audio into the inbox to import.")
		return nil
	}
	for _, b := range books {
		fmt.Printf("%s  %-40s %s  (%d chapters, %s)\n",
			b.ID, b.Title, b.Author, b.ChapterCount(),
			(time.Duration(b.TotalDuration) * time.Millisecond).Round(time.Second))
	}
	return nil
}

func runRemove(injector *do.RootScope, bookID string) error {
	im := do.MustInvoke[*importer.Importer](injector)

	if err := im.RemoveBook(context.Background(), bookID); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", bookID)
	return nil
}

// runPlay opens a playback session and renders its state until a signal.
func runPlay(injector *do.RootScope, log *logger.Logger, bookID string, resume bool) error {
	sessions := do.MustInvoke[*providers.Sessions](injector)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		orch *player.Orchestrator
		err  error
	)
	if resume {
		orch, err = sessions.Open(ctx, bookID)
	} else {
		orch, err = sessions.OpenFresh(ctx, bookID)
	}
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := orch.TogglePlayPause(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	render := time.NewTicker(time.Second)
	defer render.Stop()

	for {
		select {
		case <-quit:
			fmt.Println()
			return nil
		case n := <-orch.Notices():
			log.Warn("Playback notice", "code", n.Code, "message", n.Message)
		case <-render.C:
			s := orch.Snapshot()
			fmt.Printf("\r[%s] ch %d  %s / %s  %.2fx   ",
				s.Transport,
				s.ChapterIndex+1,
				formatMs(s.PositionMs),
				formatMs(s.DurationMs),
				s.PlaybackRate)
		}
	}
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
