package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/cadence/internal/adapter"
	"github.com/mmcdole/cadence/internal/adapter/audio"
	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/library"
	"github.com/mmcdole/cadence/internal/lyrics"
	"github.com/mmcdole/cadence/internal/playback"
	"github.com/mmcdole/cadence/internal/queue"
	"github.com/mmcdole/cadence/internal/sleeptimer"
	"github.com/mmcdole/cadence/internal/store"
	"github.com/mmcdole/cadence/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		writeConfig bool
		libraryDir  string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&writeConfig, "init", false, "write the default config file and exit")
	flag.StringVar(&libraryDir, "library", "", "music folder to index (overrides config)")
	flag.Parse()

	if showVersion {
		fmt.Printf("cadence %s\n", Version)
		return
	}

	if err := run(writeConfig, libraryDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(writeConfig bool, libraryDir string) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if writeConfig {
		if err := adapter.SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Config written.")
		return nil
	}
	if libraryDir != "" {
		cfg.Library.Dir = libraryDir
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("cadence needs an interactive terminal")
	}

	logger, logFile, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting cadence", "version", Version, "library", cfg.Library.Dir)

	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		logger.Warn("falling back to memory-only store", "dir", cfg.Store.Dir, "error", err)
		if st, err = store.Open(""); err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
	}
	defer st.Close()

	if !audio.Available {
		logger.Warn("built without audio output; playback will be silent")
	}
	orchestrator := playback.New(audio.New(logger), st, logger)
	defer orchestrator.Close()

	var lyricsCache domain.LyricsCache
	if cfg.Lyrics.Cache {
		lyricsCache = st
	}
	lyricsSvc := lyrics.NewService(lyrics.NewSidecarSource(), lyricsCache, logger)

	librarySvc := library.NewService(
		library.NewScanner(cfg.Library.Dir, audio.Supported, audio.Probe),
		st,
		logger,
	)

	queueCtl := queue.NewController(orchestrator, queue.Config{
		SwipeThreshold: cfg.Queue.SwipeThreshold,
		SwipeGrace:     cfg.Queue.SwipeGrace,
	}, nil, logger)
	rows, stopRows := st.Observe()
	defer stopRows()

	sleep := sleeptimer.New(orchestrator, nil, logger)
	defer sleep.Cancel()

	model := tui.NewModel(tui.Deps{
		Player:    orchestrator,
		Library:   librarySvc,
		Lyrics:    lyricsSvc,
		Queue:     queueCtl,
		QueueRows: rows,
		Sleep:     sleep,
		Options: tui.Options{
			LyricsInterval:     cfg.Lyrics.PollInterval,
			SleepMinutes:       cfg.Sleep.DefaultMinutes,
			FinishCurrentTrack: cfg.Sleep.FinishCurrentTrack,
			SwipeThreshold:     cfg.Queue.SwipeThreshold,
		},
		Logger: logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
