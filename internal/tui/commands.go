package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/library"
	"github.com/mmcdole/cadence/internal/lyrics"
	"github.com/mmcdole/cadence/internal/queue"
)

const (
	tickInterval    = 250 * time.Millisecond
	lyricsTimeout   = 15 * time.Second
	lyricsRetryWait = 30 * time.Second
	gestureTimeout  = 5 * time.Second
	scanTimeout     = 10 * time.Minute
)

// Command factories for async operations

// waitForSnapshot reads the next snapshot from a subscription
func waitForSnapshot(ch <-chan domain.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// waitForRows reads the next committed queue from the store observer
func waitForRows(ch <-chan []domain.QueueRow) tea.Cmd {
	return func() tea.Msg {
		rows, ok := <-ch
		if !ok {
			return nil
		}
		return QueueRowsMsg{Rows: rows}
	}
}

func waitForLine(ch <-chan lyrics.Change) tea.Cmd {
	return func() tea.Msg {
		return LyricLineMsg{Change: <-ch}
	}
}

func waitForSleep(ch <-chan domain.SleepTimerState) tea.Cmd {
	return func() tea.Msg {
		return SleepTimerMsg{State: <-ch}
	}
}

// FetchLyricsCmd looks up lyrics for track. refresh skips the cache.
func FetchLyricsCmd(svc *lyrics.Service, track domain.Track, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lyricsTimeout)
		defer cancel()

		if refresh {
			return LyricsMsg{State: svc.Refresh(ctx, track)}
		}
		return LyricsMsg{State: svc.Fetch(ctx, track)}
	}
}

func retryLyricsCmd(uri string) tea.Cmd {
	return tea.Tick(lyricsRetryWait, func(time.Time) tea.Msg {
		return LyricsRetryMsg{URI: uri}
	})
}

// ScanLibraryCmd loads the library, from cache unless rescan is set, and
// pumps progress to the UI one message at a time
func ScanLibraryCmd(svc *library.Service, rescan bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)

		progressCh := make(chan int, 1)
		doneCh := make(chan ScanProgressMsg, 1)

		go func() {
			defer cancel()
			report := func(done int) { offerLatest(progressCh, done) }

			var (
				res library.SyncResult
				err error
			)
			if rescan {
				res, err = svc.Rescan(ctx, report)
			} else {
				res, err = svc.Load(ctx, report)
			}
			doneCh <- ScanProgressMsg{Scanned: res.Count, Done: true, Result: res, Err: err}
		}()

		return readScanProgress(progressCh, doneCh)
	}
}

// readScanProgress returns the next progress report, with a continuation
// attached, or the final result
func readScanProgress(progressCh <-chan int, doneCh <-chan ScanProgressMsg) tea.Msg {
	select {
	case n := <-progressCh:
		return ScanProgressMsg{
			Scanned: n,
			NextCmd: func() tea.Msg { return readScanProgress(progressCh, doneCh) },
		}
	case msg := <-doneCh:
		return msg
	}
}

// commitGestureCmd drops the dragged row at its current target
func commitGestureCmd(g *queue.Gesture) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), gestureTimeout)
		defer cancel()
		return GestureDoneMsg{Err: g.End(ctx)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// offerLatest replaces any unread value in a one-slot channel
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
