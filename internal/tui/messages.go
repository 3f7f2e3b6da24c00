package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/library"
	"github.com/mmcdole/cadence/internal/lyrics"
)

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SnapshotMsg carries a new playback snapshot
type SnapshotMsg struct {
	Snapshot domain.Snapshot
}

// QueueRowsMsg carries the committed queue as stored
type QueueRowsMsg struct {
	Rows []domain.QueueRow
}

// LyricsMsg carries the result of a lyrics lookup
type LyricsMsg struct {
	State lyrics.State
}

// LyricsRetryMsg asks for another lookup after a transient failure
type LyricsRetryMsg struct {
	URI string
}

// LyricLineMsg reports a new active lyric line
type LyricLineMsg struct {
	Change lyrics.Change
}

// SleepTimerMsg reports a sleep timer state change
type SleepTimerMsg struct {
	State domain.SleepTimerState
}

// ScanProgressMsg is sent for each progress report during a library scan.
// NextCmd keeps reading until Done.
type ScanProgressMsg struct {
	Scanned int
	Done    bool
	Result  library.SyncResult
	Err     error
	NextCmd tea.Cmd
}

// GestureDoneMsg reports the outcome of a committed drag
type GestureDoneMsg struct {
	Err error
}

// TickMsg refreshes the playback clock
type TickMsg time.Time
