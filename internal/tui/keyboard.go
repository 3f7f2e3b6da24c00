package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/lyrics"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	if m.gesture != nil {
		return m.handleDragKey(msg)
	}

	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.shutdown()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.NextPane):
		m.pane = (m.pane + 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.PrevPane):
		m.pane = (m.pane + paneCount - 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		if m.pane == PaneLyrics {
			return m, nil
		}
		m.filtering = true
		m.filter.SetValue(m.currentQuery())
		m.filter.CursorEnd()
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Escape):
		m.clearFilter()
		return m, nil

	// Transport
	case key.Matches(msg, m.keys.Toggle):
		m.deps.Player.TogglePlayback()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.deps.Player.SkipNext()
		return m, nil

	case key.Matches(msg, m.keys.Previous):
		m.deps.Player.SkipPrevious()
		return m, nil

	case key.Matches(msg, m.keys.SeekForward):
		m.deps.Player.SeekToPosition(m.deps.Player.Position() + seekStep)
		return m, nil

	case key.Matches(msg, m.keys.SeekBack):
		m.deps.Player.SeekToPosition(m.deps.Player.Position() - seekStep)
		return m, nil

	case key.Matches(msg, m.keys.Shuffle):
		m.deps.Player.SetShuffle(!m.snap.Shuffle)
		return m, nil

	case key.Matches(msg, m.keys.Repeat):
		m.deps.Player.CycleRepeat()
		return m, nil

	// Lyrics and sleep
	case key.Matches(msg, m.keys.RefreshLyrics):
		if m.snap.Track == nil {
			return m, nil
		}
		m.sync.Stop()
		m.lyricsState = lyrics.State{URI: m.lyricsURI, Status: lyrics.StatusLoading}
		m.lines = nil
		return m, FetchLyricsCmd(m.deps.Lyrics, *m.snap.Track, true)

	case key.Matches(msg, m.keys.Sleep):
		return m.scheduleSleep()

	case key.Matches(msg, m.keys.CancelSleep):
		if m.deps.Sleep != nil {
			m.deps.Sleep.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		if m.scanning {
			return m, nil
		}
		m.scanning = true
		m.scanned = 0
		return m, ScanLibraryCmd(m.deps.Library, true)
	}

	switch m.pane {
	case PaneLibrary:
		return m.handleLibraryKey(msg)
	case PaneQueue:
		return m.handleQueueKey(msg)
	}
	return m, nil
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := m.selectedTrack()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Enter):
		m.deps.Player.SetQueueAndPlay(m.tracks, m.libCursor)

	case key.Matches(msg, m.keys.PlayAlbum):
		album := m.deps.Library.Album(t)
		_, start, found := lo.FindIndexOf(album, func(a domain.Track) bool { return a.URI == t.URI })
		if !found {
			start = 0
		}
		m.deps.Player.SetQueueAndPlay(album, start)

	case key.Matches(msg, m.keys.PlayNext):
		m.deps.Player.PlayNext([]domain.Track{t})
		m.status = fmt.Sprintf("%q plays next", t.DisplayTitle())
	}
	return m, nil
}

func (m Model) handleQueueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		// Replaying the queue from a row restarts playback at that slot
		idx, ok := m.queueIndex()
		if !ok {
			return m, nil
		}
		tracks := lo.Map(m.rows, func(r domain.QueueRow, _ int) domain.Track { return r.Track() })
		m.deps.Player.SetQueueAndPlay(tracks, idx)

	case key.Matches(msg, m.keys.Grab):
		if m.queueFilter != nil {
			m.status = "clear the filter to reorder"
			return m, nil
		}
		g, err := m.deps.Queue.Begin(m.queueCursor)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.gesture = g

	case key.Matches(msg, m.keys.Remove):
		idx, ok := m.queueIndex()
		if !ok {
			return m, nil
		}
		s, err := m.deps.Queue.BeginSwipe(idx)
		if err != nil {
			m.err = err
			return m, nil
		}
		s.Drag(math.Max(m.deps.Options.SwipeThreshold, 1))
		s.Release()
		m.swipe = s
		m.status = "removing row, u to undo"

	case key.Matches(msg, m.keys.Undo):
		if m.swipe != nil {
			m.swipe.Cancel()
			m.swipe = nil
			m.status = "removal undone"
		}
	}
	return m, nil
}

// handleDragKey routes keys while a row is being carried
func (m Model) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.gesture
	switch {
	case key.Matches(msg, m.keys.Up):
		g.Hover(g.Target() - 1)
	case key.Matches(msg, m.keys.Down):
		g.Hover(g.Target() + 1)
	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Grab):
		m.gesture = nil
		m.queueCursor = g.Target()
		return m, commitGestureCmd(g)
	case key.Matches(msg, m.keys.Escape):
		g.Cancel()
		m.gesture = nil
		m.queueCursor = g.Origin()
	case key.Matches(msg, m.keys.Quit):
		return m, m.shutdown()
	}
	if m.gesture != nil {
		m.queueCursor = g.Target()
	}
	m.refreshRows()
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.clearFilter()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter(m.filter.Value())
	return m, cmd
}

// applyFilter narrows the focused pane: the library through ranked
// search, the queue through fuzzy matching on visible rows
func (m *Model) applyFilter(query string) {
	switch m.pane {
	case PaneLibrary:
		m.libQuery = query
		m.libCursor = 0
		m.refreshTracks()
	case PaneQueue:
		m.queueFilter = filterRows(m.rows, query)
		m.queueCursor = 0
	}
}

func (m *Model) clearFilter() {
	m.filter.SetValue("")
	switch m.pane {
	case PaneLibrary:
		if m.libQuery != "" {
			m.libQuery = ""
			m.refreshTracks()
		}
	case PaneQueue:
		m.queueFilter = nil
		m.queueCursor = clampIndex(m.queueCursor, len(m.rows))
	}
}

func (m Model) currentQuery() string {
	if m.pane == PaneLibrary {
		return m.libQuery
	}
	return ""
}

func (m *Model) moveCursor(delta int) {
	switch m.pane {
	case PaneLibrary:
		m.libCursor = clampIndex(m.libCursor+delta, len(m.tracks))
	case PaneQueue:
		m.queueCursor = clampIndex(m.queueCursor+delta, m.queueLen())
	}
}

// scheduleSleep arms the sleep timer, or extends a running one
func (m Model) scheduleSleep() (tea.Model, tea.Cmd) {
	if m.deps.Sleep == nil {
		return m, nil
	}
	minutes := m.deps.Options.SleepMinutes
	if st := m.deps.Sleep.State(); st.Active && !st.Pending {
		remaining := int(st.Remaining(time.Now()).Minutes())
		minutes = remaining + sleepExtension
	}
	if err := m.deps.Sleep.Schedule(minutes, m.deps.Options.FinishCurrentTrack); err != nil {
		m.err = err
		return m, nil
	}
	m.status = fmt.Sprintf("sleeping in %d min", minutes)
	return m, nil
}
