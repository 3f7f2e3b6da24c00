// Package tui is the terminal front end: a library browser, the play
// queue and a synced lyrics pane around a now-playing header.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/library"
	"github.com/mmcdole/cadence/internal/lyrics"
	"github.com/mmcdole/cadence/internal/queue"
	"github.com/mmcdole/cadence/internal/sleeptimer"
	"github.com/mmcdole/cadence/internal/tui/styles"
)

// Player is the playback surface the UI drives
type Player interface {
	ConnectionState() domain.ConnectionState
	Subscribe() (<-chan domain.Snapshot, func())
	Position() time.Duration
	SetQueueAndPlay(tracks []domain.Track, startIndex int)
	PlayNext(tracks []domain.Track)
	TogglePlayback()
	SkipNext()
	SkipPrevious()
	SeekToPosition(position time.Duration)
	SetShuffle(enabled bool)
	CycleRepeat()
}

// Options carries user settings the UI needs
type Options struct {
	LyricsInterval     time.Duration
	SleepMinutes       int
	FinishCurrentTrack bool
	SwipeThreshold     float64
}

// Deps bundles the services behind the UI
type Deps struct {
	Player    Player
	Library   *library.Service
	Lyrics    *lyrics.Service
	Queue     *queue.Controller
	QueueRows <-chan []domain.QueueRow
	Sleep     *sleeptimer.Timer
	Options   Options
	Logger    *slog.Logger
}

const (
	seekStep       = 10 * time.Second
	sleepExtension = 15 // minutes added when the timer is already running
)

// mousePress is a left button held down on a queue row
type mousePress struct {
	x, y  int
	index int
	swipe *queue.Swipe // set once the press turns into a swipe
}

// Model is the root Bubble Tea model
type Model struct {
	deps   Deps
	logger *slog.Logger
	keys   KeyMap

	help     help.Model
	progress progress.Model
	filter   textinput.Model

	width, height int
	layout        Layout
	pane          Pane
	filtering     bool
	showHelp      bool
	status        string
	err           error

	// playback
	snap        domain.Snapshot
	snapCh      <-chan domain.Snapshot
	unsubscribe func()
	position    time.Duration

	// library
	tracks    []domain.Track
	libCursor int
	libQuery  string
	scanning  bool
	scanned   int

	// queue
	rows        []domain.QueueRow
	queueCursor int
	queueFilter []int // indices into rows, nil when unfiltered
	gesture     *queue.Gesture
	swipe       *queue.Swipe
	press       *mousePress

	// lyrics
	lyricsURI   string
	lyricsState lyrics.State
	lines       []string
	activeLine  int
	sync        *lyrics.Synchronizer
	lineCh      chan lyrics.Change

	// sleep timer
	sleepState domain.SleepTimerState
	sleepCh    chan domain.SleepTimerState
}

// NewModel wires the UI to its services
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Options.SleepMinutes <= 0 {
		deps.Options.SleepMinutes = 30
	}

	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	m := Model{
		deps:       deps,
		logger:     logger,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		progress:   progress.New(progress.WithSolidFill(string(styles.Amber)), progress.WithoutPercentage()),
		filter:     ti,
		pane:       PaneLibrary,
		scanning:   true,
		activeLine: -1,
		lineCh:     make(chan lyrics.Change, 1),
		sleepCh:    make(chan domain.SleepTimerState, 1),
	}

	lineCh, sleepCh := m.lineCh, m.sleepCh
	m.sync = lyrics.NewSynchronizer(
		deps.Player.Position,
		func(c lyrics.Change) { offerLatest(lineCh, c) },
		deps.Options.LyricsInterval,
		nil,
		logger,
	)
	if deps.Sleep != nil {
		deps.Sleep.OnChange(func(s domain.SleepTimerState) { offerLatest(sleepCh, s) })
	}

	m.snapCh, m.unsubscribe = deps.Player.Subscribe()
	return m
}

// Init starts the subscriptions, the clock tick and the initial library load
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForSnapshot(m.snapCh),
		waitForLine(m.lineCh),
		waitForSleep(m.sleepCh),
		ScanLibraryCmd(m.deps.Library, false),
		tickCmd(),
	}
	if m.deps.QueueRows != nil {
		cmds = append(cmds, waitForRows(m.deps.QueueRows))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout = computeLayout(msg.Width, msg.Height)
		m.progress.Width = max(msg.Width-20, 10)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case SnapshotMsg:
		cmd := m.applySnapshot(msg.Snapshot)
		return m, tea.Batch(cmd, waitForSnapshot(m.snapCh))

	case QueueRowsMsg:
		m.deps.Queue.Sync(msg.Rows)
		if m.gesture != nil && !m.deps.Queue.Dragging() {
			// the dragged row was removed underneath the drag
			m.gesture, m.press = nil, nil
			m.status = "row left the queue"
		}
		m.refreshRows()
		return m, waitForRows(m.deps.QueueRows)

	case GestureDoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
		}
		m.refreshRows()
		return m, nil

	case LyricsMsg:
		return m, m.applyLyrics(msg.State)

	case LyricsRetryMsg:
		if msg.URI == m.lyricsURI && m.lyricsState.Retryable() && m.snap.Track != nil {
			return m, FetchLyricsCmd(m.deps.Lyrics, *m.snap.Track, false)
		}
		return m, nil

	case LyricLineMsg:
		if msg.Change.Key == m.lyricsURI {
			m.activeLine = msg.Change.Index
		}
		return m, waitForLine(m.lineCh)

	case SleepTimerMsg:
		m.sleepState = msg.State
		return m, waitForSleep(m.sleepCh)

	case ScanProgressMsg:
		m.scanned = msg.Scanned
		if !msg.Done {
			return m, msg.NextCmd
		}
		m.scanning = false
		if msg.Err != nil {
			m.err = ErrMsg{Err: msg.Err, Context: "scanning library"}
			return m, nil
		}
		m.refreshTracks()
		if msg.Result.FromCache {
			m.status = "library loaded from cache"
		}
		return m, nil

	case TickMsg:
		m.position = m.deps.Player.Position()
		if m.swipe != nil {
			if err := m.swipe.Err(); err != nil {
				m.err = ErrMsg{Err: err, Context: "removing row"}
				m.swipe = nil
			} else if !m.swipe.Armed() {
				m.swipe = nil
			}
		}
		return m, tickCmd()

	case ErrMsg:
		m.err = msg
		return m, nil
	}

	return m, nil
}

// applySnapshot records the snapshot and starts a lyrics lookup when the
// current track changed
func (m *Model) applySnapshot(snap domain.Snapshot) tea.Cmd {
	m.snap = snap

	if snap.Track == nil {
		if m.lyricsURI != "" {
			m.sync.Stop()
			m.lyricsURI = ""
			m.lyricsState = lyrics.State{}
			m.lines = nil
		}
		return nil
	}
	if snap.Track.URI == m.lyricsURI {
		return nil
	}

	m.sync.Stop()
	m.lyricsURI = snap.Track.URI
	m.lyricsState = lyrics.State{URI: snap.Track.URI, Status: lyrics.StatusLoading}
	m.lines = nil
	m.activeLine = -1
	return FetchLyricsCmd(m.deps.Lyrics, *snap.Track, false)
}

// applyLyrics shows a lookup result if it still belongs to the current
// track
func (m *Model) applyLyrics(state lyrics.State) tea.Cmd {
	if state.URI != m.lyricsURI {
		return nil
	}
	m.lyricsState = state
	m.activeLine = -1

	switch state.Status {
	case lyrics.StatusSynced:
		m.lines = make([]string, len(state.Lyrics.Segments))
		for i, seg := range state.Lyrics.Segments {
			m.lines[i] = seg.Text
		}
		m.sync.Load(state.URI, state.Lyrics.Segments)
	case lyrics.StatusPlain:
		m.lines = splitLines(state.Lyrics.Plain)
	default:
		m.lines = nil
	}

	if state.Retryable() {
		m.logger.Debug("lyrics lookup will retry", "uri", state.URI, "error", state.Err)
		return retryLyricsCmd(state.URI)
	}
	return nil
}

// refreshTracks reapplies the library query
func (m *Model) refreshTracks() {
	if m.libQuery == "" {
		m.tracks = m.deps.Library.Tracks()
	} else {
		m.tracks = m.deps.Library.Search(m.libQuery)
	}
	m.libCursor = clampIndex(m.libCursor, len(m.tracks))
}

// refreshRows pulls the order to draw from the queue controller
func (m *Model) refreshRows() {
	m.rows = m.deps.Queue.Visible()
	if m.queueFilter != nil {
		m.queueFilter = filterRows(m.rows, m.filter.Value())
	}
	m.queueCursor = clampIndex(m.queueCursor, m.queueLen())
}

// queueLen is the number of rows the queue pane shows
func (m Model) queueLen() int {
	if m.queueFilter != nil {
		return len(m.queueFilter)
	}
	return len(m.rows)
}

// queueIndex maps the queue cursor to a row index in the committed order
func (m Model) queueIndex() (int, bool) {
	if m.queueFilter != nil {
		if m.queueCursor >= len(m.queueFilter) {
			return 0, false
		}
		return m.queueFilter[m.queueCursor], true
	}
	if m.queueCursor >= len(m.rows) {
		return 0, false
	}
	return m.queueCursor, true
}

func (m Model) selectedTrack() (domain.Track, bool) {
	if m.libCursor < 0 || m.libCursor >= len(m.tracks) {
		return domain.Track{}, false
	}
	return m.tracks[m.libCursor], true
}

// shutdown releases the UI's subscriptions before quitting
func (m Model) shutdown() tea.Cmd {
	m.sync.Stop()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.gesture != nil {
		m.gesture.Cancel()
	}
	return tea.Quit
}
