package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/library"
	"github.com/mmcdole/cadence/internal/lyrics"
	"github.com/mmcdole/cadence/internal/queue"
)

type fakePlayer struct {
	mu       sync.Mutex
	played   []domain.Track
	start    int
	next     []domain.Track
	toggles  int
	position time.Duration
	seeks    []time.Duration
}

func (f *fakePlayer) ConnectionState() domain.ConnectionState { return domain.Connected }

func (f *fakePlayer) Subscribe() (<-chan domain.Snapshot, func()) {
	return make(chan domain.Snapshot), func() {}
}

func (f *fakePlayer) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakePlayer) SetQueueAndPlay(tracks []domain.Track, startIndex int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = tracks
	f.start = startIndex
}

func (f *fakePlayer) PlayNext(tracks []domain.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = append(f.next, tracks...)
}

func (f *fakePlayer) TogglePlayback() { f.toggles++ }
func (f *fakePlayer) SkipNext() {}
func (f *fakePlayer) SkipPrevious() {}

func (f *fakePlayer) SeekToPosition(p time.Duration) {
	f.seeks = append(f.seeks, p)
}

func (f *fakePlayer) SetShuffle(bool) {}
func (f *fakePlayer) CycleRepeat() {}

type fakeCommitter struct {
	mu      sync.Mutex
	moves   [][2]int
	removes []int
}

func (f *fakeCommitter) Move(_ context.Context, from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, [2]int{from, to})
	return nil
}

func (f *fakeCommitter) Remove(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, index)
	return nil
}

type stubSource struct {
	lyrics domain.Lyrics
}

func (s stubSource) Fetch(context.Context, domain.LyricsQuery) (domain.Lyrics, error) {
	return s.lyrics, nil
}

type libraryCache struct {
	tracks []domain.Track
}

func (c libraryCache) GetTracks(string) ([]domain.Track, bool) { return c.tracks, true }
func (c libraryCache) SaveTracks(string, []domain.Track) error { return nil }
func (c libraryCache) InvalidateTracks(string) {}

var testTracks = []domain.Track{
	{URI: "file:///m/heart.mp3", Title: "Heart of Gold", Artist: "Neil Young", Album: "Harvest"},
	{URI: "file:///m/harvest.mp3", Title: "Harvest Moon", Artist: "Neil Young", Album: "Harvest Moon"},
	{URI: "file:///m/moon.mp3", Title: "Moon", Artist: "Bjork", Album: "Biophilia"},
}

type harness struct {
	player    *fakePlayer
	committer *fakeCommitter
	model     Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	player := &fakePlayer{}
	committer := &fakeCommitter{}

	lib := library.NewService(library.NewScanner(t.TempDir(), nil, nil), libraryCache{tracks: testTracks}, nil)
	if _, err := lib.Load(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	m := NewModel(Deps{
		Player:    player,
		Library:   lib,
		Lyrics:    lyrics.NewService(stubSource{}, nil, nil),
		Queue:     queue.NewController(committer, queue.Config{SwipeThreshold: 4, SwipeGrace: time.Hour}, nil, nil),
		QueueRows: make(chan []domain.QueueRow),
		Options:   Options{SwipeThreshold: 4},
	})
	t.Cleanup(m.sync.Stop)

	h := &harness{player: player, committer: committer, model: m}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.send(ScanProgressMsg{Done: true})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		cmd = h.send(msg)
	}
	return cmd
}

func rowsOf(tracks ...domain.Track) []domain.QueueRow {
	rows := make([]domain.QueueRow, len(tracks))
	for i, t := range tracks {
		rows[i] = t.Row()
		rows[i].SlotID = string(rune('a' + i))
	}
	return rows
}

func TestModel_LibraryEnterPlaysFromCursor(t *testing.T) {
	h := newHarness(t)
	h.press("j", "enter")

	if len(h.player.played) != len(testTracks) || h.player.start != 1 {
		t.Fatalf("SetQueueAndPlay(%d tracks, %d), want (%d, 1)", len(h.player.played), h.player.start, len(testTracks))
	}
}

func TestModel_LibraryFilterUsesSearch(t *testing.T) {
	h := newHarness(t)
	h.press("/", "m", "o", "o", "n", "enter")

	if h.model.filtering {
		t.Fatal("enter should leave filter mode")
	}
	if len(h.model.tracks) == 0 || h.model.tracks[0].Title != "Moon" {
		t.Fatalf("filtered tracks = %v, want Moon first", h.model.tracks)
	}

	h.press("esc")
	if len(h.model.tracks) != len(testTracks) {
		t.Errorf("esc left %d tracks, want %d", len(h.model.tracks), len(testTracks))
	}
}

func TestModel_PlayNext(t *testing.T) {
	h := newHarness(t)
	h.press("n")
	if len(h.player.next) != 1 || h.player.next[0].URI != testTracks[0].URI {
		t.Fatalf("PlayNext got %v", h.player.next)
	}
}

func TestModel_SeekSteps(t *testing.T) {
	h := newHarness(t)
	h.player.position = 25 * time.Second
	h.press("l", "h")
	want := []time.Duration{35 * time.Second, 15 * time.Second}
	if len(h.player.seeks) != 2 || h.player.seeks[0] != want[0] || h.player.seeks[1] != want[1] {
		t.Errorf("seeks = %v, want %v", h.player.seeks, want)
	}
}

func TestModel_SnapshotLoadsLyricsForNewTrack(t *testing.T) {
	h := newHarness(t)
	track := testTracks[0]

	cmd := h.send(SnapshotMsg{Snapshot: domain.Snapshot{Track: &track, Index: 0, Phase: domain.PhasePlaying}})
	if cmd == nil {
		t.Fatal("expected commands after snapshot")
	}
	if h.model.lyricsURI != track.URI || h.model.lyricsState.Status != lyrics.StatusLoading {
		t.Fatalf("lyrics state = %q %v", h.model.lyricsURI, h.model.lyricsState.Status)
	}

	// Result for a track no longer playing is dropped
	h.send(LyricsMsg{State: lyrics.State{URI: testTracks[1].URI, Status: lyrics.StatusPlain}})
	if h.model.lyricsState.Status != lyrics.StatusLoading {
		t.Fatalf("stale result applied: %v", h.model.lyricsState.Status)
	}

	synced := domain.Lyrics{Kind: domain.LyricsSynced, Segments: []domain.LyricSegment{
		{Offset: 0, Text: "one"},
		{Offset: time.Second, Text: "two"},
	}}
	h.send(LyricsMsg{State: lyrics.State{URI: track.URI, Status: lyrics.StatusSynced, Lyrics: synced}})
	if len(h.model.lines) != 2 {
		t.Fatalf("lines = %v", h.model.lines)
	}

	h.send(LyricLineMsg{Change: lyrics.Change{Key: track.URI, Index: 1}})
	if h.model.activeLine != 1 {
		t.Errorf("activeLine = %d, want 1", h.model.activeLine)
	}
	h.send(LyricLineMsg{Change: lyrics.Change{Key: testTracks[2].URI, Index: 0}})
	if h.model.activeLine != 1 {
		t.Errorf("change for another document moved the line to %d", h.model.activeLine)
	}

	// Same track again does not refetch
	if cmd := h.send(SnapshotMsg{Snapshot: domain.Snapshot{Track: &track, Index: 0}}); cmd == nil {
		t.Fatal("snapshot subscription should continue")
	}
	if h.model.lyricsState.Status != lyrics.StatusSynced {
		t.Errorf("status = %v after repeated snapshot", h.model.lyricsState.Status)
	}
}

func TestModel_NetworkErrorSchedulesRetry(t *testing.T) {
	h := newHarness(t)
	track := testTracks[0]
	h.send(SnapshotMsg{Snapshot: domain.Snapshot{Track: &track}})

	cmd := h.send(LyricsMsg{State: lyrics.State{URI: track.URI, Status: lyrics.StatusNetworkError}})
	if cmd == nil {
		t.Fatal("expected a retry command")
	}
	if cmd := h.send(LyricsRetryMsg{URI: track.URI}); cmd == nil {
		t.Fatal("retry should fetch again")
	}
	if cmd := h.send(LyricsRetryMsg{URI: testTracks[1].URI}); cmd != nil {
		t.Fatal("retry for another track should be ignored")
	}
}

func TestModel_KeyboardDragCommitsOnce(t *testing.T) {
	h := newHarness(t)
	h.send(QueueRowsMsg{Rows: rowsOf(testTracks...)})
	h.press("tab")

	h.press("m", "j", "j", "k", "j")
	if h.model.gesture == nil {
		t.Fatal("expected an active drag")
	}
	cmd := h.press("enter")
	if cmd == nil {
		t.Fatal("expected a commit command")
	}
	h.send(cmd())

	if len(h.committer.moves) != 1 || h.committer.moves[0] != [2]int{0, 2} {
		t.Fatalf("moves = %v, want [[0 2]]", h.committer.moves)
	}
	if got := h.model.rows[2].URI; got != testTracks[0].URI {
		t.Errorf("row 2 = %s, want the dragged track", got)
	}
}

func TestModel_DragCancelRestores(t *testing.T) {
	h := newHarness(t)
	h.send(QueueRowsMsg{Rows: rowsOf(testTracks...)})
	h.press("tab", "m", "j", "esc")

	if h.model.gesture != nil {
		t.Fatal("drag still active")
	}
	if len(h.committer.moves) != 0 {
		t.Fatalf("cancel wrote %v", h.committer.moves)
	}
	if h.model.rows[0].URI != testTracks[0].URI {
		t.Error("order not restored")
	}
}

func TestModel_DragEndsWhenRowLeavesQueue(t *testing.T) {
	h := newHarness(t)
	rows := rowsOf(testTracks...)
	h.send(QueueRowsMsg{Rows: rows})
	h.press("tab", "m", "j")

	h.send(QueueRowsMsg{Rows: rows[1:]})

	if h.model.gesture != nil {
		t.Fatal("drag still active after its row was removed")
	}
	if len(h.model.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(h.model.rows))
	}
	h.press("enter")
	if len(h.committer.moves) != 0 {
		t.Errorf("moves = %v, want none", h.committer.moves)
	}
}

func TestModel_RemoveThenUndo(t *testing.T) {
	h := newHarness(t)
	h.send(QueueRowsMsg{Rows: rowsOf(testTracks...)})
	h.press("tab", "j", "x")

	if h.model.swipe == nil || !h.model.swipe.Armed() {
		t.Fatal("expected an armed removal")
	}
	if h.model.swipe.SlotID() != "b" {
		t.Errorf("swiped slot = %s, want b", h.model.swipe.SlotID())
	}

	h.press("u")
	if h.model.swipe != nil {
		t.Fatal("undo left the removal pending")
	}
	if len(h.committer.removes) != 0 {
		t.Fatalf("removes = %v", h.committer.removes)
	}
}

func TestModel_QueueFilterBlocksDrag(t *testing.T) {
	h := newHarness(t)
	h.send(QueueRowsMsg{Rows: rowsOf(testTracks...)})
	h.press("tab", "/", "m", "o", "o", "n", "enter")

	if h.model.queueFilter == nil {
		t.Fatal("expected a queue filter")
	}
	h.press("m")
	if h.model.gesture != nil {
		t.Fatal("drag started on a filtered queue")
	}
}

func TestModel_MouseDragReorders(t *testing.T) {
	h := newHarness(t)
	h.send(QueueRowsMsg{Rows: rowsOf(testTracks...)})

	x := h.model.layout.LibraryWidth + 2
	y := headerHeight + 2 // first queue row

	h.send(tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	h.send(tea.MouseMsg{X: x, Y: y + 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	h.send(tea.MouseMsg{X: x, Y: y + 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	cmd := h.send(tea.MouseMsg{X: x, Y: y + 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	if cmd == nil {
		t.Fatal("expected a commit command")
	}
	h.send(cmd())

	if len(h.committer.moves) != 1 || h.committer.moves[0] != [2]int{0, 2} {
		t.Fatalf("moves = %v, want [[0 2]]", h.committer.moves)
	}
}

func TestModel_MouseSwipeArmsRemoval(t *testing.T) {
	h := newHarness(t)
	h.send(QueueRowsMsg{Rows: rowsOf(testTracks...)})

	x := h.model.layout.LibraryWidth + 2
	y := headerHeight + 3 // second queue row

	h.send(tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	h.send(tea.MouseMsg{X: x + 6, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	h.send(tea.MouseMsg{X: x + 6, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	if h.model.swipe == nil || h.model.swipe.SlotID() != "b" {
		t.Fatal("expected an armed removal of the second row")
	}
}
