package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cadence/internal/domain"
	"github.com/mmcdole/cadence/internal/lyrics"
	"github.com/mmcdole/cadence/internal/tui/styles"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(PaneLibrary, m.libraryTitle(), m.renderLibrary(), m.layout.LibraryWidth),
		m.renderPane(PaneQueue, m.queueTitle(), m.renderQueue(), m.layout.QueueWidth),
		m.renderPane(PaneLyrics, "Lyrics", m.renderLyrics(), m.layout.LyricsWidth),
	)

	body := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), panes, m.renderFooter())
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.ActivePane.Padding(1, 2).Render(m.help.FullHelpView(m.keys.FullHelp())))
	}
	return body
}

// renderHeader draws the now-playing block: title, subtitle and progress
func (m Model) renderHeader() string {
	snap := m.snap
	glyph := phaseGlyph(snap.Phase)

	if snap.Track == nil {
		state := "nothing playing"
		if m.deps.Player.ConnectionState() != domain.Connected {
			state = m.deps.Player.ConnectionState().String() + "..."
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.DimStyle.Render(glyph+" "+state),
			"",
			m.progress.ViewAs(0),
		)
	}

	t := snap.Track
	title := styles.TitleStyle.Render(glyph + " " + styles.Truncate(t.DisplayTitle(), m.width-30))
	badges := m.renderBadges()
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(badges), 1)
	top := title + strings.Repeat(" ", gap) + badges

	var frac float64
	if t.Duration > 0 {
		frac = float64(m.position) / float64(t.Duration)
	}
	clock := fmt.Sprintf(" %s / %s", domain.FormatClock(m.position), t.FormattedDuration())

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		styles.SubtitleStyle.Render(styles.Truncate(t.Subtitle(), m.width)),
		m.progress.ViewAs(clamp01(frac))+styles.DimStyle.Render(clock),
	)
}

func (m Model) renderBadges() string {
	var parts []string
	if m.snap.Shuffle {
		parts = append(parts, styles.BadgeStyle.Render("shuffle"))
	}
	if m.snap.Repeat != domain.RepeatOff {
		parts = append(parts, styles.BadgeStyle.Render("repeat "+m.snap.Repeat.String()))
	}
	if s := m.sleepState; s.Active {
		label := "sleep " + formatRemaining(s.Remaining(time.Now()))
		if s.Pending {
			label = "sleep at track end"
		}
		parts = append(parts, styles.BadgeStyle.Render(label))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderPane(p Pane, title, content string, width int) string {
	style := styles.InactivePane
	if m.pane == p {
		style = styles.ActivePane
	}
	inner := width - 2
	head := styles.AccentStyle.Render(styles.Truncate(title, inner))
	return style.
		Width(inner).
		Height(m.layout.BodyHeight + 1).
		Render(head + "\n" + content)
}

func (m Model) libraryTitle() string {
	switch {
	case m.scanning:
		return fmt.Sprintf("Library (scanning %d)", m.scanned)
	case m.libQuery != "":
		return fmt.Sprintf("Library %q (%d)", m.libQuery, len(m.tracks))
	default:
		return fmt.Sprintf("Library (%d)", len(m.tracks))
	}
}

func (m Model) queueTitle() string {
	if m.gesture != nil {
		return "Queue (moving)"
	}
	return fmt.Sprintf("Queue (%d)", len(m.rows))
}

func (m Model) renderLibrary() string {
	if len(m.tracks) == 0 {
		if m.scanning {
			return styles.DimStyle.Render("reading music folder...")
		}
		return styles.DimStyle.Render("no tracks")
	}

	width := m.layout.LibraryWidth - 2
	start, end := window(m.libCursor, len(m.tracks), m.layout.BodyHeight)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		t := m.tracks[i]
		dur := t.FormattedDuration()
		label := styles.Truncate(t.DisplayTitle()+" · "+t.Artist, width-lipgloss.Width(dur)-1)
		line := padBetween(label, dur, width)

		switch {
		case i == m.libCursor && m.pane == PaneLibrary:
			line = styles.SelectedRowStyle.Render(line)
		case m.snap.Track != nil && t.URI == m.snap.Track.URI:
			line = styles.PlayingRowStyle.Render(line)
		default:
			line = styles.NormalRowStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderQueue() string {
	n := m.queueLen()
	if n == 0 {
		return styles.DimStyle.Render("queue is empty")
	}

	width := m.layout.QueueWidth - 2
	var removing string
	if m.swipe != nil && m.swipe.Armed() {
		removing = m.swipe.SlotID()
	}

	start, end := window(m.queueCursor, n, m.layout.BodyHeight)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		idx := i
		if m.queueFilter != nil {
			idx = m.queueFilter[i]
		}
		r := m.rows[idx]
		marker := "  "
		if idx == m.snap.Index && m.gesture == nil {
			marker = styles.PlayingGlyph + " "
		}
		line := marker + styles.Truncate(r.Title, width-2)

		switch {
		case m.gesture != nil && i == m.gesture.Target():
			line = styles.DraggedRowStyle.Render(line)
		case r.SlotID == removing:
			line = styles.RemovingRowStyle.Render(line)
		case i == m.queueCursor && m.pane == PaneQueue:
			line = styles.SelectedRowStyle.Render(line)
		case idx == m.snap.Index:
			line = styles.PlayingRowStyle.Render(line)
		default:
			line = styles.NormalRowStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLyrics() string {
	width := m.layout.LyricsWidth - 2

	switch m.lyricsState.Status {
	case lyrics.StatusLoading:
		if m.lyricsURI == "" {
			return ""
		}
		return styles.DimStyle.Render("looking for lyrics...")
	case lyrics.StatusNotFound:
		return styles.DimStyle.Render("no lyrics for this track")
	case lyrics.StatusNetworkError:
		return styles.ErrorStyle.Render("lyrics unavailable, retrying") + "\n" +
			styles.DimStyle.Render("L to retry now")
	}

	active := -1
	if m.lyricsState.Status == lyrics.StatusSynced {
		active = m.activeLine
	}
	shown, start := lyricWindow(m.lines, active, m.layout.BodyHeight)
	lines := make([]string, len(shown))
	for i, text := range shown {
		text = styles.Truncate(text, width)
		if start+i == active {
			lines[i] = styles.LyricActiveStyle.Render(text)
		} else {
			lines[i] = styles.LyricStyle.Render(text)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	switch {
	case m.filtering:
		return m.filter.View()
	case m.err != nil:
		return styles.ErrorStyle.Render("error: " + m.err.Error())
	case m.status != "":
		return styles.SuccessStyle.Render(m.status)
	case m.gesture != nil:
		return styles.DimStyle.Render("j/k move · enter drop · esc cancel")
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

// lyricWindow returns the lines to draw around the active line and the
// index of the first one
func lyricWindow(lines []string, active, height int) ([]string, int) {
	start, end := window(max(active, 0), len(lines), height)
	return lines[start:end], start
}

func splitLines(text string) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func phaseGlyph(p domain.Phase) string {
	switch p {
	case domain.PhasePlaying:
		return styles.PlayingGlyph
	case domain.PhasePaused:
		return styles.PausedGlyph
	case domain.PhaseBuffering:
		return styles.BufferingGlyph
	default:
		return styles.IdleGlyph
	}
}

// formatRemaining renders a countdown as whole minutes, or seconds in the
// last minute
func formatRemaining(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm", int((d + time.Minute - 1).Minutes()))
}

func padBetween(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func clamp01(f float64) float64 {
	return max(0, min(f, 1))
}
