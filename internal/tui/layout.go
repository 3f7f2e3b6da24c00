package tui

// Pane identifies one of the three columns
type Pane int

const (
	PaneLibrary Pane = iota
	PaneQueue
	PaneLyrics
	paneCount
)

const (
	headerHeight = 3 // title, subtitle, progress bar
	footerHeight = 1
	paneChrome   = 3 // top border, pane title, bottom border
	minPaneWidth = 20
)

// Layout holds the computed pane geometry for one terminal size
type Layout struct {
	LibraryWidth int
	QueueWidth   int
	LyricsWidth  int
	BodyHeight   int // rows available for list content inside a pane
}

func computeLayout(width, height int) Layout {
	usable := max(width, 3*minPaneWidth)
	lib := usable * 35 / 100
	q := usable * 30 / 100
	body := height - headerHeight - footerHeight - paneChrome
	return Layout{
		LibraryWidth: lib,
		QueueWidth:   q,
		LyricsWidth:  usable - lib - q,
		BodyHeight:   max(body, 1),
	}
}

// queueRowAt maps a terminal cell to the queue row drawn there
func (l Layout) queueRowAt(x, y, cursor, n int) (int, bool) {
	if x < l.LibraryWidth || x >= l.LibraryWidth+l.QueueWidth {
		return 0, false
	}
	line := y - headerHeight - 2 // border and pane title
	if line < 0 || line >= l.BodyHeight {
		return 0, false
	}
	start, end := window(cursor, n, l.BodyHeight)
	idx := start + line
	if idx >= end {
		return 0, false
	}
	return idx, true
}

// window returns the slice bounds of n rows to draw in height lines,
// keeping cursor roughly centered
func window(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = max(start, 0)
	start = min(start, n-height)
	return start, start + height
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(i, n-1))
}
