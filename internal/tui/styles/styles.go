package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#F59E0B")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Borders
var (
	ActivePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber)

	InactivePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Amber).
			Padding(0, 1)
)

// Row styles
var (
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	PlayingRowStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	// DraggedRowStyle marks the row being carried by a drag
	DraggedRowStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Amber)

	RemovingRowStyle = lipgloss.NewStyle().
				Foreground(Red).
				Strikethrough(true)
)

// Lyrics
var (
	LyricActiveStyle = lipgloss.NewStyle().
				Foreground(Amber).
				Bold(true)

	LyricStyle = lipgloss.NewStyle().
			Foreground(LightGray)
)

// Filter and help
var (
	FilterStyle = lipgloss.NewStyle().
			Foreground(White)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(Amber).
				Bold(true)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Amber)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Playback glyphs
const (
	PlayingGlyph   = "▶"
	PausedGlyph    = "⏸"
	BufferingGlyph = "…"
	IdleGlyph      = "■"
)

// Truncate shortens s to width cells, ending in an ellipsis when cut
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
