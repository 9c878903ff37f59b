package inspector

import "github.com/charmbracelet/lipgloss"

// Palette mirrors internal/tui's color set (CriticalColor/GoodColor/...)
// one-for-one; this package just renames them for VM state instead of
// GC severity (a thrown exception is "critical" the same way a GC
// pause-time breach was).
var (
	ExceptionColor = lipgloss.Color("#CC3333")
	SuspendColor   = lipgloss.Color("#FF8800")
	NormalColor    = lipgloss.Color("#228B22")
	InfoColor      = lipgloss.Color("#4682B4")
	TextColor      = lipgloss.Color("#CCCCCC")
	MutedColor     = lipgloss.Color("#888888")
	BorderColor    = lipgloss.Color("#666666")
)

var (
	ExceptionStyle = lipgloss.NewStyle().Foreground(ExceptionColor).Bold(true)
	SuspendStyle   = lipgloss.NewStyle().Foreground(SuspendColor).Bold(true)
	NormalStyle    = lipgloss.NewStyle().Foreground(NormalColor).Bold(true)
	InfoStyle      = lipgloss.NewStyle().Foreground(InfoColor)
	MutedStyle     = lipgloss.NewStyle().Foreground(MutedColor)
	TextStyle      = lipgloss.NewStyle().Foreground(TextColor)
)

var (
	TabActiveStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(InfoColor).
		Padding(0, 1).
		Bold(true)

	TabInactiveStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)
)

var (
	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1)
)

var HighlightIPStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(InfoColor).
	Bold(true)

var HelpBarStyle = lipgloss.NewStyle().
	Foreground(MutedColor).
	Background(lipgloss.Color("#1a1a1a")).
	Padding(0, 1)
