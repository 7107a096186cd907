package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/theme"
)

// Layout manages the terminal layout: header with the bell, a toast band,
// the content area and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the top header bar with a title on the left and
// the bell on the right.
func (l Layout) RenderHeader(title string, bell string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	bellRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(bell)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(bellRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		bellRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view. Toasts, when present,
// sit between the header and the content; the content is clipped so the
// status bar stays on the last line.
func (l Layout) RenderWithFrame(
	header string,
	toasts string,
	content string,
	statusBar string,
) string {
	room := l.ContentHeight()
	if toasts != "" {
		toastLines := lipgloss.Height(toasts)
		if toastLines >= room {
			toasts = clipLines(toasts, room)
			toastLines = room
		}
		room -= toastLines
		content = lipgloss.JoinVertical(lipgloss.Left, toasts, clipLines(content, room))
	} else {
		content = clipLines(content, room)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

// clipLines keeps at most n lines of s.
func clipLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}
