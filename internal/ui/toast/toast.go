// Package toast renders the stack of transient notification toasts.
package toast

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/theme"
)

// Render stacks toasts newest first, right-aligned within width.
// It returns an empty string when there is nothing to show.
func Render(toasts []model.Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	boxWidth := min(48, max(width-2, 20))
	var boxes []string
	for i := len(toasts) - 1; i >= 0; i-- {
		boxes = append(boxes, renderOne(toasts[i], boxWidth))
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, boxes...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
}

func renderOne(t model.Toast, width int) string {
	var lines []string

	title := strings.TrimSpace(t.Title)
	if title != "" {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(title))
	}
	if msg := strings.TrimSpace(t.Message); msg != "" {
		lines = append(lines, msg)
	}
	if t.Link != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorGray).Render(t.Link))
	}

	return theme.ToastStyle.
		BorderForeground(theme.TypeLabelStyle(t.Type).GetForeground()).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}
