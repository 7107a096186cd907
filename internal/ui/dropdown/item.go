package dropdown

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/theme"
)

// NotificationItem wraps a model.Notification so it can be used in a
// bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// Title returns the heading shown in the list.
func (i NotificationItem) Title() string { return i.Notification.DisplayTitle() }

// Description returns a short summary line for the list.
func (i NotificationItem) Description() string {
	parts := []string{i.Notification.Type, relativeTime(i.Notification.CreatedAt)}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(ni.Notification, index == m.Index(), m.Width()))
}

func renderLine(n model.Notification, selected bool, width int) string {
	marker := " "
	textStyle := theme.ReadItemStyle
	if !n.IsRead {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
		textStyle = theme.UnreadItemStyle
	}

	typeBadge := theme.TypeLabelStyle(n.Type).Render(n.Type)

	text := n.DisplayTitle()
	if msg := firstLine(n.Message); msg != "" && strings.TrimSpace(n.Title) != "" {
		text += " · " + msg
	} else if msg != "" {
		text = msg
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(n.CreatedAt))

	// Leave room for the marker, badge, time and padding.
	budget := width - lipgloss.Width(typeBadge) - lipgloss.Width(timeStr) - 8
	text = truncate(text, budget)

	line := fmt.Sprintf("%s %s %s  %s", marker, typeBadge, textStyle.Render(text), timeStr)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	return relativeTimeAt(time.Now(), t)
}

func relativeTimeAt(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
