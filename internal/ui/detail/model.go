package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/keys"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/theme"
)

// BackMsg signals the parent to close the detail view.
type BackMsg struct{}

// CopyLinkMsg asks the parent to copy the notification link.
type CopyLinkMsg struct {
	URL string
}

// Model is the notification detail view component.
type Model struct {
	notification *model.Notification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.CopyLink):
			if m.notification != nil && m.notification.Link != "" {
				link := m.notification.Link
				return m, func() tea.Msg {
					return CopyLinkMsg{URL: link}
				}
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.notification == nil {
		return ""
	}

	n := m.notification
	var sections []string

	// A message-only notification has no heading.
	if title := strings.TrimSpace(n.Title); title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, titleStyle.Render(title))
	}

	// Badges line: type + read state
	typeBadge := theme.TypeLabelStyle(n.Type).Render(strings.ToUpper(n.Type))
	state := lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("unread")
	if n.IsRead {
		state = lipgloss.NewStyle().Foreground(theme.ColorGray).Render("read")
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, typeBadge, "  ", state))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if !n.CreatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(n.CreatedAt.Local().Format("2006-01-02 15:04")),
		))
	}
	if !n.UpdatedAt.IsZero() && !n.UpdatedAt.Equal(n.CreatedAt) {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Updated:"),
			valStyle.Render(n.UpdatedAt.Local().Format("2006-01-02 15:04")),
		))
	}
	if n.Link != "" {
		sections = append(sections, fmt.Sprintf(
			"%s      %s",
			metaStyle.Render("Link:"),
			valStyle.Underline(true).Render(n.Link),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	body := n.Message
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No message")
	} else {
		body = lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(body)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetNotification updates the notification being displayed. Scrolling
// resets only when a different notification is shown.
func (m *Model) SetNotification(n model.Notification) {
	changed := m.notification == nil || m.notification.ID != n.ID
	m.notification = &n
	m.viewport.SetContent(m.renderContent())
	if changed {
		m.viewport.GotoTop()
	}
}

// Clear removes the displayed notification.
func (m *Model) Clear() {
	m.notification = nil
	m.viewport.SetContent("")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.notification != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
