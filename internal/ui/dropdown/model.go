package dropdown

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/keys"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	ID string
}

// CloseMsg asks the parent to close the dropdown.
type CloseMsg struct{}

// Model is the notification dropdown. It renders whatever list it is
// given; all mutation goes through the parent.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	loading bool
	width   int
	height  int
}

// New creates an empty dropdown.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("notification", "notifications")
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotifications replaces the rows, keeping the cursor on the same
// notification when it is still listed.
func (m *Model) SetNotifications(notifications []model.Notification) tea.Cmd {
	selectedID := m.SelectedID()

	items := make([]list.Item, len(notifications))
	cursor := 0
	for i, n := range notifications {
		items[i] = NotificationItem{Notification: n}
		if n.ID == selectedID {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// SetLoading toggles the loading placeholder shown while empty.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SelectedID returns the id under the cursor, if any.
func (m Model) SelectedID() string {
	item, ok := m.list.SelectedItem().(NotificationItem)
	if !ok {
		return ""
	}
	return item.Notification.ID
}

// Update handles messages for the dropdown.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			id := m.SelectedID()
			if id == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedMsg{ID: id}
			}

		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return CloseMsg{}
			}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the dropdown.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows a placeholder when there is nothing to list.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return style.Render("Loading notifications...")
	}
	return style.Render("You're all caught up.\n\nNew notifications appear here as they arrive.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
