package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/keys"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/theme"
	"github.com/nhle/learnbell/internal/ui/bell"
)

// legend lists the bell states in the order they are usually seen.
var legend = []model.ConnectionStatus{
	model.StatusConnected,
	model.StatusConnecting,
	model.StatusDisconnected,
	model.StatusError,
	model.StatusIdle,
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Bell"),
		renderLegend(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func renderLegend() string {
	rows := make([]string, 0, len(legend))
	for _, s := range legend {
		rows = append(rows, theme.BellStyle(s).Render(bell.Glyph+" "+bell.StatusLabel(s)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
