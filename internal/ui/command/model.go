package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/theme"
)

// Command is a palette action.
type Command string

const (
	Refresh   Command = "refresh"
	Reconnect Command = "reconnect"
	ReadAll   Command = "read all"
	Quit      Command = "quit"
)

// Commands lists every palette action, in suggestion order.
var Commands = []Command{Refresh, Reconnect, ReadAll, Quit}

// aliases maps accepted spellings onto commands.
var aliases = map[string]Command{
	"refresh":       Refresh,
	"r":             Refresh,
	"reconnect":     Reconnect,
	"read all":      ReadAll,
	"readall":       ReadAll,
	"mark all read": ReadAll,
	"quit":          Quit,
	"q":             Quit,
	"exit":          Quit,
}

// Parse resolves user input to a Command.
func Parse(input string) (Command, bool) {
	normalized := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	cmd, ok := aliases[normalized]
	return cmd, ok
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg Command

// UnknownMsg is emitted for input that matches no command.
type UnknownMsg string

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, reconnect, read all, quit"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	suggestions := make([]string, len(Commands))
	for i, c := range Commands {
		suggestions[i] = string(c)
	}
	ti.SetSuggestions(suggestions)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		input := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if input == "" {
			return m, nil
		}
		if cmd, ok := Parse(input); ok {
			return m, func() tea.Msg {
				return CommandMsg(cmd)
			}
		}
		return m, func() tea.Msg {
			return UnknownMsg(input)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
