package app

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/bell"
	"github.com/nhle/learnbell/internal/keys"
	"github.com/nhle/learnbell/internal/model"
	appsync "github.com/nhle/learnbell/internal/sync"
	"github.com/nhle/learnbell/internal/theme"
	"github.com/nhle/learnbell/internal/ui"
	bellview "github.com/nhle/learnbell/internal/ui/bell"
	"github.com/nhle/learnbell/internal/ui/command"
	"github.com/nhle/learnbell/internal/ui/detail"
	"github.com/nhle/learnbell/internal/ui/dropdown"
	helpview "github.com/nhle/learnbell/internal/ui/help"
	toastview "github.com/nhle/learnbell/internal/ui/toast"
)

// flashDuration is how long a status bar message stays visible.
const flashDuration = 3 * time.Second

// flashMsg shows a transient message in the status bar.
type flashMsg struct {
	text string
}

// clearFlashMsg clears the flash message it was scheduled for.
type clearFlashMsg struct {
	id int
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewDropdown
	ViewDetail
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model. It renders the bell Center's
// snapshot and turns key presses into Center commands.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	center       *bell.Center
	poller       *appsync.Poller
	session      model.Session
	keys         *keys.KeyMap
	dropdown     dropdown.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	snap         bell.Snapshot
	ready        bool
	flash        string
	flashID      int
	logger       *zap.Logger
}

// New creates the root model for session. pollInterval enables a
// periodic refresh next to the socket when positive.
func New(center *bell.Center, session model.Session, pollInterval time.Duration, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewHome,
		center:      center,
		poller:      appsync.New(center, 0, pollInterval),
		session:     session,
		keys:        k,
		dropdown:    dropdown.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		snap:        bell.Snapshot{Status: model.StatusIdle},
		logger:      logger.Named("app"),
	}
}

// Init starts the notification session and subscribes to its changes.
func (m Model) Init() tea.Cmd {
	c := m.center
	s := m.session
	return tea.Batch(
		func() tea.Msg {
			c.Start(s)
			return appsync.ChangedMsg{}
		},
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.dropdown.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		return m, nil

	case appsync.ChangedMsg:
		cmd := m.applySnapshot()
		return m, tea.Batch(cmd, m.poller.WaitForNextResult())

	case dropdown.SelectedMsg:
		if !m.center.ViewNotification(msg.ID) {
			return m, nil
		}
		m.previousView = ViewDropdown
		m.currentView = ViewDetail
		return m, m.applySnapshot()

	case dropdown.CloseMsg:
		m.center.CloseDropdown()
		m.currentView = ViewHome
		return m, nil

	case detail.BackMsg:
		m.center.CloseDetail()
		m.detail.Clear()
		m.currentView = ViewHome
		if m.snap.DropdownOpen {
			m.currentView = ViewDropdown
		}
		return m, nil

	case detail.CopyLinkMsg:
		return m, copyLink(msg.URL)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(command.Command(msg))

	case command.UnknownMsg:
		m.currentView = m.previousView
		return m, flash(fmt.Sprintf("unknown command: %s", string(msg)))

	case flashMsg:
		m.flash = msg.text
		m.flashID++
		id := m.flashID
		return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
			return clearFlashMsg{id: id}
		})

	case clearFlashMsg:
		if msg.id == m.flashID {
			m.flash = ""
		}
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused
// sub-view. It reports whether the key was consumed.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}

	// The palette owns the keyboard while open, apart from esc and ":".
	if m.currentView == ViewCommand {
		switch msg.String() {
		case "esc", ":":
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	}

	browsing := m.currentView == ViewHome || m.currentView == ViewDropdown

	switch {
	case key.Matches(msg, m.keys.Quit):
		if browsing {
			return m, m.quit(), true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Bell):
		switch m.currentView {
		case ViewHome:
			m.center.OpenDropdown()
			m.currentView = ViewDropdown
			return m, nil, true
		case ViewDropdown:
			m.center.CloseDropdown()
			m.currentView = ViewHome
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Refresh):
		if browsing {
			m.center.Refresh()
			return m, flash("refreshing..."), true
		}

	case key.Matches(msg, m.keys.Reconnect):
		m.center.Reconnect()
		return m, flash("reconnecting..."), true

	case key.Matches(msg, m.keys.MarkAllRead):
		if browsing {
			m.center.MarkAllAsRead()
			return m, nil, true
		}

	case key.Matches(msg, m.keys.DismissToast):
		if n := len(m.snap.Toasts); n > 0 {
			m.center.DismissToast(m.snap.Toasts[n-1].ID)
			return m, nil, true
		}
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewDropdown:
		m.dropdown, cmd = m.dropdown.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// applySnapshot copies the Center's read model into the sub-views.
func (m *Model) applySnapshot() tea.Cmd {
	m.snap = m.center.Snapshot()

	m.dropdown.SetLoading(m.snap.Loading)
	cmd := m.dropdown.SetNotifications(m.snap.Notifications)

	if m.snap.DetailOpen {
		m.detail.SetNotification(m.snap.Selected)
	}
	return cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), bellview.Render(m.snap.Status, m.snap.Stats.Unread))
	toasts := toastview.Render(m.snap.Toasts, m.layout.ContentWidth())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, toasts, content, statusBar)
}

func (m Model) title() string {
	name := m.session.UserName
	if name == "" {
		name = m.session.UserID
	}
	if name == "" {
		return "learnbell"
	}
	return "learnbell · " + name
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDropdown:
		return m.dropdown.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return m.renderHome()
	}
}

// renderHome shows a summary when no panel is open.
func (m Model) renderHome() string {
	style := lipgloss.NewStyle().
		Width(m.layout.ContentWidth()).
		Height(m.layout.ContentHeight()).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.session.UserID == "" {
		return style.Render("Not signed in.\n\nRun 'learnbell login' to connect your account.")
	}

	unread := "No unread notifications"
	if m.snap.Stats.Unread > 0 {
		unread = fmt.Sprintf("%s unread of %d", bellview.BadgeText(m.snap.Stats.Unread), m.snap.Stats.Total)
	}
	status := theme.BellStyle(m.snap.Status).Render(bellview.StatusLabel(m.snap.Status))

	return style.Render(lipgloss.JoinVertical(lipgloss.Center,
		unread,
		"",
		"Connection: "+status,
		"",
		"Press b to open notifications, ? for help.",
	))
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.flash != "" {
		return m.flash
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | y copy link | j/k scroll"
	case ViewDropdown:
		return "enter open | esc close | r refresh | m mark all read | x dismiss toast"
	default:
		if m.snap.Status == model.StatusError {
			return "offline | R reconnect | q quit"
		}
		return "b notifications | r refresh | : command | ? help | q quit"
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.Command) tea.Cmd {
	switch cmd {
	case command.Refresh:
		m.center.Refresh()
		return flash("refreshing...")
	case command.Reconnect:
		m.center.Reconnect()
		return flash("reconnecting...")
	case command.ReadAll:
		m.center.MarkAllAsRead()
		return nil
	case command.Quit:
		return m.quit()
	default:
		return nil
	}
}

// quit tears the session down before leaving the program.
func (m Model) quit() tea.Cmd {
	m.logger.Info("quitting", zap.String("user_id", m.session.UserID))
	m.poller.Stop()
	m.center.Stop()
	return tea.Quit
}

func flash(text string) tea.Cmd {
	return func() tea.Msg {
		return flashMsg{text: text}
	}
}

func copyLink(url string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(url); err != nil {
			return flashMsg{text: "copy failed: " + err.Error()}
		}
		return flashMsg{text: "link copied"}
	}
}
