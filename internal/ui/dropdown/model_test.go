package dropdown

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/learnbell/internal/keys"
	"github.com/nhle/learnbell/internal/model"
)

func sampleList() []model.Notification {
	return []model.Notification{
		{ID: "n2", Title: "Batch starts", Message: "Monday 9am", Type: "batch"},
		{ID: "n1", Message: "only message", Type: "info", IsRead: true},
	}
}

func TestModel_EnterSelectsNotification(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetNotifications(sampleList())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, SelectedMsg{ID: "n1"}, cmd())
}

func TestModel_EscCloses(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}

func TestModel_CursorFollowsNotificationAcrossUpdates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetNotifications(sampleList())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "n1", m.SelectedID())

	// A push lands on top; the cursor stays on n1.
	m.SetNotifications(append([]model.Notification{{ID: "n3", Title: "New"}}, sampleList()...))
	assert.Equal(t, "n1", m.SelectedID())
}

func TestModel_EmptyStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	m.SetLoading(true)
	assert.Contains(t, m.View(), "Loading notifications")

	m.SetLoading(false)
	assert.Contains(t, m.View(), "all caught up")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestRenderLine(t *testing.T) {
	unread := renderLine(model.Notification{ID: "a", Title: "Hi", Message: "Test\nmore", Type: "course"}, false, 80)
	assert.Contains(t, unread, "●")
	assert.Contains(t, unread, "Hi · Test")
	assert.NotContains(t, unread, "more")

	read := renderLine(model.Notification{ID: "b", Message: "only message", Type: "info", IsRead: true}, false, 80)
	assert.NotContains(t, read, "●")
	assert.Contains(t, read, "only message")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel…", truncate("hello", 4))
	assert.Equal(t, strings.Repeat("x", 3), truncate("xxx", 0))
}

func TestRelativeTimeAt(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "", relativeTimeAt(now, time.Time{}))
	assert.Equal(t, "just now", relativeTimeAt(now, now.Add(-10*time.Second)))
	assert.Equal(t, "5m ago", relativeTimeAt(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", relativeTimeAt(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "2d ago", relativeTimeAt(now, now.Add(-48*time.Hour)))
	assert.Equal(t, "Apr 01", relativeTimeAt(now, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
}
