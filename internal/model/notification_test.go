package model

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushEvent_HasContent(t *testing.T) {
	assert.True(t, PushEvent{Title: "Hi"}.HasContent())
	assert.True(t, PushEvent{Message: "only message"}.HasContent())
	assert.False(t, PushEvent{ID: "n3"}.HasContent())
	assert.False(t, PushEvent{ID: "n3", Title: "  ", Link: "https://x"}.HasContent())
}

func TestPushEvent_Normalize(t *testing.T) {
	arrived := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	n := PushEvent{ID: "n1", Title: "Hi", Message: "Test"}.Normalize(arrived)
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, DefaultType, n.Type)
	assert.False(t, n.IsRead)
	assert.Equal(t, arrived, n.CreatedAt)
	assert.Equal(t, arrived, n.UpdatedAt)

	created := arrived.Add(-time.Hour)
	n = PushEvent{LegacyID: "mongo-1", Message: "m", Type: "course", CreatedAt: created}.Normalize(arrived)
	assert.Equal(t, "mongo-1", n.ID)
	assert.Equal(t, "course", n.Type)
	assert.Equal(t, created, n.CreatedAt)
}

func TestPushEvent_NormalizeSynthesizesID(t *testing.T) {
	arrived := time.UnixMilli(1700000000123)

	a := PushEvent{Message: "x"}.Normalize(arrived)
	b := PushEvent{Message: "x"}.Normalize(arrived)

	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-f]{8}$`), a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNotification_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Hi", Notification{Title: "Hi"}.DisplayTitle())
	assert.Equal(t, "Course", Notification{Type: "course"}.DisplayTitle())
	assert.Equal(t, "Notification", Notification{}.DisplayTitle())
	assert.Equal(t, "Évaluation", Notification{Type: "évaluation"}.DisplayTitle())
}

func TestPushEvent_NormalizePrefersServerID(t *testing.T) {
	n := PushEvent{ID: "client-7", LegacyID: "665f1c", Message: "m"}.Normalize(time.Now())
	assert.Equal(t, "665f1c", n.ID)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.Server.BaseURL)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Server.SocketURL)
	assert.Equal(t, 5, cfg.Socket.MaxReconnectAttempts)
	assert.Equal(t, time.Second, cfg.Socket.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.Socket.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.Display.ToastDuration)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  base_url: https://lms.example.com/api
socket:
  reconnect_delay: 250ms
  max_reconnect_attempts: 2
display:
  toast_duration: 2s
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://lms.example.com/ws", cfg.Server.SocketURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Socket.ReconnectDelay)
	assert.Equal(t, 2, cfg.Socket.MaxReconnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.Display.ToastDuration)
	assert.Equal(t, 3, cfg.Display.MaxToasts)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Server.BaseURL = "https://lms.test/api"
	cfg.Server.SocketURL = "wss://push.lms.test/ws"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://lms.test/api", loaded.Server.BaseURL)
	assert.Equal(t, "wss://push.lms.test/ws", loaded.Server.SocketURL)
}

func TestDeriveSocketURL(t *testing.T) {
	assert.Equal(t, "wss://a.b/ws", DeriveSocketURL("https://a.b/api/"))
	assert.Equal(t, "ws://a.b:5000/ws", DeriveSocketURL("http://a.b:5000"))
}
