// Package bell renders the header bell: a status-colored glyph plus the
// unread badge.
package bell

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/theme"
)

// Glyph is the bell symbol.
const Glyph = "🔔"

// BadgeText formats the unread counter. Zero hides the badge.
func BadgeText(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 99:
		return "99+"
	default:
		return strconv.Itoa(unread)
	}
}

// StatusLabel is the short text shown next to the bell.
func StatusLabel(status model.ConnectionStatus) string {
	switch status {
	case model.StatusConnected:
		return "live"
	case model.StatusConnecting:
		return "connecting"
	case model.StatusDisconnected:
		return "reconnecting"
	case model.StatusError:
		return "offline"
	default:
		return "idle"
	}
}

// Render draws the bell, its status label and the badge.
func Render(status model.ConnectionStatus, unread int) string {
	bell := theme.BellStyle(status).Render(Glyph + " " + StatusLabel(status))

	badge := BadgeText(unread)
	if badge == "" {
		return bell
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, bell, " ", theme.BadgeStyle.Render(badge))
}
