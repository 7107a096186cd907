package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/nhle/learnbell/internal/model"
)

// REST paths, relative to the client base URL.
const (
	PathMyNotifications = "/notifications/my-notifications"
	PathStats           = "/notifications/stats"
	pathMarkRead        = "/notifications/mark-read/"
)

// MarkReadPath returns the mark-as-read path for a notification id.
func MarkReadPath(id string) string {
	return pathMarkRead + url.PathEscape(id)
}

// ErrorResponse is the error body the backend sends on failures.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NotificationDTO is a notification as returned by my-notifications.
type NotificationDTO struct {
	MongoID   string    `json:"_id"`
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Link      string    `json:"link"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToModel converts the wire shape into a model.Notification.
func (d NotificationDTO) ToModel() model.Notification {
	id := d.MongoID
	if id == "" {
		id = d.ID
	}
	typ := d.Type
	if typ == "" {
		typ = model.DefaultType
	}
	return model.Notification{
		ID:        id,
		Title:     d.Title,
		Message:   d.Message,
		Type:      typ,
		Link:      d.Link,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// StatsDTO is the body of GET /notifications/stats.
type StatsDTO struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// NotificationList decodes my-notifications. The endpoint returns a bare
// array; some deployments wrap it as {"data": [...]} or
// {"notifications": [...]}.
type NotificationList []NotificationDTO

// UnmarshalJSON implements json.Unmarshaler.
func (l *NotificationList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if trimmed[0] == '[' {
		var items []NotificationDTO
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var wrapped struct {
		Data          []NotificationDTO `json:"data"`
		Notifications []NotificationDTO `json:"notifications"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return fmt.Errorf("decoding notification list: %w", err)
	}
	if wrapped.Data != nil {
		*l = wrapped.Data
	} else {
		*l = wrapped.Notifications
	}
	return nil
}

// ToModels converts every entry, preserving order.
func (l NotificationList) ToModels() []model.Notification {
	out := make([]model.Notification, 0, len(l))
	for _, d := range l {
		out = append(out, d.ToModel())
	}
	return out
}
