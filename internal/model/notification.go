package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultType is the category label used when a notification has none.
const DefaultType = "info"

// Notification represents an alert surfaced to the user in the bell.
type Notification struct {
	// ID is the stable identity. Server-assigned ids are canonical.
	ID string `json:"id" db:"id"`

	// Title is the short heading. Optional when Message is present.
	Title string `json:"title" db:"title"`

	// Message is the body text. Optional when Title is present.
	Message string `json:"message" db:"message"`

	// Type is a free-form category label (e.g. "course", "batch").
	Type string `json:"type" db:"type"`

	// Link is an optional external URL surfaced as a call to action.
	Link string `json:"link,omitempty" db:"link"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"isRead" db:"is_read"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayTitle returns the title, falling back to the type label.
func (n Notification) DisplayTitle() string {
	if strings.TrimSpace(n.Title) != "" {
		return n.Title
	}
	if n.Type != "" {
		r, size := utf8.DecodeRuneInString(n.Type)
		return string(unicode.ToUpper(r)) + n.Type[size:]
	}
	return "Notification"
}

// PushEvent is the application payload of a "newNotification" socket
// message. Every field is optional on the wire; LegacyID carries the
// Mongo-style "_id" some emitters send instead of "id". When both are
// present "_id" wins, matching the REST list.
type PushEvent struct {
	ID        string    `json:"id,omitempty"`
	LegacyID  string    `json:"_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message,omitempty"`
	Type      string    `json:"type,omitempty"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// HasContent reports whether the event carries a title or a message.
func (e PushEvent) HasContent() bool {
	return strings.TrimSpace(e.Title) != "" || strings.TrimSpace(e.Message) != ""
}

// Normalize converts the event into a Notification, filling the id,
// type and creation time. arrived is used when the server omitted
// createdAt.
func (e PushEvent) Normalize(arrived time.Time) Notification {
	id := e.LegacyID
	if id == "" {
		id = e.ID
	}
	if id == "" {
		id = SyntheticID(arrived)
	}

	typ := e.Type
	if typ == "" {
		typ = DefaultType
	}

	created := e.CreatedAt
	if created.IsZero() {
		created = arrived
	}
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	return Notification{
		ID:        id,
		Title:     e.Title,
		Message:   e.Message,
		Type:      typ,
		Link:      e.Link,
		IsRead:    e.IsRead,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

// SyntheticID builds a collision-resistant id for events pushed without
// one: the arrival time in milliseconds plus a random suffix.
func SyntheticID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", at.UnixMilli(), suffix)
}

// Stats holds the aggregate counters shown on the bell badge.
type Stats struct {
	Total  int `json:"total" db:"total"`
	Unread int `json:"unread" db:"unread"`
}

// Toast is the ephemeral presentation of a freshly pushed notification.
type Toast struct {
	ID        string
	Title     string
	Message   string
	Type      string
	Link      string
	ShownAt   time.Time
	ExpiresAt time.Time
}

// NewToast builds a toast for n that expires after ttl.
func NewToast(n Notification, now time.Time, ttl time.Duration) Toast {
	return Toast{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Link:      n.Link,
		ShownAt:   now,
		ExpiresAt: now.Add(ttl),
	}
}
