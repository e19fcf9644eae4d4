package core

import "time"

const (
	NoticeSuccess NotificationType = "success"
	NoticeInfo    NotificationType = "info"
	NoticeWarning NotificationType = "warning"
)

type (
	NotificationType string

	// Notification is an entry in the in-app notification feed. The feed is
	// append-only apart from the read flag.
	Notification struct {
		ID        string           `json:"id"`
		Title     string           `json:"title"`
		Message   string           `json:"message"`
		Type      NotificationType `json:"type"`
		Read      bool             `json:"read"`
		Timestamp time.Time        `json:"timestamp"`
	}
)
