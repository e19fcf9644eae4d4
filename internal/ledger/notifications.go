package ledger

import "paisa/internal/core"

// NotificationState is the in-app notification feed, newest first.
type NotificationState struct {
	Notifications []core.Notification `json:"notifications"`
	UnreadCount   int                 `json:"unreadCount"`
}

func (s NotificationState) Add(n core.Notification) NotificationState {
	s.Notifications = prepend(s.Notifications, n)
	if !n.Read {
		s.UnreadCount++
	}
	return s
}

// MarkRead flags one notification as read. Unknown or already-read ids are
// no-ops.
func (s NotificationState) MarkRead(id string) NotificationState {
	for i, n := range s.Notifications {
		if n.ID == id {
			if !n.Read {
				n.Read = true
				s.Notifications = replaceAt(s.Notifications, i, n)
				s.UnreadCount--
			}
			return s
		}
	}
	return s
}

func (s NotificationState) MarkAllRead() NotificationState {
	ns := make([]core.Notification, len(s.Notifications))
	for i, n := range s.Notifications {
		n.Read = true
		ns[i] = n
	}
	s.Notifications = ns
	s.UnreadCount = 0
	return s
}

// Normalize recomputes the unread counter from the feed.
func (s NotificationState) Normalize() NotificationState {
	unread := 0
	for _, n := range s.Notifications {
		if !n.Read {
			unread++
		}
	}
	s.UnreadCount = unread
	return s
}
