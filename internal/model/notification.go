package model

import "time"

// Notification is a server-generated event addressed to the current user.
// It arrives either from the bulk fetch (/api/v1/notificaciones/me) or as a
// realtime push on /user/queue/notifications; both use the same shape.
type Notification struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id" db:"id"`

	// Message is the human-readable notification text.
	Message string `json:"mensaje" db:"message"`

	// Read indicates whether the user has acknowledged the notification.
	Read bool `json:"leido" db:"read"`

	// CreatedAt is when the server generated the notification.
	CreatedAt time.Time `json:"fechaCreacion" db:"created_at"`
}
