package model

import "time"

// Notification is one message delivered to the customer, fetched from the
// notifications endpoint or carried by a push payload.
type Notification struct {
	ID        string            `json:"_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Type      string            `json:"type,omitempty"`
	IsRead    bool              `json:"is_read"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
