// internal/models/notification.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification kinds produced by this service. Other platform subsystems
// (friends, achievements, bonuses) write their own kinds through the same
// relation.
const (
	NotificationMatchStarted   = "match_started"
	NotificationLobbyCancelled = "lobby_cancelled"
)

// Notification is a durable per-user event record. The real-time push over
// a live connection is best effort; this row is the system of record.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
}
