// internal/models/user.go
package models

import "github.com/google/uuid"

// User is the read-only projection of the platform's account record that
// this service needs: display name for chat/member events and the admin
// flag for lobby deletion. Account CRUD lives in the accounts service.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin"`
}
