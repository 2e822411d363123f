package models

import "time"

// User is a directory record as persisted to users.json. The single-letter
// JSON keys are the on-disk format; zero-valued fields are omitted on write.
type User struct {
	ID           int       `json:"id,omitempty"`
	Username     string    `json:"u"`
	PasswordHash string    `json:"p"`
	Deleted      bool      `json:"d,omitempty"`
	CreatedAt    time.Time `json:"c,omitzero"`
	UpdatedAt    time.Time `json:"m,omitzero"`
}

// PublicUser is the client-facing view of a record. The password hash never
// leaves the server.
type PublicUser struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips a record down to the fields safe to return to clients.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
